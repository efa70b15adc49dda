package domain

// Persona is a fictional victim identity the agent role-plays. Values are
// loaded once and shared read-only between sessions.
type Persona struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Age             int    `json:"age" yaml:"age"`
	Background      string `json:"background" yaml:"background"`
	TechFamiliarity string `json:"tech_familiarity" yaml:"tech_familiarity"`
	SpeechPattern   string `json:"speech_pattern" yaml:"speech_pattern"`
}

// Tech familiarity levels used by the catalogue.
const (
	TechLow    = "low"
	TechMedium = "medium"
	TechHigh   = "high"
)
