package domain

// Channel metadata defaults applied when the caller omits them.
const (
	DefaultChannel  = "SMS"
	DefaultLanguage = "English"
	DefaultLocale   = "IN"
)

// Metadata describes where an inbound message came from.
type Metadata struct {
	Channel  string `json:"channel"`
	Language string `json:"language"`
	Locale   string `json:"locale"`
}

// WithDefaults fills empty fields with the stock channel values.
func (m Metadata) WithDefaults() Metadata {
	if m.Channel == "" {
		m.Channel = DefaultChannel
	}
	if m.Language == "" {
		m.Language = DefaultLanguage
	}
	if m.Locale == "" {
		m.Locale = DefaultLocale
	}
	return m
}
