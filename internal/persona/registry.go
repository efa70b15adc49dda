// Package persona holds the fixed catalogue of victim identities the agent
// can role-play.
package persona

import (
	_ "embed"
	"fmt"

	"github.com/ashureev/scam-honeypot/internal/domain"
	"github.com/ashureev/scam-honeypot/internal/shared"
	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultCatalogue []byte

type catalogueFile struct {
	Personas []domain.Persona `yaml:"personas"`
}

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	personas []domain.Persona
	byID     map[string]domain.Persona
	rng      *shared.Rand
}

// Load parses a YAML catalogue.
func Load(data []byte, rng *shared.Rand) (*Registry, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse persona catalogue: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("persona catalogue is empty")
	}

	byID := make(map[string]domain.Persona, len(file.Personas))
	for i, p := range file.Personas {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("persona %d: id and name are required", i)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("persona %q: duplicate id", p.ID)
		}
		byID[p.ID] = p
	}
	if rng == nil {
		rng = shared.NewRand(0)
	}
	return &Registry{personas: file.Personas, byID: byID, rng: rng}, nil
}

// Default loads the embedded catalogue.
func Default(rng *shared.Rand) (*Registry, error) {
	return Load(defaultCatalogue, rng)
}

// Pick returns a pseudo-randomly chosen persona.
func (r *Registry) Pick() domain.Persona {
	return shared.Pick(r.rng, r.personas)
}

// Get returns a persona by ID.
func (r *Registry) Get(id string) (domain.Persona, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns a copy of the catalogue in file order.
func (r *Registry) All() []domain.Persona {
	return append([]domain.Persona(nil), r.personas...)
}
