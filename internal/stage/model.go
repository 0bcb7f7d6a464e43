// Package stage holds the scam-progression model: an ordered catalog of
// stages a social-engineering conversation moves through, with the signature
// patterns and scoring rules used to place a message on that progression.
package stage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMisconfigured is returned when the catalog is empty or malformed.
// Catalog problems are fatal at startup, never per-request.
var ErrMisconfigured = errors.New("stage catalog misconfigured")

// Pattern is one signature within a stage. Specificity scales how strongly a
// single hit counts; generic words carry less weight than phrases that only
// appear in scam talk.
type Pattern struct {
	Text        string  `json:"text" yaml:"text"`
	Specificity float64 `json:"specificity,omitempty" yaml:"specificity,omitempty"`
}

// Definition is one stage of the progression. Position in the catalog is the
// progression order: later stages are stronger risk signals.
type Definition struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Weight   float64   `json:"weight" yaml:"weight"` // in (0,1]
	Patterns []Pattern `json:"patterns" yaml:"patterns"`
}

// Model is the immutable stage catalog plus the scoring constants. Loaded
// once at startup and shared read-only by every strategy.
type Model struct {
	stages []Definition
	decay  float64
}

type catalogFile struct {
	Stages []Definition `json:"stages" yaml:"stages"`
	Decay  float64      `json:"decay,omitempty" yaml:"decay,omitempty"`
}

// New builds a model from a stage list, validating the catalog.
func New(stages []Definition, decay float64) (*Model, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: no stages", ErrMisconfigured)
	}
	if decay <= 0 || decay >= 1 {
		return nil, fmt.Errorf("%w: decay %g outside (0,1)", ErrMisconfigured, decay)
	}
	for i, st := range stages {
		if st.ID == "" {
			return nil, fmt.Errorf("%w: stage %d has no id", ErrMisconfigured, i)
		}
		if st.Weight <= 0 || st.Weight > 1 {
			return nil, fmt.Errorf("%w: stage %q weight %g outside (0,1]", ErrMisconfigured, st.ID, st.Weight)
		}
		if len(st.Patterns) == 0 {
			return nil, fmt.Errorf("%w: stage %q has no patterns", ErrMisconfigured, st.ID)
		}
		for j := range st.Patterns {
			if st.Patterns[j].Text == "" {
				return nil, fmt.Errorf("%w: stage %q pattern %d is empty", ErrMisconfigured, st.ID, j)
			}
			if st.Patterns[j].Specificity == 0 {
				stages[i].Patterns[j].Specificity = 1.0
			} else if st.Patterns[j].Specificity < 0 {
				return nil, fmt.Errorf("%w: stage %q pattern %q has negative specificity", ErrMisconfigured, st.ID, st.Patterns[j].Text)
			}
		}
	}
	return &Model{stages: stages, decay: decay}, nil
}

// LoadFile reads a catalog from a JSON or YAML file, chosen by extension.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage catalog: %w", err)
	}

	var cat catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", ErrMisconfigured, err)
		}
	default:
		if err := json.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", ErrMisconfigured, err)
		}
	}

	if cat.Decay == 0 {
		cat.Decay = DefaultDecay
	}
	return New(cat.Stages, cat.Decay)
}

// Stages returns the catalog in progression order.
func (m *Model) Stages() []Definition {
	return m.stages
}

// Decay returns the per-turn confidence decay factor.
func (m *Model) Decay() float64 {
	return m.decay
}
