package stage

import "strings"

// Risk levels as they appear on the wire.
type Level string

const (
	LevelLow    Level = "低"
	LevelMedium Level = "中"
	LevelHigh   Level = "高"
)

// Confidence-to-risk thresholds. These are part of the output contract and
// must not drift: callers depend on the exact cut points.
const (
	mediumThreshold = 0.34
	highThreshold   = 0.67
)

// activationThreshold is the minimum stage score for a stage to count as
// matched at all.
const activationThreshold = 0.3

// saturation is the weighted-match mass at which a stage score reaches the
// stage's full weight. Two fully specific pattern hits saturate a stage.
const saturation = 2.0

// DefaultDecay is the per-turn forgetting factor for running confidence.
const DefaultDecay = 0.9

// LevelFor maps a confidence value onto a risk level.
func LevelFor(confidence float64) Level {
	switch {
	case confidence >= highThreshold:
		return LevelHigh
	case confidence >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Score is the result of matching one message against the catalog.
type Score struct {
	Stage   *Definition // nil when no stage cleared the activation threshold
	Value   float64     // in [0,1]
	Matched []string    // pattern texts that hit, evidence for the verdict
}

// ScoreMessage matches a message against every stage and returns the winning
// score. Ties between stages go to the later stage in the progression, since
// a financial ask outranks trust building at equal score.
func (m *Model) ScoreMessage(text string) Score {
	lowered := strings.ToLower(text)

	best := Score{}
	for i := range m.stages {
		st := &m.stages[i]

		var mass float64
		var matched []string
		for _, p := range st.Patterns {
			if strings.Contains(lowered, strings.ToLower(p.Text)) {
				mass += p.Specificity
				matched = append(matched, p.Text)
			}
		}
		if mass == 0 {
			continue
		}

		norm := mass / saturation
		if norm > 1 {
			norm = 1
		}
		value := norm * st.Weight
		if value < activationThreshold {
			continue
		}

		// >= keeps the later stage on ties.
		if value >= best.Value {
			best = Score{Stage: st, Value: value, Matched: matched}
		}
	}
	return best
}

// UpdateConfidence folds a new message score into the decayed running
// confidence: an early strong signal is remembered, but a long quiet stretch
// lets risk settle instead of staying pinned.
func (m *Model) UpdateConfidence(previous, messageScore float64) float64 {
	decayed := previous * m.decay
	if messageScore > decayed {
		return Clamp(messageScore)
	}
	return Clamp(decayed)
}

// Clamp bounds a confidence value to [0,1].
func Clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
