package detect

import (
	"fmt"
	"strings"

	"github.com/scamguard/scamguard/internal/stage"
)

// wireVerdict is the minimal verdict shape an external analyzer returns,
// shared by the remote HTTP strategy and the agent strategy.
type wireVerdict struct {
	RiskLevel     string  `json:"risk_level"`
	Confidence    float64 `json:"confidence"`
	BriefAnalysis string  `json:"brief_analysis"`
	Evidence      string  `json:"evidence"`
	Reply         string  `json:"reply"`
}

// toAssessment validates and converts a wire verdict. A confidence outside
// [0,1] marks the whole response as malformed rather than being silently
// clamped; garbage in means the backend is misbehaving.
func (v wireVerdict) toAssessment(speaker string) (*Assessment, error) {
	if v.Confidence < 0 || v.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %g outside [0,1]", ErrUnavailable, v.Confidence)
	}

	level := stage.Level(strings.TrimSpace(v.RiskLevel))
	switch level {
	case stage.LevelLow, stage.LevelMedium, stage.LevelHigh:
	case "":
		level = stage.LevelFor(v.Confidence)
	default:
		return nil, fmt.Errorf("%w: unknown risk level %q", ErrUnavailable, v.RiskLevel)
	}

	return &Assessment{
		Speaker:    speaker,
		Level:      level,
		Confidence: v.Confidence,
		Analysis:   v.BriefAnalysis,
		Evidence:   v.Evidence,
		Reply:      v.Reply,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
