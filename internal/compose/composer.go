// Package compose turns risk assessments into the user-facing reply payload.
package compose

import (
	"fmt"
	"strings"

	"github.com/scamguard/scamguard/internal/detect"
	"github.com/scamguard/scamguard/internal/stage"
)

// Verdict is one element of the outbound wire contract.
type Verdict struct {
	UserName      string  `json:"user_name"`
	RiskLevel     string  `json:"risk_level"`
	Confidence    float64 `json:"confidence"`
	BriefAnalysis string  `json:"brief_analysis"`
	Evidence      string  `json:"evidence"`
	Reply         string  `json:"reply"`
}

// Reply renders the final reply text for one assessment. High and Medium risk
// get an explicit warning prefix; Low risk returns the bare templated reply.
func Reply(a detect.Assessment) string {
	switch a.Level {
	case stage.LevelHigh:
		warning := fmt.Sprintf("[警示] 您可能正被詐騙，請提高警覺（可信度 %.1f%%）", a.Confidence*100)
		return warning + "\n\n" + a.Reply
	case stage.LevelMedium:
		note := fmt.Sprintf("[提醒] 該訊息有一些可疑跡象，請保持警惕（可信度 %.1f%%）", a.Confidence*100)
		return note + "\n\n" + a.Reply
	default:
		return a.Reply
	}
}

// Render maps assessments onto the outbound array, preserving order.
func Render(assessments []detect.Assessment) []Verdict {
	out := make([]Verdict, len(assessments))
	for i, a := range assessments {
		out[i] = Verdict{
			UserName:      a.Speaker,
			RiskLevel:     string(a.Level),
			Confidence:    a.Confidence,
			BriefAnalysis: a.Analysis,
			Evidence:      a.Evidence,
			Reply:         Reply(a),
		}
	}
	return out
}

// Summary flattens a verdict list into one chat message, one block per
// speaker, for platforms that cap the number of reply messages.
func Summary(verdicts []Verdict) string {
	var sb strings.Builder
	for i, v := range verdicts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "【%s】風險等級：%s\n%s", v.UserName, v.RiskLevel, v.Reply)
	}
	return sb.String()
}
