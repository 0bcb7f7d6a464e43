package detect

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/scamguard/scamguard/internal/stage"
	"github.com/scamguard/scamguard/internal/transcript"
)

// systemSignalScale dampens system-notice lines: join/leave noise should not
// move a risk score the way speaker-authored text does.
const systemSignalScale = 0.3

// similarityWeight caps how much example similarity alone can contribute to
// confidence. A near-verbatim scam lure lands just under High on similarity
// alone; the stage model has to corroborate for a High verdict.
const similarityWeight = 0.8

// Local scores deterministically from the stage model plus character-level
// similarity against known scam examples. No network, no model calls.
type Local struct {
	model    *stage.Model
	examples *ExampleSet
	logger   *slog.Logger
	seq      atomic.Uint64
}

func NewLocal(model *stage.Model, examples *ExampleSet, logger *slog.Logger) *Local {
	if examples == nil {
		examples = NewExampleSet(defaultScamExamples())
	}
	return &Local{model: model, examples: examples, logger: logger}
}

func (l *Local) Name() string { return "local" }

// Assess walks the speaker's history oldest-first, folding each message into
// the decayed running confidence, then folds in the current message plus its
// similarity to known scam texts. The decay is what makes the scan
// recency-weighted: older signals fade unless renewed.
func (l *Local) Assess(ctx context.Context, speaker string, current transcript.Message, history []transcript.Message, profile Profile) (*Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	confidence := 0.0
	var best stage.Score

	fold := func(msg transcript.Message) {
		sc := l.model.ScoreMessage(msg.Text)
		if msg.IsSystem() {
			sc.Value *= systemSignalScale
		}
		if sc.Stage != nil && sc.Value > confidence*l.model.Decay() {
			best = sc
		}
		confidence = l.model.UpdateConfidence(confidence, sc.Value)
	}

	for _, msg := range history {
		fold(msg)
	}
	fold(current)

	// Similarity to known scam texts only ever raises confidence; it never
	// replaces the matched stage as evidence.
	if sim := l.examples.MaxSimilarity(current.Text) * similarityWeight; sim > confidence {
		confidence = stage.Clamp(sim)
	}

	level := stage.LevelFor(confidence)
	seq := l.seq.Add(1) - 1

	l.logger.Debug("local assessment",
		"speaker", speaker,
		"confidence", confidence,
		"level", string(level),
	)

	return &Assessment{
		Speaker:      speaker,
		Level:        level,
		Confidence:   confidence,
		MatchedStage: best.Stage,
		Analysis:     analysisText(best, confidence),
		Evidence:     evidenceText(best),
		Reply:        pickReply(level, seq),
	}, nil
}
