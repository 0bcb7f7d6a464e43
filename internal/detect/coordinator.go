package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scamguard/scamguard/internal/conversation"
	"github.com/scamguard/scamguard/internal/stage"
	"github.com/scamguard/scamguard/internal/transcript"
)

// Coordinator fans a parsed transcript out across speakers, one strategy call
// per speaker, and joins the verdicts back in first-seen speaker order.
type Coordinator struct {
	strategy Strategy
	timeout  time.Duration
	logger   *slog.Logger
}

// NewCoordinator builds a coordinator around a single strategy. The strategy
// choice is made once at construction, never per call.
func NewCoordinator(strategy Strategy, timeout time.Duration, logger *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{strategy: strategy, timeout: timeout, logger: logger}
}

// Strategy returns the configured strategy's name, for logging and status.
func (c *Coordinator) Strategy() string {
	return c.strategy.Name()
}

// Run assesses every distinct speaker in the transcript. Speakers are scored
// in parallel; one speaker's failure degrades that speaker's verdict instead
// of aborting the batch. Cancellation of ctx abandons the whole batch;
// partial results are never returned.
func (c *Coordinator) Run(ctx context.Context, msgs []transcript.Message, profiles map[string]Profile) ([]Assessment, error) {
	store := conversation.NewStore()
	for _, m := range msgs {
		store.Append(m.Speaker, m)
	}

	speakers := store.Speakers()
	results := make([]Assessment, len(speakers))

	g, gctx := errgroup.WithContext(ctx)
	for i, speaker := range speakers {
		g.Go(func() error {
			a, err := c.assessSpeaker(gctx, store, speaker, profiles[speaker])
			if err != nil {
				// An unknown speaker is a caller bug, not a backend
				// outage: fail the batch instead of degrading.
				if errors.Is(err, ErrUnknownSpeaker) {
					return err
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("assessment degraded",
					"speaker", speaker,
					"strategy", c.strategy.Name(),
					"error", err,
				)
				a = degradedAssessment(speaker)
			}
			results[i] = normalize(*a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assessment batch abandoned: %w", err)
	}

	return results, nil
}

// assessSpeaker runs the strategy for one speaker under its own timeout, so a
// hung backend cannot stall sibling speakers past the bulkhead.
func (c *Coordinator) assessSpeaker(ctx context.Context, store *conversation.Store, speaker string, profile Profile) (*Assessment, error) {
	if !store.Known(speaker) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpeaker, speaker)
	}

	history := store.History(speaker)
	current := history[len(history)-1]
	prior := history[:len(history)-1]

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.strategy.Assess(ctx, speaker, current, prior, profile)
}

// degradedAssessment is the conservative fallback verdict when a speaker's
// strategy call failed: Low, zero confidence, with an honest explanation.
// Remote failures do not silently fall back to local scoring.
func degradedAssessment(speaker string) *Assessment {
	return &Assessment{
		Speaker:    speaker,
		Level:      stage.LevelLow,
		Confidence: 0,
		Analysis:   "檢測服務暫時無法使用，本次未能完成風險分析。",
		Reply:      "很抱歉，我暫時無法分析這位發話者的訊息。請稍後再試。",
	}
}

// normalize enforces the output contract on every verdict regardless of which
// strategy produced it: confidence bounded to [0,1], risk level consistent
// with the threshold mapping, reply never empty.
func normalize(a Assessment) Assessment {
	a.Confidence = stage.Clamp(a.Confidence)
	a.Level = stage.LevelFor(a.Confidence)
	if a.Reply == "" {
		a.Reply = pickReply(a.Level, 0)
	}
	return a
}
