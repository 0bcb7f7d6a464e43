package detect

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/scamguard/scamguard/internal/stage"
	"github.com/scamguard/scamguard/internal/transcript"
)

// stubStrategy lets tests script per-speaker outcomes.
type stubStrategy struct {
	fail       map[string]bool
	unknown    map[string]bool
	confidence map[string]float64
	delay      time.Duration
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Assess(ctx context.Context, speaker string, current transcript.Message, history []transcript.Message, profile Profile) (*Assessment, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.unknown[speaker] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpeaker, speaker)
	}
	if s.fail[speaker] {
		return nil, fmt.Errorf("%w: scripted failure", ErrUnavailable)
	}
	conf := s.confidence[speaker]
	return &Assessment{
		Speaker:    speaker,
		Level:      stage.LevelFor(conf),
		Confidence: conf,
		Analysis:   "stub",
		Reply:      "stub reply",
	}, nil
}

func parseOrDie(t *testing.T, raw string) []transcript.Message {
	t.Helper()
	res, err := transcript.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return res.Messages
}

const threeSpeakers = `10:00 甲 早安
10:01 乙 早
10:02 丙 hi
10:03 甲 吃飯了嗎
`

func TestCoordinator_OnePerSpeakerInFirstSeenOrder(t *testing.T) {
	c := NewCoordinator(&stubStrategy{confidence: map[string]float64{"甲": 0.1, "乙": 0.5, "丙": 0.9}}, time.Second, testLogger())

	got, err := c.Run(context.Background(), parseOrDie(t, threeSpeakers), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected one assessment per distinct speaker, got %d", len(got))
	}
	for i, want := range []string{"甲", "乙", "丙"} {
		if got[i].Speaker != want {
			t.Errorf("got[%d].Speaker = %q, want %q", i, got[i].Speaker, want)
		}
	}
}

func TestCoordinator_DegradedSpeakerDoesNotBlockSiblings(t *testing.T) {
	c := NewCoordinator(&stubStrategy{
		fail:       map[string]bool{"乙": true},
		confidence: map[string]float64{"甲": 0.2, "丙": 0.8},
	}, time.Second, testLogger())

	got, err := c.Run(context.Background(), parseOrDie(t, threeSpeakers), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("degraded speaker must still appear, got %d assessments", len(got))
	}

	degraded := got[1]
	if degraded.Speaker != "乙" {
		t.Fatalf("expected 乙 at index 1, got %q", degraded.Speaker)
	}
	if degraded.Level != stage.LevelLow || degraded.Confidence != 0 {
		t.Errorf("degraded = %s/%g, want 低/0", degraded.Level, degraded.Confidence)
	}
	if degraded.Analysis == "" || degraded.Reply == "" {
		t.Error("degraded assessment must still explain itself and carry a reply")
	}

	// Siblings are unaffected.
	if got[2].Confidence != 0.8 {
		t.Errorf("sibling confidence = %g, want 0.8", got[2].Confidence)
	}
}

func TestCoordinator_NormalizesLevelToConfidence(t *testing.T) {
	// The stub returns whatever level; normalization re-derives it.
	c := NewCoordinator(&stubStrategy{confidence: map[string]float64{"甲": 0.7, "乙": 0.4, "丙": 0.0}}, time.Second, testLogger())

	got, err := c.Run(context.Background(), parseOrDie(t, threeSpeakers), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range got {
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Errorf("%s: confidence %g outside [0,1]", a.Speaker, a.Confidence)
		}
		if a.Level != stage.LevelFor(a.Confidence) {
			t.Errorf("%s: level %s inconsistent with confidence %g", a.Speaker, a.Level, a.Confidence)
		}
	}
}

func TestCoordinator_CancelledBatchReturnsNothing(t *testing.T) {
	c := NewCoordinator(&stubStrategy{delay: 200 * time.Millisecond}, time.Second, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := c.Run(ctx, parseOrDie(t, threeSpeakers), nil)
	if err == nil {
		t.Fatal("expected error from cancelled batch")
	}
	if got != nil {
		t.Errorf("partial results must not be returned, got %d", len(got))
	}
}

func TestCoordinator_PerSpeakerTimeoutDegrades(t *testing.T) {
	// Strategy is slower than the per-speaker timeout but the batch itself
	// is not cancelled: every speaker degrades instead of failing the run.
	c := NewCoordinator(&stubStrategy{delay: 100 * time.Millisecond}, 10*time.Millisecond, testLogger())

	got, err := c.Run(context.Background(), parseOrDie(t, threeSpeakers), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range got {
		if a.Confidence != 0 || a.Level != stage.LevelLow {
			t.Errorf("%s: expected degraded verdict, got %s/%g", a.Speaker, a.Level, a.Confidence)
		}
	}
}

func TestCoordinator_UnknownSpeakerFailsBatch(t *testing.T) {
	// Unlike a backend outage, an unknown-speaker error is a contract
	// violation and must surface instead of degrading the speaker.
	c := NewCoordinator(&stubStrategy{
		unknown:    map[string]bool{"乙": true},
		confidence: map[string]float64{"甲": 0.2, "丙": 0.8},
	}, time.Second, testLogger())

	got, err := c.Run(context.Background(), parseOrDie(t, threeSpeakers), nil)
	if !errors.Is(err, ErrUnknownSpeaker) {
		t.Fatalf("expected ErrUnknownSpeaker, got %v", err)
	}
	if got != nil {
		t.Errorf("failed batch must not return results, got %d", len(got))
	}
}

func TestCoordinator_StrategyErrorsAreUnavailable(t *testing.T) {
	s := &stubStrategy{fail: map[string]bool{"甲": true}}
	_, err := s.Assess(context.Background(), "甲", transcript.Message{}, nil, Profile{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("stub should script ErrUnavailable, got %v", err)
	}
}
