// Package detect turns per-speaker conversation records into risk verdicts.
// A Strategy scores one speaker; the Coordinator fans a transcript out across
// speakers and merges the results into the output contract.
package detect

import (
	"context"
	"errors"

	"github.com/scamguard/scamguard/internal/stage"
	"github.com/scamguard/scamguard/internal/transcript"
)

var (
	// ErrUnavailable means the detection backend was unreachable or
	// returned garbage. Recovered per speaker, never fatal for the batch.
	ErrUnavailable = errors.New("detection unavailable")

	// ErrUnknownSpeaker means an assessment was requested for a speaker
	// absent from the store, which is a contract violation by the caller.
	ErrUnknownSpeaker = errors.New("unknown speaker")
)

// Profile is optional speaker metadata from the messaging platform. All
// fields may be empty; strategies must tolerate that.
type Profile struct {
	DisplayName string `json:"display_name"`
	PictureURL  string `json:"picture_url"`
	Language    string `json:"language"`
}

// Assessment is the structured verdict for one speaker. Created fresh per
// detection call and never mutated afterwards.
type Assessment struct {
	Speaker      string
	Level        stage.Level
	Confidence   float64
	MatchedStage *stage.Definition // nil when nothing cleared the activation threshold
	Analysis     string
	Evidence     string
	Reply        string
}

// Strategy is a pluggable detection algorithm. Assess must not mutate the
// conversation store and must complete or fail within the caller's context
// deadline. history holds the speaker's prior messages, current the latest.
type Strategy interface {
	Name() string
	Assess(ctx context.Context, speaker string, current transcript.Message, history []transcript.Message, profile Profile) (*Assessment, error)
}
