// Package conversation keeps per-speaker message history for the lifetime of
// one request/session. It is an explicit object passed into the detection
// coordinator. There is no process-wide singleton, and nothing here outlives
// the transcript that filled it.
package conversation

import (
	"github.com/scamguard/scamguard/internal/transcript"
)

// Store is an append-only per-speaker history, keyed by the speaker name
// exactly as it appeared in the transcript.
type Store struct {
	order     []string
	histories map[string][]transcript.Message
}

func NewStore() *Store {
	return &Store{histories: make(map[string][]transcript.Message)}
}

// Append grows the speaker's history. First-seen order of speakers is
// preserved; messages within a speaker keep insertion order.
func (s *Store) Append(speaker string, msg transcript.Message) {
	if _, seen := s.histories[speaker]; !seen {
		s.order = append(s.order, speaker)
	}
	s.histories[speaker] = append(s.histories[speaker], msg)
}

// History returns the full ordered history for a speaker, or nil if the
// speaker is unknown. The returned slice must not be mutated.
func (s *Store) History(speaker string) []transcript.Message {
	return s.histories[speaker]
}

// Known reports whether the speaker has been seen.
func (s *Store) Known(speaker string) bool {
	_, ok := s.histories[speaker]
	return ok
}

// Speakers returns all speakers in first-seen order.
func (s *Store) Speakers() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the total number of stored messages across all speakers.
func (s *Store) Len() int {
	n := 0
	for _, h := range s.histories {
		n += len(h)
	}
	return n
}
