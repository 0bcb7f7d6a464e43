package detect

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// exampleVector is a character-bigram term-frequency vector for one known
// scam text. Bigrams work for Chinese where word boundaries are unmarked.
type exampleVector struct {
	text string
	vec  map[string]float64
}

// ExampleSet holds vectorized known-scam texts for similarity scoring.
type ExampleSet struct {
	examples []exampleVector
}

// LoadExamples reads a JSON file of the form {"scam_examples": ["...", ...]}.
func LoadExamples(path string) (*ExampleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scam examples: %w", err)
	}
	var doc struct {
		ScamExamples []string `json:"scam_examples"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scam examples: %w", err)
	}
	return NewExampleSet(doc.ScamExamples), nil
}

// NewExampleSet vectorizes the given texts. An empty set is valid and always
// scores zero.
func NewExampleSet(texts []string) *ExampleSet {
	set := &ExampleSet{}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		set.examples = append(set.examples, exampleVector{text: t, vec: bigramVector(t)})
	}
	return set
}

// MaxSimilarity returns the highest cosine similarity between the text and
// any known scam example, in [0,1].
func (s *ExampleSet) MaxSimilarity(text string) float64 {
	if s == nil || len(s.examples) == 0 {
		return 0
	}
	v := bigramVector(text)
	best := 0.0
	for _, ex := range s.examples {
		if sim := cosine(v, ex.vec); sim > best {
			best = sim
		}
	}
	return best
}

func bigramVector(text string) map[string]float64 {
	runes := []rune(strings.ToLower(strings.Join(strings.Fields(text), "")))
	vec := make(map[string]float64)
	for i := 0; i+1 < len(runes); i++ {
		vec[string(runes[i:i+2])]++
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
