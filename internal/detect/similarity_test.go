package detect

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExampleSet_IdenticalText(t *testing.T) {
	set := NewExampleSet([]string{"先匯款到這個帳戶"})
	if sim := set.MaxSimilarity("先匯款到這個帳戶"); sim < 0.999 {
		t.Errorf("identical text similarity = %g, want ~1", sim)
	}
}

func TestExampleSet_UnrelatedText(t *testing.T) {
	set := NewExampleSet([]string{"先匯款到這個帳戶"})
	if sim := set.MaxSimilarity("今天天氣真好"); sim > 0.2 {
		t.Errorf("unrelated text similarity = %g, want near 0", sim)
	}
}

func TestExampleSet_Empty(t *testing.T) {
	set := NewExampleSet(nil)
	if sim := set.MaxSimilarity("anything"); sim != 0 {
		t.Errorf("empty set similarity = %g, want 0", sim)
	}

	var nilSet *ExampleSet
	if sim := nilSet.MaxSimilarity("anything"); sim != 0 {
		t.Errorf("nil set similarity = %g, want 0", sim)
	}
}

func TestLoadExamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scam_data.json")
	content := `{"scam_examples": ["老師帶你操作穩賺不賠", "", "先付手續費才能出金"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadExamples(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The empty entry is dropped.
	if len(set.examples) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(set.examples))
	}
}

func TestLoadExamples_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scam_data.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadExamples(path); err == nil {
		t.Fatal("expected error for malformed examples file")
	}
}
