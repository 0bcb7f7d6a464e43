package detect

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/scamguard/scamguard/internal/stage"
	"github.com/scamguard/scamguard/internal/transcript"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func msg(speaker, text string) transcript.Message {
	return transcript.Message{Speaker: speaker, Text: text}
}

func TestLocal_NewSpeakerLowSignal(t *testing.T) {
	l := NewLocal(stage.Default(), nil, testLogger())

	a, err := l.Assess(context.Background(), "阿明", msg("阿明", "我晚點會先用gpt生個草稿貼上去"), nil, Profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.MatchedStage != nil {
		t.Errorf("expected no matched stage, got %q", a.MatchedStage.ID)
	}
	if a.Level != stage.LevelLow {
		t.Errorf("level = %s, want 低", a.Level)
	}
	if a.Confidence >= 0.34 {
		t.Errorf("confidence = %g, want < 0.34", a.Confidence)
	}
	if a.Reply == "" {
		t.Error("reply must never be empty")
	}
}

func TestLocal_EscalationToFinancialAsk(t *testing.T) {
	l := NewLocal(stage.Default(), nil, testLogger())

	history := []transcript.Message{
		msg("小美", "你好，今天過得如何？"),
		msg("小美", "跟你說一個投資方案，保證獲利喔"),
		msg("小美", "錢怎麼轉"),
	}
	a, err := l.Assess(context.Background(), "小美", msg("小美", "要匯到哪"), history, Profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.MatchedStage == nil || a.MatchedStage.ID != "financial_ask" {
		t.Fatalf("matched stage = %+v, want financial_ask", a.MatchedStage)
	}
	if a.Level != stage.LevelHigh {
		t.Errorf("level = %s, want 高", a.Level)
	}
	if a.Confidence < 0.67 {
		t.Errorf("confidence = %g, want >= 0.67", a.Confidence)
	}
	if a.Evidence == "" {
		t.Error("expected matched pattern evidence")
	}
}

func TestLocal_EarlySignalDecays(t *testing.T) {
	l := NewLocal(stage.Default(), nil, testLogger())

	// One strong early signal followed by many quiet turns.
	history := []transcript.Message{msg("x", "錢怎麼轉")}
	for i := 0; i < 30; i++ {
		history = append(history, msg("x", "好喔"))
	}

	a, err := l.Assess(context.Background(), "x", msg("x", "晚點聊"), history, Profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Level == stage.LevelHigh {
		t.Errorf("confidence should have decayed below High, got %g", a.Confidence)
	}
}

func TestLocal_SystemNoticesAreLowSignal(t *testing.T) {
	l := NewLocal(stage.Default(), nil, testLogger())

	// Even a notice containing hot keywords is damped by the system scale.
	a, err := l.Assess(context.Background(), transcript.SystemSpeaker,
		transcript.Message{Speaker: transcript.SystemSpeaker, Text: "小美傳送了匯款轉帳說明"}, nil, Profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Level == stage.LevelHigh {
		t.Errorf("system notice should not reach High, confidence %g", a.Confidence)
	}
}

func TestLocal_ReplyRotation(t *testing.T) {
	l := NewLocal(stage.Default(), nil, testLogger())

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		a, err := l.Assess(context.Background(), "x", msg("x", "午安"), nil, Profile{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[a.Reply] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected rotating replies, got %d distinct texts", len(seen))
	}
}

func TestLocal_SimilarityRaisesConfidence(t *testing.T) {
	examples := NewExampleSet([]string{"老師帶你操作穩賺不賠，跟著投資方案保證獲利"})
	l := NewLocal(stage.Default(), examples, testLogger())

	a, err := l.Assess(context.Background(), "x",
		msg("x", "老師帶你操作穩賺不賠，跟著投資方案保證獲利"), nil, Profile{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Confidence < 0.34 {
		t.Errorf("near-verbatim scam text should raise confidence, got %g", a.Confidence)
	}
}

func TestLocal_CancelledContext(t *testing.T) {
	l := NewLocal(stage.Default(), nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Assess(ctx, "x", msg("x", "hi"), nil, Profile{}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
