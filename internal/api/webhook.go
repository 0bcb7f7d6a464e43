package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/scamguard/scamguard/internal/compose"
	"github.com/scamguard/scamguard/internal/detect"
	"github.com/scamguard/scamguard/internal/transcript"
)

const (
	replyBadTranscript = "輸入格式無效。請提供 LINE 對話匯出格式的內容，例如由聊天室匯出的訊息紀錄。"
	replyUnsupported   = "很抱歉，我無法處理這種類型的訊息。請以文字方式提供您想要檢測的對話紀錄。"
	replyInternalError = "很抱歉，處理您的訊息時發生問題。請稍後再試。"
)

type webhookBody struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// callback receives LINE webhook events. Text messages are treated as pasted
// transcripts and run through the engine; everything else gets a canned reply.
func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	if !s.verifySignature(body, r.Header.Get("X-Line-Signature")) {
		s.logger.Warn("webhook signature rejected")
		writeError(w, http.StatusForbidden, "bad signature")
		return
	}

	var payload webhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	for _, evt := range payload.Events {
		s.handleEvent(r, evt)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleEvent(r *http.Request, evt webhookEvent) {
	if evt.Type != "message" {
		s.logger.Info("ignoring event", "type", evt.Type)
		return
	}

	ctx := r.Context()

	if evt.Message.Type != "text" {
		s.logger.Info("unsupported message type", "type", evt.Message.Type, "user_id", evt.Source.UserID)
		s.reply(ctx, evt.ReplyToken, replyUnsupported)
		return
	}

	verdicts, err := s.process(ctx, evt.Message.Text, s.senderProfile(ctx, evt.Source.UserID))
	if err != nil {
		if errors.Is(err, transcript.ErrNoMessages) {
			s.reply(ctx, evt.ReplyToken, replyBadTranscript)
			return
		}
		s.logger.Error("webhook processing failed", "user_id", evt.Source.UserID, "error", err)
		s.reply(ctx, evt.ReplyToken, replyInternalError)
		return
	}

	s.reply(ctx, evt.ReplyToken, compose.Summary(verdicts))
}

// senderProfile looks up the webhook sender's display profile so detection
// sees it when the sender appears as a speaker in the pasted transcript.
// Lookup is best-effort; a failed or empty profile just yields no map.
func (s *Server) senderProfile(ctx context.Context, userID string) map[string]detect.Profile {
	if s.line == nil || userID == "" {
		return nil
	}
	p := s.line.GetProfile(ctx, userID)
	if p.DisplayName == "" {
		return nil
	}
	return map[string]detect.Profile{p.DisplayName: p}
}

// reply sends a webhook reply, tolerating a missing client so the engine
// still works in analyze-only deployments.
func (s *Server) reply(ctx context.Context, replyToken, text string) {
	if s.line == nil || replyToken == "" {
		return
	}
	if err := s.line.ReplyMessage(ctx, replyToken, text); err != nil {
		s.logger.Error("failed to send reply", "error", err)
	}
}

// verifySignature checks the webhook HMAC. An unset channel secret disables
// verification, which is only acceptable for local development.
func (s *Server) verifySignature(body []byte, signature string) bool {
	if s.channelSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(s.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
