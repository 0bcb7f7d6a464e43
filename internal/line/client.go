// Package line is a thin client for the LINE Messaging API: replying to
// webhook events, pushing messages and fetching user profiles.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/scamguard/scamguard/internal/detect"
)

const defaultAPIBase = "https://api.line.me/v2/bot"

type Client struct {
	token   string
	client  *http.Client
	logger  *slog.Logger
	apiBase string
}

func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		apiBase: defaultAPIBase,
	}
}

// NewClientWithEndpoint is NewClient against a custom API base, for stub
// servers and non-default endpoints.
func NewClientWithEndpoint(token, apiBase string, logger *slog.Logger) *Client {
	c := NewClient(token, logger)
	c.apiBase = strings.TrimRight(apiBase, "/")
	return c
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReplyMessage answers a webhook event using its reply token. LINE caps a
// reply at five messages; callers should pre-join longer output.
func (c *Client) ReplyMessage(ctx context.Context, replyToken string, texts ...string) error {
	if len(texts) == 0 || len(texts) > 5 {
		return fmt.Errorf("reply needs 1-5 messages, got %d", len(texts))
	}
	msgs := make([]textMessage, len(texts))
	for i, t := range texts {
		msgs[i] = textMessage{Type: "text", Text: t}
	}
	return c.post(ctx, "/message/reply", map[string]any{
		"replyToken": replyToken,
		"messages":   msgs,
	})
}

// PushMessage sends a message outside the reply window.
func (c *Client) PushMessage(ctx context.Context, to, text string) error {
	return c.post(ctx, "/message/push", map[string]any{
		"to":       to,
		"messages": []textMessage{{Type: "text", Text: text}},
	})
}

// GetProfile fetches a user's display profile. Missing fields come back as
// empty strings; a failed lookup returns a zero profile without error, since
// profiles are best-effort context for detection.
func (c *Client) GetProfile(ctx context.Context, userID string) detect.Profile {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/profile/"+userID, nil)
	if err != nil {
		return detect.Profile{}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("profile lookup failed", "user_id", userID, "error", err)
		return detect.Profile{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("profile lookup rejected", "user_id", userID, "status", resp.StatusCode)
		return detect.Profile{}
	}

	var profile struct {
		DisplayName string `json:"displayName"`
		PictureURL  string `json:"pictureUrl"`
		Language    string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return detect.Profile{}
	}
	return detect.Profile{
		DisplayName: profile.DisplayName,
		PictureURL:  profile.PictureURL,
		Language:    profile.Language,
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal line payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("line post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("line api %s returned %d: %s", path, resp.StatusCode, string(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
