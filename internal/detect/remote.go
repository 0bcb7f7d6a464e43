package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/scamguard/scamguard/internal/transcript"
)

// Remote delegates scoring to an external analysis service over HTTP. If the
// service is unreachable or answers garbage the strategy fails with
// ErrUnavailable; falling back to local scoring is the coordinator's call,
// not this strategy's.
type Remote struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewRemote(url string, timeout time.Duration, logger *slog.Logger) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (r *Remote) Name() string { return "remote" }

type remoteRequest struct {
	UserID         string   `json:"user_id"`
	DisplayName    string   `json:"display_name"`
	PictureURL     string   `json:"picture_url"`
	Language       string   `json:"language"`
	CurrentMessage string   `json:"current_message"`
	ChatHistory    []string `json:"chat_history"`
}

func (r *Remote) Assess(ctx context.Context, speaker string, current transcript.Message, history []transcript.Message, profile Profile) (*Assessment, error) {
	body, err := json.Marshal(remoteRequest{
		UserID:         speaker,
		DisplayName:    profile.DisplayName,
		PictureURL:     profile.PictureURL,
		Language:       profile.Language,
		CurrentMessage: current.Text,
		ChatHistory:    transcript.Texts(history),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: analysis call: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read analysis response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: analysis service returned %d", ErrUnavailable, resp.StatusCode)
	}

	var verdict wireVerdict
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		return nil, fmt.Errorf("%w: parse analysis response: %v", ErrUnavailable, err)
	}

	r.logger.Debug("remote assessment",
		"speaker", speaker,
		"confidence", verdict.Confidence,
		"level", verdict.RiskLevel,
	)

	return verdict.toAssessment(speaker)
}
