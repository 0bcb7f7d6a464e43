package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/scamguard/scamguard/internal/transcript"
)

const agentSystemPrompt = `你是一個詐騙檢測分析師。你會收到一段 JSON 格式的對話紀錄，` +
	`其中 current_user_id 是要評估的發話者。請依照詐騙進程（建立信任、套取個資、金錢要求）` +
	`評估該發話者的風險，只輸出一個 JSON 物件，不要輸出其他文字：
{"risk_level":"低|中|高","confidence":0.0到1.0,"brief_analysis":"一句話分析","evidence":"關鍵證據","reply":"給使用者的繁體中文建議"}`

// Agent scores a speaker by asking a chat-completion model for a structured
// verdict. Same failure contract as Remote: any API or parse failure is
// ErrUnavailable, degraded per speaker by the coordinator.
type Agent struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewAgent builds an agent strategy. baseURL may be empty for the default
// OpenAI endpoint, or point at any compatible server.
func NewAgent(apiKey, baseURL, model string, logger *slog.Logger) *Agent {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Agent{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

func (a *Agent) Name() string { return "agent" }

func (a *Agent) Assess(ctx context.Context, speaker string, current transcript.Message, history []transcript.Message, profile Profile) (*Assessment, error) {
	conversation := append(append([]transcript.Message{}, history...), current)
	payload := transcript.FormatJSON(conversation, speaker)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: agentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: payload},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: agent call: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: agent returned no choices", ErrUnavailable)
	}

	verdict, err := parseAgentVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("agent assessment",
		"speaker", speaker,
		"confidence", verdict.Confidence,
		"level", verdict.RiskLevel,
	)

	return verdict.toAssessment(speaker)
}

// parseAgentVerdict decodes the model output, tolerating a markdown fence.
func parseAgentVerdict(raw string) (wireVerdict, error) {
	var verdict wireVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &verdict); err != nil {
		return wireVerdict{}, fmt.Errorf("%w: parse agent verdict: %v", ErrUnavailable, err)
	}
	return verdict, nil
}
