// Package alerts publishes high-risk verdict events over NATS so downstream
// consumers (case workers, dashboards) can react without polling.
package alerts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectHighRisk carries one event per High verdict.
const SubjectHighRisk = "scamguard.risk.high"

// HighRiskEvent is the payload published on SubjectHighRisk.
type HighRiskEvent struct {
	SessionID    string  `json:"session_id"`
	Speaker      string  `json:"speaker"`
	Confidence   float64 `json:"confidence"`
	MatchedStage string  `json:"matched_stage,omitempty"`
	Strategy     string  `json:"strategy"`
	Timestamp    string  `json:"timestamp"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: nc, logger: logger}, nil
}

func (p *Publisher) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
