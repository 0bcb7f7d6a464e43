package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scamguard/scamguard/internal/detect"
)

// AssessmentRecord is one persisted verdict row.
type AssessmentRecord struct {
	ID            uuid.UUID
	SessionID     uuid.UUID
	Speaker       string
	RiskLevel     string
	Confidence    float64
	MatchedStage  string
	BriefAnalysis string
	Evidence      string
	Reply         string
	Strategy      string
	CreatedAt     time.Time
}

// WriteAssessment inserts one verdict into the audit log and returns its id.
func (s *Store) WriteAssessment(ctx context.Context, sessionID uuid.UUID, strategy string, a detect.Assessment) (uuid.UUID, error) {
	id := uuid.New()

	matchedStage := ""
	if a.MatchedStage != nil {
		matchedStage = a.MatchedStage.ID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO risk_assessments (id, session_id, speaker, risk_level, confidence, matched_stage, brief_analysis, evidence, reply, strategy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, sessionID, a.Speaker, string(a.Level), a.Confidence, matchedStage, a.Analysis, a.Evidence, a.Reply, strategy,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert assessment: %w", err)
	}
	return id, nil
}

// RecentHighRisk returns the most recent High verdicts, newest first.
func (s *Store) RecentHighRisk(ctx context.Context, limit int) ([]AssessmentRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, speaker, risk_level, confidence, matched_stage, brief_analysis, evidence, reply, strategy, created_at
		FROM risk_assessments
		WHERE risk_level = '高'
		ORDER BY created_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query high-risk assessments: %w", err)
	}
	defer rows.Close()

	var records []AssessmentRecord
	for rows.Next() {
		var r AssessmentRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Speaker, &r.RiskLevel, &r.Confidence, &r.MatchedStage, &r.BriefAnalysis, &r.Evidence, &r.Reply, &r.Strategy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assessment row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessment rows: %w", err)
	}
	return records, nil
}
