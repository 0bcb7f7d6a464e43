// Package api exposes the detection engine over HTTP: the LINE webhook, a
// direct analysis endpoint and health/status probes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/scamguard/scamguard/internal/alerts"
	"github.com/scamguard/scamguard/internal/compose"
	"github.com/scamguard/scamguard/internal/detect"
	"github.com/scamguard/scamguard/internal/line"
	"github.com/scamguard/scamguard/internal/stage"
	"github.com/scamguard/scamguard/internal/store"
	"github.com/scamguard/scamguard/internal/transcript"
)

type Server struct {
	router        *chi.Mux
	port          int
	coordinator   *detect.Coordinator
	line          *line.Client      // nil when no channel token configured
	store         *store.Store      // nil when no database configured
	alerts        *alerts.Publisher // nil when no NATS configured
	channelSecret string
	alertTo       string // LINE user id pushed on High verdicts, empty disables
	logger        *slog.Logger
}

func NewServer(port int, coordinator *detect.Coordinator, lineClient *line.Client, db *store.Store, pub *alerts.Publisher, channelSecret, alertTo string, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:        router,
		port:          port,
		coordinator:   coordinator,
		line:          lineClient,
		store:         db,
		alerts:        pub,
		channelSecret: channelSecret,
		alertTo:       alertTo,
		logger:        logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/status", s.status)
	router.Get("/api/v1/high-risk", s.highRisk)
	router.Post("/callback", s.callback)
	router.Post("/api/v1/analyze", s.analyze)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "scamguard",
		"strategy": s.coordinator.Strategy(),
		"audit":    s.store != nil,
		"alerts":   s.alerts != nil,
	})
}

type analyzeRequest struct {
	Transcript string                    `json:"transcript"`
	Profiles   map[string]detect.Profile `json:"profiles,omitempty"`
}

// analyze runs a raw transcript through the engine and returns the verdict
// array directly, bypassing the messaging platform.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	verdicts, err := s.process(r.Context(), req.Transcript, req.Profiles)
	if err != nil {
		if errors.Is(err, transcript.ErrNoMessages) {
			writeError(w, http.StatusBadRequest, "transcript contains no parseable messages")
			return
		}
		s.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, verdicts)
}

// highRisk lists the most recent High verdicts from the audit log.
func (s *Server) highRisk(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.store.RecentHighRisk(r.Context(), limit)
	if err != nil {
		s.logger.Error("high-risk query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// process is the end-to-end pipeline for one transcript: parse, assess per
// speaker, record side effects, render the outbound payload.
func (s *Server) process(ctx context.Context, raw string, profiles map[string]detect.Profile) ([]compose.Verdict, error) {
	parsed, err := transcript.Parse(raw)
	if err != nil {
		return nil, err
	}

	assessments, err := s.coordinator.Run(ctx, parsed.Messages, profiles)
	if err != nil {
		return nil, fmt.Errorf("run coordinator: %w", err)
	}

	sessionID := uuid.New()
	for _, a := range assessments {
		if s.store != nil {
			if _, err := s.store.WriteAssessment(ctx, sessionID, s.coordinator.Strategy(), a); err != nil {
				s.logger.Error("failed to persist assessment", "speaker", a.Speaker, "error", err)
			}
		}
		if a.Level == stage.LevelHigh {
			if s.alerts != nil {
				matched := ""
				if a.MatchedStage != nil {
					matched = a.MatchedStage.ID
				}
				if err := s.alerts.Publish(alerts.SubjectHighRisk, alerts.HighRiskEvent{
					SessionID:    sessionID.String(),
					Speaker:      a.Speaker,
					Confidence:   a.Confidence,
					MatchedStage: matched,
					Strategy:     s.coordinator.Strategy(),
					Timestamp:    time.Now().UTC().Format(time.RFC3339),
				}); err != nil {
					s.logger.Error("failed to publish high-risk alert", "speaker", a.Speaker, "error", err)
				}
			}
			if s.line != nil && s.alertTo != "" {
				text := fmt.Sprintf("偵測到高風險發話者「%s」（可信度 %.0f%%），請儘速關注。", a.Speaker, a.Confidence*100)
				if err := s.line.PushMessage(ctx, s.alertTo, text); err != nil {
					s.logger.Error("failed to push high-risk alert", "speaker", a.Speaker, "error", err)
				}
			}
		}
	}

	s.logger.Info("transcript processed",
		"session_id", sessionID,
		"speakers", len(assessments),
		"skipped_lines", parsed.Skipped,
	)

	return compose.Render(assessments), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
