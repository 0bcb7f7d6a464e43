package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scamguard/scamguard/internal/alerts"
	"github.com/scamguard/scamguard/internal/api"
	"github.com/scamguard/scamguard/internal/config"
	"github.com/scamguard/scamguard/internal/detect"
	"github.com/scamguard/scamguard/internal/line"
	"github.com/scamguard/scamguard/internal/stage"
	"github.com/scamguard/scamguard/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("scamguard starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model, examples, err := loadDetectionData(cfg)
	if err != nil {
		return err
	}

	strategy := buildStrategy(cfg, model, examples)
	slog.Info("detection strategy selected", "strategy", strategy.Name())

	coordinator := detect.NewCoordinator(strategy, cfg.DetectTimeout, slog.Default())

	// Audit store is optional; the engine runs without persistence.
	var db *store.Store
	if cfg.DatabaseURL != "" {
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		slog.Info("audit store connected")
	} else {
		slog.Warn("no database configured, running without audit log")
	}

	// High-risk alert publisher (optional).
	var pub *alerts.Publisher
	if cfg.NatsURL != "" {
		pub, err = alerts.NewPublisher(cfg.NatsURL, slog.Default())
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer pub.Close()
		slog.Info("alert publisher connected", "url", cfg.NatsURL)
	}

	// LINE client is optional; analyze-only deployments skip the reply loop.
	var lineClient *line.Client
	if cfg.LineChannelToken != "" {
		lineClient = line.NewClient(cfg.LineChannelToken, slog.Default())
		slog.Info("line client ready")
	} else {
		slog.Warn("LINE not configured, webhook replies disabled")
	}
	if cfg.LineChannelSecret == "" {
		slog.Warn("LINE_CHANNEL_SECRET unset, webhook signature verification disabled")
	}

	srv := api.NewServer(cfg.Port, coordinator, lineClient, db, pub, cfg.LineChannelSecret, cfg.LineAlertRecipient, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("scamguard ready", "port", cfg.Port, "strategy", strategy.Name())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("scamguard stopped")
	return nil
}

// loadDetectionData loads the stage catalog and scam examples, falling back
// to the built-in data when no files are configured. Catalog problems are
// fatal at startup.
func loadDetectionData(cfg config.Config) (*stage.Model, *detect.ExampleSet, error) {
	model := stage.Default()
	if cfg.StageCatalogPath != "" {
		var err error
		model, err = stage.LoadFile(cfg.StageCatalogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load stage catalog: %w", err)
		}
		slog.Info("stage catalog loaded", "path", cfg.StageCatalogPath, "stages", len(model.Stages()))
	}

	var examples *detect.ExampleSet
	if cfg.ScamExamplesPath != "" {
		var err error
		examples, err = detect.LoadExamples(cfg.ScamExamplesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load scam examples: %w", err)
		}
		slog.Info("scam examples loaded", "path", cfg.ScamExamplesPath)
	}
	return model, examples, nil
}

// buildStrategy is a pure function of configuration: a remote endpoint wins,
// then an agent key, then the local rules.
func buildStrategy(cfg config.Config, model *stage.Model, examples *detect.ExampleSet) detect.Strategy {
	if cfg.AnalysisAPIURL != "" {
		return detect.NewRemote(cfg.AnalysisAPIURL, cfg.DetectTimeout, slog.Default())
	}
	if cfg.OpenAIAPIKey != "" {
		return detect.NewAgent(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, slog.Default())
	}
	return detect.NewLocal(model, examples, slog.Default())
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
