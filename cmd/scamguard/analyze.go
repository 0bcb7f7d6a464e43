package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/scamguard/scamguard/internal/compose"
	"github.com/scamguard/scamguard/internal/config"
	"github.com/scamguard/scamguard/internal/detect"
	"github.com/scamguard/scamguard/internal/transcript"
)

func newAnalyzeCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a transcript file (or stdin) and print the verdicts as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runAnalyze(path, pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func runAnalyze(path string, pretty bool) error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	var raw []byte
	var err error
	if path == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	model, examples, err := loadDetectionData(cfg)
	if err != nil {
		return err
	}

	strategy := buildStrategy(cfg, model, examples)
	coordinator := detect.NewCoordinator(strategy, cfg.DetectTimeout, slog.Default())

	parsed, err := transcript.Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}

	assessments, err := coordinator.Run(context.Background(), parsed.Messages, nil)
	if err != nil {
		return fmt.Errorf("assess transcript: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(compose.Render(assessments))
}
