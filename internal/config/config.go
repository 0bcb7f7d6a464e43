package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               int
	LogLevel           string
	LineChannelSecret  string
	LineChannelToken   string
	LineAlertRecipient string
	AnalysisAPIURL     string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	DetectTimeout      time.Duration
	StageCatalogPath   string
	ScamExamplesPath   string
	DatabaseURL        string
	NatsURL            string
}

func Load() Config {
	return Config{
		Port:               envInt("PORT", 10000),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		LineChannelSecret:  envStr("LINE_CHANNEL_SECRET", ""),
		LineChannelToken:   envStr("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineAlertRecipient: envStr("LINE_ALERT_RECIPIENT", ""),
		AnalysisAPIURL:     envStr("ANALYSIS_API_URL", ""),
		OpenAIAPIKey:       envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      envStr("OPENAI_BASE_URL", ""),
		OpenAIModel:        envStr("OPENAI_MODEL", "gpt-4o-mini"),
		DetectTimeout:      envDur("DETECT_TIMEOUT", 5*time.Second),
		StageCatalogPath:   envStr("STAGE_CATALOG", ""),
		ScamExamplesPath:   envStr("SCAM_EXAMPLES", ""),
		DatabaseURL:        envStr("DATABASE_URL", ""),
		NatsURL:            envStr("NATS_URL", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
