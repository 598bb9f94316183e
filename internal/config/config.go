// Package config loads process configuration from the environment and sets
// up the shared logger.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries the process-level settings shared by the CLI and the
// server.
type Config struct {
	// CorpusDir is the corpus "generated" directory holding the motion
	// dictionary and MMS files.
	CorpusDir string

	// ServerAddr is the HTTP listen address of the realization service.
	ServerAddr string

	// SupabaseURL/SupabaseKey enable job status persistence when both are
	// set; otherwise statuses are only logged.
	SupabaseURL string
	SupabaseKey string

	// Workers sizes the server-side job dispatcher pool.
	Workers int
}

// Load reads a .env file when present, then the environment. CORPUS_DIR is
// required; everything else has defaults.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		CorpusDir:   os.Getenv("CORPUS_DIR"),
		ServerAddr:  getEnv("SERVER_ADDR", ":5000"),
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		Workers:     4,
	}
	if cfg.CorpusDir == "" {
		return nil, fmt.Errorf("config: CORPUS_DIR must be set")
	}
	if raw := os.Getenv("PIPELINE_WORKERS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config: PIPELINE_WORKERS must be a positive integer, got %q", raw)
		}
		cfg.Workers = n
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// InitLogger configures the process-wide logrus instance: JSON on servers,
// plain text for interactive CLI use.
func InitLogger(jsonFormat bool, level string) {
	if jsonFormat {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
