package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration for the quiz service.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quizforge"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres Postgres
	Redis    Redis
	Gemini   Gemini
	Quiz     Quiz
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds growth-gate configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Gemini configures the question generator. The API key has no default on
// purpose: a missing key fails startup instead of failing every request.
type Gemini struct {
	APIKey  string        `env:"GEMINI_API_KEY,notEmpty"`
	Model   string        `env:"GEMINI_MODEL" envDefault:"models/gemini-2.0-flash"`
	BaseURL string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Timeout time.Duration `env:"GEMINI_TIMEOUT" envDefault:"12s"`
}

// Quiz tunes the batch and pool replenishment behavior.
type Quiz struct {
	Topic             string        `env:"QUIZ_TOPIC" envDefault:"information-ai"`
	TopicsFile        string        `env:"QUIZ_TOPICS_FILE" envDefault:"configs/topics.yaml"`
	BatchSize         int           `env:"QUIZ_BATCH_SIZE" envDefault:"5"`
	GrowthProbability float64       `env:"QUIZ_GROWTH_PROBABILITY" envDefault:"0.3"`
	InitialUsage      int           `env:"QUIZ_INITIAL_USAGE" envDefault:"0"`
	Selection         string        `env:"QUIZ_SELECTION" envDefault:"random"`
	ReuseLimit        int           `env:"QUIZ_REUSE_LIMIT" envDefault:"0"`
	GrowthGateTTL     time.Duration `env:"QUIZ_GROWTH_GATE_TTL" envDefault:"30s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
