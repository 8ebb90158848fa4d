package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/db/repository"
	"github.com/quizforge/quizforge/internal/logging"
	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/quiz/gemini"
	"github.com/quizforge/quizforge/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps config, logger, Postgres, Redis, the quiz service, and the
// HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	topics, err := config.LoadTopics(cfg.Quiz.TopicsFile)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	active, ok := config.FindTopic(topics, cfg.Quiz.Topic)
	if !ok {
		return nil, fmt.Errorf("topic %q not present in registry", cfg.Quiz.Topic)
	}

	questionRepo := repository.NewQuestionRepository(pool)

	generator := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	}, logger)

	gate := quiz.NewRedisGrowthGate(redisClient, cfg.Quiz.GrowthGateTTL)

	quizSvc := quiz.NewService(questionRepo, generator, gate, quiz.ServiceOptions{
		BatchSize:         cfg.Quiz.BatchSize,
		GrowthProbability: cfg.Quiz.GrowthProbability,
		InitialUsage:      cfg.Quiz.InitialUsage,
		Selection:         cfg.Quiz.Selection,
		ReuseLimit:        cfg.Quiz.ReuseLimit,
	}, logger)

	topic := quiz.Topic{Key: active.Key, Title: active.Title, Prompt: active.Prompt}
	quizHandler := quiz.NewHTTPHandler(quizSvc, topic, logger)

	// Counting also re-anchors the pool size gauge, so health probes keep it
	// honest across replicas.
	poolCount := func(ctx context.Context) (int64, error) {
		count, err := questionRepo.CountByTopic(ctx, topic.Key)
		if err != nil {
			return 0, err
		}
		quiz.SetPoolSize(topic.Key, count)
		return count, nil
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, quizHandler.HandleQuiz, poolCount)

	// Connections are lazy, so a failure here is a warning, not a bootstrap
	// error.
	if count, err := poolCount(ctx); err != nil {
		logger.Warn().Err(err).Str("topic", topic.Key).Msg("pool size check failed")
	} else {
		logger.Info().Str("topic", topic.Key).Int64("pool_size", count).Msg("question pool ready")
	}

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
