package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/config"
	httperrors "github.com/quizforge/quizforge/pkg/http/errors"
)

// NewHTTPServer wires the public routes (welcome, quiz, health, metrics) for
// the API service. poolCount reports the current question pool size for the
// health payload.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, quizHandler http.HandlerFunc, poolCount func(context.Context) (int64, error)) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, map[string]interface{}{
			"status":  "ok",
			"message": "Welcome to the AI Quiz API",
			"endpoints": map[string]string{
				"quiz":    "/quiz",
				"health":  "/healthz",
				"metrics": "/metrics",
			},
		})
	})

	mux.HandleFunc("/quiz", quizHandler)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := pingDependencies(r.Context(), pool, redis); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondServiceUnavailable(w,
				httperrors.ErrCodeServiceUnavailable, "dependency unavailable")
			return
		}
		payload := map[string]interface{}{"status": "ok"}
		if n, err := poolCount(r.Context()); err != nil {
			logger.Warn().Err(err).Msg("pool size check failed")
		} else {
			payload["pool_questions"] = n
		}
		writeJSON(w, payload)
	})

	mux.Handle("/metrics", promhttp.Handler())

	handler := RequestLogger(logger)(Recover(logger)(mux))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
