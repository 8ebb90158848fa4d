package quiz

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/quizforge/quizforge/pkg/http/errors"
)

// HTTPHandler exposes the quiz endpoint.
type HTTPHandler struct {
	svc    *Service
	topic  Topic
	logger zerolog.Logger
}

// NewHTTPHandler constructs the quiz HTTP handler. The topic is fixed at
// startup; requests cannot choose their own.
func NewHTTPHandler(svc *Service, topic Topic, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		topic:  topic,
		logger: logger.With().Str("component", "quiz_http").Logger(),
	}
}

// HandleQuiz serves a batch of questions for the configured topic.
// Route: GET /quiz
func (h *HTTPHandler) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batch, err := h.svc.BuildBatch(r.Context(), h.topic)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", h.topic.Key).Msg("quiz batch failed")
		httperrors.RespondError(w, http.StatusInternalServerError,
			httperrors.ErrCodePoolUnavailable, "failed to assemble quiz batch")
		return
	}

	writeJSON(w, batch)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
