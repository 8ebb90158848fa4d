package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/quiz"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "models/gemini-2.0-flash"
	defaultTimeout = 12 * time.Second
)

// Config holds connection details for the Gemini API.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements quiz.Generator against the Gemini REST API.
type Client struct {
	httpClient  *http.Client
	config      Config
	logger      zerolog.Logger
	generateURL string
}

var _ quiz.Generator = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:      cfg,
		logger:      logger.With().Str("component", "gemini_client").Logger(),
		generateURL: fmt.Sprintf("%s/v1beta/%s:generateContent", base, cfg.Model),
	}
}

// Generate asks Gemini for one multiple-choice question about the subject.
// Transport, parse, and validation problems all come back as errors; the
// caller decides what an unfilled slot means.
func (c *Client) Generate(ctx context.Context, subject string) (quiz.Payload, error) {
	if c.config.APIKey == "" {
		return quiz.Payload{}, fmt.Errorf("gemini api key not configured")
	}

	gReq := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(subject)}}}},
		GenerationConfig: map[string]interface{}{
			"temperature":      0.4,
			"maxOutputTokens":  1200,
			"responseMimeType": "application/json",
		},
	}
	body, err := json.Marshal(gReq)
	if err != nil {
		return quiz.Payload{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.generateURL+"?key="+url.QueryEscape(c.config.APIKey), bytes.NewReader(body))
	if err != nil {
		return quiz.Payload{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return quiz.Payload{}, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return quiz.Payload{}, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var gResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return quiz.Payload{}, fmt.Errorf("decode gemini payload: %w", err)
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return quiz.Payload{}, fmt.Errorf("gemini returned empty response")
	}

	raw := cleanJSON(gResp.Candidates[0].Content.Parts[0].Text)

	var payload quiz.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return quiz.Payload{}, fmt.Errorf("parse gemini JSON: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return quiz.Payload{}, fmt.Errorf("generated question rejected: %w", err)
	}

	c.logger.Debug().Str("subject", subject).Msg("question generated")
	return payload, nil
}

// cleanJSON strips markdown fences and any stray text around the JSON object
// models occasionally emit.
func cleanJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if i := strings.Index(raw, "{"); i > 0 {
		raw = raw[i:]
	}
	if j := strings.LastIndex(raw, "}"); j > 0 && j+1 < len(raw) {
		raw = raw[:j+1]
	}
	return strings.TrimSpace(raw)
}

func buildPrompt(subject string) string {
	builder := strings.Builder{}
	builder.WriteString("Create a unique and challenging multiple-choice question about ")
	builder.WriteString(subject)
	builder.WriteString(".\n")
	builder.WriteString("Return ONLY valid JSON. No text. No markdown. No commentary.\n")
	builder.WriteString("{\"question\":\"string\",\"options\":[\"a\",\"b\",\"c\",\"d\"],\"answer\":\"string\",\"explanation\":\"string\"}\n")
	builder.WriteString("Rules:\n")
	builder.WriteString("- Exactly one question object, not a list.\n")
	builder.WriteString("- Exactly 4 options.\n")
	builder.WriteString("- Ensure 'answer' appears inside 'options'.\n")
	builder.WriteString("- Keep the explanation to one or two sentences.\n")
	return builder.String()
}

type generateContentRequest struct {
	Contents         []content              `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}
