package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validQuestionJSON = `{"question":"Which gate inverts its input?","options":["AND","OR","NOT","XOR"],"answer":"NOT","explanation":"A NOT gate outputs the complement of its input."}`

func candidateBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		Model:   "models/test",
		BaseURL: server.URL,
	}, zerolog.Nop())
}

func TestGenerateReturnsValidatedQuestion(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateContentRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(candidateBody(t, validQuestionJSON))
	})

	payload, err := client.Generate(context.Background(), "logic gates")
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/test:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "logic gates")
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "Return ONLY valid JSON")

	assert.Equal(t, "Which gate inverts its input?", payload.Question)
	assert.Equal(t, "NOT", payload.Answer)
	assert.Len(t, payload.Options, 4)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody(t, "```json\n"+validQuestionJSON+"\n```"))
	})

	payload, err := client.Generate(context.Background(), "logic gates")
	require.NoError(t, err)
	assert.Equal(t, "NOT", payload.Answer)
}

func TestGenerateStripsSurroundingChatter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody(t, "Sure, here is your question:\n"+validQuestionJSON+"\nHope that helps!"))
	})

	payload, err := client.Generate(context.Background(), "logic gates")
	require.NoError(t, err)
	assert.Equal(t, "NOT", payload.Answer)
}

func TestGenerateRejectsMalformedQuestion(t *testing.T) {
	threeOptions := `{"question":"Pick one","options":["A","B","C"],"answer":"A","explanation":"short"}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody(t, threeOptions))
	})

	_, err := client.Generate(context.Background(), "logic gates")
	require.Error(t, err)
	assert.ErrorContains(t, err, "generated question rejected")
}

func TestGenerateRejectsAnswerOutsideOptions(t *testing.T) {
	badAnswer := `{"question":"Pick one","options":["A","B","C","D"],"answer":"E","explanation":"short"}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody(t, badAnswer))
	})

	_, err := client.Generate(context.Background(), "logic gates")
	require.Error(t, err)
	assert.ErrorContains(t, err, "generated question rejected")
}

func TestGenerateFailsOnUpstreamStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), "logic gates")
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 429")
}

func TestGenerateFailsOnEmptyCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := client.Generate(context.Background(), "logic gates")
	require.Error(t, err)
	assert.ErrorContains(t, err, "empty response")
}

func TestGenerateFailsOnUnparseableText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateBody(t, "I could not think of a question today."))
	})

	_, err := client.Generate(context.Background(), "logic gates")
	require.Error(t, err)
}

func TestGenerateTimesOutOnSlowUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write(candidateBody(t, validQuestionJSON))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIKey:  "test-key",
		Model:   "models/test",
		BaseURL: server.URL,
		Timeout: 30 * time.Millisecond,
	}, zerolog.Nop())

	_, err := client.Generate(context.Background(), "logic gates")
	require.Error(t, err)
	assert.ErrorContains(t, err, "gemini request failed")
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL}, zerolog.Nop())

	_, err := client.Generate(context.Background(), "logic gates")
	require.Error(t, err)
	assert.ErrorContains(t, err, "api key not configured")
	assert.False(t, called)
}
