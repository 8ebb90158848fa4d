//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
)

type quizItem struct {
	Source string `json:"source"`
	ID     int64  `json:"id,omitempty"`
	Quiz   struct {
		Question    string   `json:"question"`
		Options     []string `json:"options"`
		Answer      string   `json:"answer"`
		Explanation string   `json:"explanation"`
	} `json:"quiz"`
}

type quizBatch struct {
	Topic     string     `json:"topic"`
	Count     int        `json:"count"`
	Questions []quizItem `json:"questions"`
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func fetchQuizBatch(t *testing.T, baseURL string) quizBatch {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/quiz", baseURL))
	if err != nil {
		t.Fatalf("quiz request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected quiz response status: %d, error: %v", resp.StatusCode, errResp)
	}

	var batch quizBatch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		t.Fatalf("decode quiz response failed: %v", err)
	}
	return batch
}

func assertBatchShape(t *testing.T, batch quizBatch) {
	t.Helper()

	if batch.Count != len(batch.Questions) {
		t.Fatalf("count %d does not match %d questions", batch.Count, len(batch.Questions))
	}
	if batch.Count > 5 {
		t.Fatalf("batch holds %d questions, want at most 5", batch.Count)
	}

	for i, item := range batch.Questions {
		if item.Source != "database" && item.Source != "ai_generated" {
			t.Fatalf("question %d has unknown source %q", i, item.Source)
		}
		if item.Source == "database" && item.ID == 0 {
			t.Fatalf("question %d from the database has no id", i)
		}
		if item.Quiz.Question == "" {
			t.Fatalf("question %d has empty text", i)
		}
		if len(item.Quiz.Options) != 4 {
			t.Fatalf("question %d has %d options, want 4", i, len(item.Quiz.Options))
		}
		if item.Quiz.Explanation == "" {
			t.Fatalf("question %d has no explanation", i)
		}

		found := false
		for _, opt := range item.Quiz.Options {
			if opt == item.Quiz.Answer {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("question %d answer %q is not among its options", i, item.Quiz.Answer)
		}
	}
}
