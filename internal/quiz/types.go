package quiz

import (
	"errors"
	"fmt"
)

// Provenance values for served questions.
const (
	SourceDatabase    = "database"
	SourceAIGenerated = "ai_generated"
)

// OptionCount is the number of choices every playable question carries.
const OptionCount = 4

// Payload is the question content stored in the pool and served to clients.
type Payload struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Validate rejects payloads that would be unplayable: missing text, a wrong
// number of options, or an answer that is not one of the options.
func (p Payload) Validate() error {
	if p.Question == "" {
		return errors.New("question text is empty")
	}
	if len(p.Options) != OptionCount {
		return fmt.Errorf("expected %d options, got %d", OptionCount, len(p.Options))
	}
	for i, opt := range p.Options {
		if opt == "" {
			return fmt.Errorf("option %d is empty", i+1)
		}
	}
	if p.Explanation == "" {
		return errors.New("explanation is empty")
	}
	for _, opt := range p.Options {
		if opt == p.Answer {
			return nil
		}
	}
	return fmt.Errorf("answer %q is not among the options", p.Answer)
}

// Question is a pool record: the stored payload plus bookkeeping columns.
type Question struct {
	ID         int64
	Topic      string
	Payload    Payload
	UsageCount int
}

// BatchItem is one served question together with its provenance.
type BatchItem struct {
	Source string  `json:"source"`
	ID     int64   `json:"id"`
	Quiz   Payload `json:"quiz"`
}

// Batch is the assembled response for one quiz request.
type Batch struct {
	Topic     string      `json:"topic"`
	Count     int         `json:"count"`
	Questions []BatchItem `json:"questions"`
}

// Topic names a question subject and carries the description handed to the
// generator when fresh questions are needed.
type Topic struct {
	Key    string
	Title  string
	Prompt string
}
