package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topic describes one quiz subject: the key stamped on pool rows, a display
// title, and the subject description handed to the generator.
type Topic struct {
	Key    string `yaml:"key"`
	Title  string `yaml:"title"`
	Prompt string `yaml:"prompt"`
}

type topicsFile struct {
	Topics []Topic `yaml:"topics"`
}

// DefaultTopics is the built-in registry used when no topics file is present.
func DefaultTopics() []Topic {
	return []Topic{
		{
			Key:    "information-ai",
			Title:  "Information & AI",
			Prompt: "the Information school subject combined with the fundamentals of artificial intelligence",
		},
	}
}

// LoadTopics reads the topic registry from a YAML file. A missing file falls
// back to the built-in registry; a malformed one is an error.
func LoadTopics(path string) ([]Topic, error) {
	if path == "" {
		return DefaultTopics(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTopics(), nil
		}
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var f topicsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}
	if len(f.Topics) == 0 {
		return nil, fmt.Errorf("topics file %s declares no topics", path)
	}

	seen := make(map[string]struct{}, len(f.Topics))
	for i, t := range f.Topics {
		if t.Key == "" {
			return nil, fmt.Errorf("topic %d has no key", i+1)
		}
		if _, dup := seen[t.Key]; dup {
			return nil, fmt.Errorf("duplicate topic key %q", t.Key)
		}
		seen[t.Key] = struct{}{}
		if t.Prompt == "" {
			return nil, fmt.Errorf("topic %q has no prompt", t.Key)
		}
	}
	return f.Topics, nil
}

// FindTopic returns the registry entry with the given key.
func FindTopic(topics []Topic, key string) (Topic, bool) {
	for _, t := range topics {
		if t.Key == key {
			return t, true
		}
	}
	return Topic{}, false
}
