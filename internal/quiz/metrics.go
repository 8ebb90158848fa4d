package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generator call outcomes.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var (
	generatorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizforge",
		Subsystem: "generator",
		Name:      "calls_total",
		Help:      "Generation attempts partitioned by outcome.",
	}, []string{"outcome"})

	growthGenerations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quizforge",
		Subsystem: "pool",
		Name:      "growth_generations_total",
		Help:      "Questions minted by the probabilistic growth step.",
	})

	servedQuestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizforge",
		Subsystem: "quiz",
		Name:      "served_questions_total",
		Help:      "Questions served to clients partitioned by source.",
	}, []string{"source"})

	batchSizes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quizforge",
		Subsystem: "quiz",
		Name:      "batch_size",
		Help:      "Number of questions in each served batch.",
		Buckets:   prometheus.LinearBuckets(0, 1, 6),
	})

	poolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quizforge",
		Subsystem: "pool",
		Name:      "questions",
		Help:      "Approximate number of persisted questions per topic.",
	}, []string{"topic"})
)

// observeBatch records serving metrics for a committed batch. Every
// ai_generated item in the response corresponds to exactly one committed
// insert, so the pool gauge advances with them.
func observeBatch(b Batch) {
	batchSizes.Observe(float64(b.Count))
	for _, item := range b.Questions {
		servedQuestions.WithLabelValues(item.Source).Inc()
		if item.Source == SourceAIGenerated {
			poolSize.WithLabelValues(b.Topic).Inc()
		}
	}
}

// SetPoolSize re-anchors the per-topic pool gauge from a persisted count, at
// startup and on health probes.
func SetPoolSize(topic string, n int64) {
	poolSize.WithLabelValues(topic).Set(float64(n))
}
