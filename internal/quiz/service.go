package quiz

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

// Selection modes for the reuse phase.
const (
	SelectionRandom    = "random"
	SelectionLeastUsed = "least_used"
)

// Defaults applied by NewService when the corresponding option is unset.
const (
	DefaultBatchSize         = 5
	DefaultGrowthProbability = 0.3
	DefaultReuseLimit        = 5
)

// PoolStore opens one transaction per quiz request. Every read and write for
// the request happens inside it and becomes durable only on Commit.
type PoolStore interface {
	Begin(ctx context.Context) (PoolTx, error)
}

// PoolTx is the per-request view of the question pool.
type PoolTx interface {
	RandomSample(ctx context.Context, topic string, limit int) ([]Question, error)
	LeastUsed(ctx context.Context, topic string, maxUsage, limit int) ([]Question, error)
	Insert(ctx context.Context, topic string, payload Payload, usageCount int) (Question, error)
	IncrementUsage(ctx context.Context, id int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Generator produces at most one question per call. Failure is an ordinary
// outcome, not a fault: the policy leaves the slot unfilled and moves on.
type Generator interface {
	Generate(ctx context.Context, subject string) (Payload, error)
}

// GrowthGate serializes growth generations per topic across instances. A nil
// gate admits every growth attempt that wins the probability draw.
type GrowthGate interface {
	TryAcquire(ctx context.Context, topic string) (bool, error)
}

// ServiceOptions tunes the replenishment policy.
type ServiceOptions struct {
	// BatchSize is the number of questions a response aims for.
	BatchSize int
	// GrowthProbability is the chance of minting one extra question when the
	// pool already fills the batch on its own. Zero selects the default;
	// a negative value disables growth.
	GrowthProbability float64
	// InitialUsage seeds usage_count on newly persisted questions.
	InitialUsage int
	// Selection is SelectionRandom (default) or SelectionLeastUsed.
	Selection string
	// ReuseLimit bounds reuse under SelectionLeastUsed: questions with
	// usage_count at or above it stop being sampled. Ignored by
	// SelectionRandom.
	ReuseLimit int
}

// Service assembles quiz batches, replenishing the question pool as it goes.
type Service struct {
	store  PoolStore
	gen    Generator
	gate   GrowthGate
	opts   ServiceOptions
	logger zerolog.Logger

	randFloat func() float64
}

// NewService wires the policy to its collaborators and applies option
// defaults.
func NewService(store PoolStore, gen Generator, gate GrowthGate, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.GrowthProbability == 0 {
		opts.GrowthProbability = DefaultGrowthProbability
	}
	if opts.Selection == "" {
		opts.Selection = SelectionRandom
	}
	if opts.Selection == SelectionLeastUsed && opts.ReuseLimit <= 0 {
		opts.ReuseLimit = DefaultReuseLimit
	}
	if opts.InitialUsage < 0 {
		opts.InitialUsage = 0
	}
	return &Service{
		store:     store,
		gen:       gen,
		gate:      gate,
		opts:      opts,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		randFloat: rand.Float64,
	}
}

// BuildBatch serves one quiz request: sample the pool, mint questions for any
// shortfall, and occasionally mint one extra to grow a saturated pool. All
// pool writes for the request commit together at the end.
func (s *Service) BuildBatch(ctx context.Context, topic Topic) (Batch, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("begin pool transaction: %w", err)
	}

	batch, err := s.assemble(ctx, tx, topic)
	if err != nil {
		_ = tx.Rollback(ctx)
		return Batch{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Batch{}, fmt.Errorf("commit pool updates: %w", err)
	}

	observeBatch(batch)
	s.logger.Debug().
		Str("topic", batch.Topic).
		Int("count", batch.Count).
		Msg("quiz batch served")
	return batch, nil
}

func (s *Service) assemble(ctx context.Context, tx PoolTx, topic Topic) (Batch, error) {
	reused, err := s.sample(ctx, tx, topic.Key)
	if err != nil {
		return Batch{}, fmt.Errorf("sample pool: %w", err)
	}

	items := make([]BatchItem, 0, s.opts.BatchSize)
	for _, q := range reused {
		if err := tx.IncrementUsage(ctx, q.ID); err != nil {
			return Batch{}, fmt.Errorf("increment usage for question %d: %w", q.ID, err)
		}
		items = append(items, BatchItem{Source: SourceDatabase, ID: q.ID, Quiz: q.Payload})
	}

	needed := s.opts.BatchSize - len(items)
	growth := needed == 0 && s.randFloat() < s.opts.GrowthProbability && s.growthAllowed(ctx, topic.Key)
	toGenerate := needed
	if growth {
		toGenerate = 1
	}

	for i := 0; i < toGenerate; i++ {
		payload, genErr := s.gen.Generate(ctx, topic.Prompt)
		if genErr != nil {
			generatorCalls.WithLabelValues(outcomeFailure).Inc()
			s.logger.Warn().
				Err(genErr).
				Str("topic", topic.Key).
				Msg("question generation failed, slot left unfilled")
			continue
		}
		generatorCalls.WithLabelValues(outcomeSuccess).Inc()

		q, insErr := tx.Insert(ctx, topic.Key, payload, s.opts.InitialUsage)
		if insErr != nil {
			return Batch{}, fmt.Errorf("persist generated question: %w", insErr)
		}
		if growth {
			growthGenerations.Inc()
			// The displaced question keeps its usage increment; it only
			// leaves the response, not the pool.
			if len(items) >= s.opts.BatchSize {
				items = items[:len(items)-1]
			}
		}
		items = append(items, BatchItem{Source: SourceAIGenerated, ID: q.ID, Quiz: q.Payload})
	}

	if len(items) > s.opts.BatchSize {
		items = items[:s.opts.BatchSize]
	}
	return Batch{Topic: topic.Key, Count: len(items), Questions: items}, nil
}

func (s *Service) sample(ctx context.Context, tx PoolTx, topic string) ([]Question, error) {
	if s.opts.Selection == SelectionLeastUsed {
		return tx.LeastUsed(ctx, topic, s.opts.ReuseLimit, s.opts.BatchSize)
	}
	return tx.RandomSample(ctx, topic, s.opts.BatchSize)
}

func (s *Service) growthAllowed(ctx context.Context, topic string) bool {
	if s.gate == nil {
		return true
	}
	ok, err := s.gate.TryAcquire(ctx, topic)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("topic", topic).
			Msg("growth gate unavailable, skipping growth")
		return false
	}
	return ok
}
