package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quizforge/quizforge/internal/quiz"
)

// pgPool is the subset of pgxpool.Pool the repository uses.
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// QuestionRepository provides transactional access to the question pool.
type QuestionRepository struct {
	pool pgPool
}

func NewQuestionRepository(pool pgPool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Begin opens the per-request pool transaction.
func (r *QuestionRepository) Begin(ctx context.Context) (quiz.PoolTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PoolTx{tx: tx}, nil
}

// CountByTopic reports how many questions the pool holds for a topic.
func (r *QuestionRepository) CountByTopic(ctx context.Context, topic string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE topic = $1`,
		topic).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

// pgxTx is the subset of pgx.Tx the transaction helpers use.
type pgxTx interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PoolTx carries one request's pool reads and pending writes.
type PoolTx struct {
	tx pgxTx
}

var _ quiz.PoolTx = (*PoolTx)(nil)

// RandomSample returns up to limit questions for the topic in random order,
// with no usage filter.
func (t *PoolTx) RandomSample(ctx context.Context, topic string, limit int) ([]quiz.Question, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, topic, data, usage_count FROM questions WHERE topic = $1 ORDER BY random() LIMIT $2`,
		topic, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample questions: %w", err)
	}
	return scanQuestions(rows)
}

// LeastUsed returns up to limit questions below the usage threshold, least
// used first.
func (t *PoolTx) LeastUsed(ctx context.Context, topic string, maxUsage, limit int) ([]quiz.Question, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, topic, data, usage_count FROM questions WHERE topic = $1 AND usage_count < $2 ORDER BY usage_count ASC LIMIT $3`,
		topic, maxUsage, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query least used questions: %w", err)
	}
	return scanQuestions(rows)
}

// Insert stores a freshly generated question. The assigned id is visible to
// the caller immediately, before the surrounding transaction commits.
func (t *PoolTx) Insert(ctx context.Context, topic string, payload quiz.Payload, usageCount int) (quiz.Question, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return quiz.Question{}, fmt.Errorf("failed to encode question payload: %w", err)
	}
	q := quiz.Question{Topic: topic, Payload: payload, UsageCount: usageCount}
	err = t.tx.QueryRow(ctx,
		`INSERT INTO questions (topic, data, usage_count) VALUES ($1, $2, $3) RETURNING id`,
		topic, data, usageCount).Scan(&q.ID)
	if err != nil {
		return quiz.Question{}, fmt.Errorf("failed to insert question: %w", err)
	}
	return q, nil
}

// IncrementUsage bumps a question's usage counter. The bump is durable once
// the transaction commits.
func (t *PoolTx) IncrementUsage(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE questions SET usage_count = usage_count + 1 WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("failed to increment usage count: %w", err)
	}
	return nil
}

// Commit flushes every pending write for the request at once.
func (t *PoolTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Rollback discards the request's pending writes. Calling it on a finished
// transaction is a no-op.
func (t *PoolTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback: %w", err)
	}
	return nil
}

func scanQuestions(rows pgx.Rows) ([]quiz.Question, error) {
	defer rows.Close()

	var out []quiz.Question
	for rows.Next() {
		var (
			q    quiz.Question
			data []byte
		)
		if err := rows.Scan(&q.ID, &q.Topic, &data, &q.UsageCount); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal(data, &q.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode question payload: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return out, nil
}
