package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// QuestionStore handles question bank access.
type QuestionStore struct {
	pool *pgxpool.Pool
}

// NewQuestionStore creates a new QuestionStore.
func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

// Create inserts a new bank question.
func (s *QuestionStore) Create(ctx context.Context, q *model.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	answerKey, err := json.Marshal(q.AnswerKey)
	if err != nil {
		return fmt.Errorf("marshal answer key: %w", err)
	}

	return s.pool.QueryRow(ctx,
		`INSERT INTO questions (id, tenant_id, type, question_text, options,
		                        answer_key, solution, explanation, marks, usage_paper_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		q.ID, q.TenantID, q.Type, q.Text, options,
		answerKey, q.Solution, q.Explanation, q.Metadata.Marks, q.Usage.PaperCount,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

// FindByID fetches one question by id.
func (s *QuestionStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	var options, answerKey []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, type, question_text, options, answer_key,
		        solution, explanation, marks, usage_paper_count, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.TenantID, &q.Type, &q.Text, &options, &answerKey,
		&q.Solution, &q.Explanation, &q.Metadata.Marks, &q.Usage.PaperCount,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("question", id.String())
		}
		return nil, err
	}

	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	if err := json.Unmarshal(answerKey, &q.AnswerKey); err != nil {
		return nil, fmt.Errorf("unmarshal answer key: %w", err)
	}
	return q, nil
}

// FindMany fetches the questions found for ids; missing ids are omitted.
func (s *QuestionStore) FindMany(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, type, question_text, options, answer_key,
		        solution, explanation, marks, usage_paper_count, created_at, updated_at
		 FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options, answerKey []byte
		if err := rows.Scan(&q.ID, &q.TenantID, &q.Type, &q.Text, &options, &answerKey,
			&q.Solution, &q.Explanation, &q.Metadata.Marks, &q.Usage.PaperCount,
			&q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		if err := json.Unmarshal(answerKey, &q.AnswerKey); err != nil {
			return nil, fmt.Errorf("unmarshal answer key: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// IncrementUsage applies a signed delta to usage_paper_count as a single
// UPDATE, clamped at zero. Never read-modify-write: concurrent edits from
// different papers referencing the same question must not lose updates.
func (s *QuestionStore) IncrementUsage(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions
		 SET usage_paper_count = GREATEST(usage_paper_count + $2, 0), updated_at = NOW()
		 WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("question", id.String())
	}
	return nil
}
