// Package memstore is the in-memory adapter for the repository ports.
// It backs the dev store driver and the service tests: mutex-guarded
// maps, deep copies on the way in and out, and the same optimistic
// version semantics as the durable adapters.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// PaperStore implements repository.PaperStore over a map.
type PaperStore struct {
	mu     sync.Mutex
	papers map[uuid.UUID]*model.Paper
}

// NewPaperStore creates an empty in-memory paper store.
func NewPaperStore() *PaperStore {
	return &PaperStore{papers: make(map[uuid.UUID]*model.Paper)}
}

// Create inserts a new paper at version 1.
func (s *PaperStore) Create(ctx context.Context, p *model.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Version = 1
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	s.papers[p.ID] = clonePaper(p)
	return nil
}

// Load fetches a tenant's paper by id.
func (s *PaperStore) Load(ctx context.Context, tenantID string, id uuid.UUID) (*model.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.papers[id]
	if !ok || p.TenantID != tenantID {
		return nil, apperr.NotFound("paper", id.String())
	}
	return clonePaper(p), nil
}

// List returns a page of a tenant's papers, newest first, plus the total.
func (s *PaperStore) List(ctx context.Context, tenantID string, limit, offset int) ([]model.Paper, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*model.Paper
	for _, p := range s.papers {
		if p.TenantID == tenantID {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]model.Paper, 0, end-offset)
	for _, p := range all[offset:end] {
		page = append(page, *clonePaper(p))
	}
	return page, total, nil
}

// Save writes the paper conditionally on expectedVersion.
func (s *PaperStore) Save(ctx context.Context, p *model.Paper, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.papers[p.ID]
	if !ok || stored.TenantID != p.TenantID {
		return apperr.NotFound("paper", p.ID.String())
	}
	if stored.Version != expectedVersion {
		return apperr.Conflict("paper")
	}

	p.Version = expectedVersion + 1
	p.UpdatedAt = time.Now().UTC()
	p.CreatedAt = stored.CreatedAt
	s.papers[p.ID] = clonePaper(p)
	return nil
}

// Delete removes a tenant's paper.
func (s *PaperStore) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.papers[id]
	if !ok || p.TenantID != tenantID {
		return apperr.NotFound("paper", id.String())
	}
	delete(s.papers, id)
	return nil
}

// QuestionStore implements repository.QuestionStore over a map.
type QuestionStore struct {
	mu        sync.Mutex
	questions map[uuid.UUID]*model.Question
}

// NewQuestionStore creates an empty in-memory question store.
func NewQuestionStore() *QuestionStore {
	return &QuestionStore{questions: make(map[uuid.UUID]*model.Question)}
}

// Create inserts a new bank question.
func (s *QuestionStore) Create(ctx context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now
	s.questions[q.ID] = cloneQuestion(q)
	return nil
}

// FindByID fetches one question by id.
func (s *QuestionStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return nil, apperr.NotFound("question", id.String())
	}
	return cloneQuestion(q), nil
}

// FindMany fetches the questions found for ids; missing ids are omitted.
func (s *QuestionStore) FindMany(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var questions []model.Question
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			questions = append(questions, *cloneQuestion(q))
		}
	}
	return questions, nil
}

// IncrementUsage applies a signed delta to the usage counter, clamped at
// zero, under the store lock.
func (s *QuestionStore) IncrementUsage(ctx context.Context, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return apperr.NotFound("question", id.String())
	}
	q.Usage.PaperCount += delta
	if q.Usage.PaperCount < 0 {
		q.Usage.PaperCount = 0
	}
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func clonePaper(p *model.Paper) *model.Paper {
	cp := *p
	cp.Sections = make([]model.Section, len(p.Sections))
	for i, sec := range p.Sections {
		cp.Sections[i] = sec
		cp.Sections[i].Questions = append([]model.QuestionRef(nil), sec.Questions...)
	}
	cp.PDFs = append([]model.PDFArtifact(nil), p.PDFs...)
	if p.TemplateID != nil {
		tid := *p.TemplateID
		cp.TemplateID = &tid
	}
	return &cp
}

func cloneQuestion(q *model.Question) *model.Question {
	cq := *q
	cq.Options = append([]string(nil), q.Options...)
	cq.AnswerKey.CorrectOptionIndices = append([]int(nil), q.AnswerKey.CorrectOptionIndices...)
	cq.AnswerKey.AcceptedAnswers = append([]string(nil), q.AnswerKey.AcceptedAnswers...)
	if q.AnswerKey.CorrectPairs != nil {
		pairs := make(map[string]string, len(q.AnswerKey.CorrectPairs))
		for k, v := range q.AnswerKey.CorrectPairs {
			pairs[k] = v
		}
		cq.AnswerKey.CorrectPairs = pairs
	}
	if q.AnswerKey.CorrectOptionIndex != nil {
		v := *q.AnswerKey.CorrectOptionIndex
		cq.AnswerKey.CorrectOptionIndex = &v
	}
	if q.AnswerKey.CorrectBool != nil {
		v := *q.AnswerKey.CorrectBool
		cq.AnswerKey.CorrectBool = &v
	}
	if q.AnswerKey.CorrectValue != nil {
		v := *q.AnswerKey.CorrectValue
		cq.AnswerKey.CorrectValue = &v
	}
	return &cq
}
