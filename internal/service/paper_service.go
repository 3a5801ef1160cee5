package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/numbering"
	"github.com/evalia-labs/paperdesk-backend/internal/repository"
	"github.com/evalia-labs/paperdesk-backend/internal/response"
)

// Lifecycle error messages surfaced verbatim to callers.
const (
	msgNotDraft     = "Paper must be in draft status"
	msgNotFinalized = "Paper must be in finalized status"
	msgNoSections   = "Paper must have at least one section"
)

// PaperService owns the paper lifecycle state machine: draft-only
// structural edits, finalize/unfinalize/publish transitions, derived
// totals, and the usage-counter discipline against the question store.
//
// Every operation loads the paper, computes the new state, and persists
// it as a single conditional write keyed on the paper's version, so
// concurrent edits of the same paper surface as retryable conflicts.
// Usage-counter deltas and PDF-job submission run after the committed
// write as best-effort side effects: a failure there is logged, never
// rolled back into the caller's result.
type PaperService struct {
	papers    repository.PaperStore
	questions repository.QuestionStore
	queue     repository.JobQueue
	log       zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(
	papers repository.PaperStore,
	questions repository.QuestionStore,
	queue repository.JobQueue,
	log zerolog.Logger,
) *PaperService {
	return &PaperService{
		papers:    papers,
		questions: questions,
		queue:     queue,
		log:       log.With().Str("component", "paper_service").Logger(),
	}
}

// Create inserts a new paper as draft.
func (s *PaperService) Create(ctx context.Context, tenantID, companyID, actor string, req *model.CreatePaperRequest) (*model.Paper, error) {
	paper := &model.Paper{
		TenantID:   tenantID,
		CompanyID:  companyID,
		Title:      req.Title,
		TemplateID: req.TemplateID,
		Status:     model.PaperStatusDraft,
		Sections:   make([]model.Section, 0, len(req.Sections)),
		PDFs:       []model.PDFArtifact{},
		CreatedBy:  actor,
		UpdatedBy:  actor,
	}
	for _, sec := range req.Sections {
		paper.Sections = append(paper.Sections, model.Section{
			Name:      sec.Name,
			TimeLimit: sec.TimeLimit,
			Questions: []model.QuestionRef{},
		})
	}
	paper.TotalMarks, paper.TotalTime = numbering.Totals(paper.Sections)

	if err := s.papers.Create(ctx, paper); err != nil {
		return nil, fmt.Errorf("create paper: %w", err)
	}
	return paper, nil
}

// Get retrieves a tenant's paper by id.
func (s *PaperService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*model.Paper, error) {
	return s.papers.Load(ctx, tenantID, id)
}

// List retrieves a tenant's papers with pagination.
func (s *PaperService) List(ctx context.Context, tenantID string, page, perPage int) ([]model.Paper, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	papers, total, err := s.papers.List(ctx, tenantID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if papers == nil {
		papers = []model.Paper{}
	}

	return papers, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Update modifies a draft paper's title or template reference.
func (s *PaperService) Update(ctx context.Context, tenantID string, id uuid.UUID, actor string, req *model.UpdatePaperRequest) (*model.Paper, error) {
	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		paper.Title = *req.Title
	}
	if req.TemplateID != nil {
		paper.TemplateID = req.TemplateID
	}
	if req.Sections != nil {
		if len(req.Sections) != len(paper.Sections) {
			return nil, apperr.Validationf("sections must describe all %d existing sections", len(paper.Sections))
		}
		for i, sec := range req.Sections {
			paper.Sections[i].Name = sec.Name
			paper.Sections[i].TimeLimit = sec.TimeLimit
		}
	}

	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}
	return paper, nil
}

// Delete removes a draft paper and issues a usage decrement for every
// question reference it still held.
func (s *PaperService) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.papers.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	var decrements []uuid.UUID
	for _, sec := range paper.Sections {
		for _, ref := range sec.Questions {
			decrements = append(decrements, ref.QuestionID)
		}
	}
	s.applyUsageDeltas(ctx, nil, decrements)
	return nil
}

// AddSection appends an empty section to a draft paper.
func (s *PaperService) AddSection(ctx context.Context, tenantID string, id uuid.UUID, actor, name string, timeLimit int) (*model.Paper, error) {
	if timeLimit < 0 {
		return nil, apperr.Validationf("section time limit must not be negative")
	}

	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	paper.Sections = append(paper.Sections, model.Section{
		Name:      name,
		TimeLimit: timeLimit,
		Questions: []model.QuestionRef{},
	})

	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}
	return paper, nil
}

// RemoveSection deletes a section from a draft paper, decrementing usage
// for every reference the section held.
func (s *PaperService) RemoveSection(ctx context.Context, tenantID string, id uuid.UUID, actor string, sectionIndex int) (*model.Paper, error) {
	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	sec, err := section(paper, sectionIndex)
	if err != nil {
		return nil, err
	}

	var decrements []uuid.UUID
	for _, ref := range sec.Questions {
		decrements = append(decrements, ref.QuestionID)
	}

	paper.Sections = append(paper.Sections[:sectionIndex], paper.Sections[sectionIndex+1:]...)

	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}

	s.applyUsageDeltas(ctx, nil, decrements)
	return paper, nil
}

// AddQuestions appends question references to a section of a draft
// paper, numbering them after the existing ones, and issues one +1 usage
// delta per appended reference.
func (s *PaperService) AddQuestions(ctx context.Context, tenantID string, id uuid.UUID, actor string, sectionIndex int, reqs []model.QuestionRefRequest) (*model.Paper, error) {
	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	sec, err := section(paper, sectionIndex)
	if err != nil {
		return nil, err
	}

	refs := make([]model.QuestionRef, 0, len(reqs))
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		if req.Marks <= 0 {
			return nil, apperr.Validationf("question marks must be positive")
		}
		refs = append(refs, model.QuestionRef{
			QuestionID: req.QuestionID,
			Marks:      req.Marks,
			IsRequired: req.IsRequired,
		})
		ids = append(ids, req.QuestionID)
	}

	// Verify the referenced questions exist before touching the paper.
	if err := s.ensureQuestionsExist(ctx, ids); err != nil {
		return nil, err
	}

	increments := numbering.AddQuestions(sec, refs)

	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}

	s.applyUsageDeltas(ctx, increments, nil)
	return paper, nil
}

// RemoveQuestion deletes the reference at a question number, renumbering
// the rest, and issues exactly one -1 usage delta for the removed id.
func (s *PaperService) RemoveQuestion(ctx context.Context, tenantID string, id uuid.UUID, actor string, sectionIndex, questionNumber int) (*model.Paper, error) {
	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	sec, err := section(paper, sectionIndex)
	if err != nil {
		return nil, err
	}

	removed, err := numbering.RemoveQuestion(sec, questionNumber)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}

	s.applyUsageDeltas(ctx, nil, []uuid.UUID{removed})
	return paper, nil
}

// SwapQuestion replaces the reference at a question number in place and
// issues a -1/+1 usage delta pair for the old and new question ids.
func (s *PaperService) SwapQuestion(ctx context.Context, tenantID string, id uuid.UUID, actor string, sectionIndex, questionNumber int, newQuestionID uuid.UUID, newMarks float64) (*model.Paper, error) {
	if newMarks <= 0 {
		return nil, apperr.Validationf("question marks must be positive")
	}

	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	sec, err := section(paper, sectionIndex)
	if err != nil {
		return nil, err
	}

	if err := s.ensureQuestionsExist(ctx, []uuid.UUID{newQuestionID}); err != nil {
		return nil, err
	}

	old, err := numbering.SwapQuestion(sec, questionNumber, newQuestionID, newMarks)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}

	s.applyUsageDeltas(ctx, []uuid.UUID{newQuestionID}, []uuid.UUID{old})
	return paper, nil
}

// Reorder permutes a section's display order without renumbering.
func (s *PaperService) Reorder(ctx context.Context, tenantID string, id uuid.UUID, actor string, sectionIndex int, order []int) (*model.Paper, error) {
	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	sec, err := section(paper, sectionIndex)
	if err != nil {
		return nil, err
	}

	if err := numbering.Reorder(sec, order); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}
	return paper, nil
}

// Finalize transitions a draft paper to finalized and submits a PDF job.
// The job is fire-and-forget: a submission failure is logged, the
// transition stands, and the returned job id is empty.
//
// A paper that was unfinalized and finalized again gets a fresh job; a
// previously queued job is never retracted, so older artifacts remain
// listed alongside the new one.
func (s *PaperService) Finalize(ctx context.Context, tenantID string, id uuid.UUID, actor string) (*model.Paper, string, error) {
	paper, err := s.loadDraft(ctx, tenantID, id)
	if err != nil {
		return nil, "", err
	}

	if len(paper.Sections) == 0 {
		return nil, "", apperr.Validationf(msgNoSections)
	}
	for _, sec := range paper.Sections {
		if len(sec.Questions) == 0 {
			return nil, "", apperr.Validationf("Section %q has no questions", sec.Name)
		}
	}

	paper.Status = model.PaperStatusFinalized
	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, "", err
	}

	jobID, err := s.queue.SubmitPDFJob(ctx, paper.ID, paper.TenantID, paper.CompanyID)
	if err != nil {
		// The transition already committed; eventual consistency gap
		// accepted, the caller gets no job handle.
		s.log.Warn().
			Err(err).
			Str("paper_id", paper.ID.String()).
			Msg("PDF job submission failed after finalize")
		return paper, "", nil
	}

	s.log.Info().
		Str("paper_id", paper.ID.String()).
		Str("job_id", jobID).
		Msg("Paper finalized")
	return paper, jobID, nil
}

// Unfinalize reverts a finalized paper to draft. Already-submitted PDF
// jobs are not retracted.
func (s *PaperService) Unfinalize(ctx context.Context, tenantID string, id uuid.UUID, actor string) (*model.Paper, error) {
	paper, err := s.papers.Load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if paper.Status != model.PaperStatusFinalized {
		return nil, apperr.Statef(msgNotFinalized)
	}

	paper.Status = model.PaperStatusDraft
	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}
	return paper, nil
}

// Publish marks a finalized paper as visible/distributable.
func (s *PaperService) Publish(ctx context.Context, tenantID string, id uuid.UUID, actor string) (*model.Paper, error) {
	paper, err := s.papers.Load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if paper.Status != model.PaperStatusFinalized {
		return nil, apperr.Statef(msgNotFinalized)
	}

	paper.Status = model.PaperStatusPublished
	if err := s.persist(ctx, paper, actor); err != nil {
		return nil, err
	}

	s.log.Info().Str("paper_id", paper.ID.String()).Msg("Paper published")
	return paper, nil
}

// loadDraft loads the paper and enforces draft status for structural
// edits and deletion.
func (s *PaperService) loadDraft(ctx context.Context, tenantID string, id uuid.UUID) (*model.Paper, error) {
	paper, err := s.papers.Load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if paper.Status != model.PaperStatusDraft {
		return nil, apperr.Statef(msgNotDraft)
	}
	return paper, nil
}

// persist recomputes the derived totals from the full section set and
// writes the paper conditionally on the version it was loaded at.
func (s *PaperService) persist(ctx context.Context, paper *model.Paper, actor string) error {
	paper.TotalMarks, paper.TotalTime = numbering.Totals(paper.Sections)
	paper.UpdatedBy = actor
	return s.papers.Save(ctx, paper, paper.Version)
}

// ensureQuestionsExist verifies every id resolves in the question store.
// A store failure aborts the edit before any state change.
func (s *PaperService) ensureQuestionsExist(ctx context.Context, ids []uuid.UUID) error {
	found, err := s.questions.FindMany(ctx, ids)
	if err != nil {
		return apperr.Dependency("question store", err)
	}

	byID := make(map[uuid.UUID]bool, len(found))
	for _, q := range found {
		byID[q.ID] = true
	}
	for _, id := range ids {
		if !byID[id] {
			return apperr.NotFound("question", id.String())
		}
	}
	return nil
}

// applyUsageDeltas issues the atomic +1/-1 counter updates implied by a
// committed structural change. Failures are logged, not raised: the
// structural change already succeeded and the counter converges on the
// next successful update.
func (s *PaperService) applyUsageDeltas(ctx context.Context, increments, decrements []uuid.UUID) {
	for _, id := range increments {
		if err := s.questions.IncrementUsage(ctx, id, 1); err != nil {
			s.log.Warn().
				Err(err).
				Str("question_id", id.String()).
				Msg("Usage increment failed")
		}
	}
	for _, id := range decrements {
		if err := s.questions.IncrementUsage(ctx, id, -1); err != nil {
			s.log.Warn().
				Err(err).
				Str("question_id", id.String()).
				Msg("Usage decrement failed")
		}
	}
}

// section resolves a section by index.
func section(paper *model.Paper, index int) (*model.Section, error) {
	if index < 0 || index >= len(paper.Sections) {
		return nil, apperr.NotFound("section", strconv.Itoa(index))
	}
	return &paper.Sections[index], nil
}
