package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/queue"
	"github.com/evalia-labs/paperdesk-backend/internal/repository/memstore"
)

const (
	testTenant  = "tenant-1"
	testCompany = "company-1"
	testActor   = "author-1"
)

type fixture struct {
	svc       *PaperService
	papers    *memstore.PaperStore
	questions *memstore.QuestionStore
	jobs      *queue.MemoryQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	papers := memstore.NewPaperStore()
	questions := memstore.NewQuestionStore()
	jobs := queue.NewMemoryQueue()
	return &fixture{
		svc:       NewPaperService(papers, questions, jobs, zerolog.Nop()),
		papers:    papers,
		questions: questions,
		jobs:      jobs,
	}
}

func (f *fixture) seedQuestion(t *testing.T, marks float64) uuid.UUID {
	t.Helper()
	idx := 0
	q := &model.Question{
		TenantID:  testTenant,
		Type:      model.QuestionTypeMCQSingle,
		Text:      "seeded",
		Options:   []string{"a", "b"},
		AnswerKey: model.AnswerKey{CorrectOptionIndex: &idx},
		Metadata:  model.QuestionMetadata{Marks: marks},
	}
	require.NoError(t, f.questions.Create(context.Background(), q))
	return q.ID
}

func (f *fixture) usageCount(t *testing.T, id uuid.UUID) int {
	t.Helper()
	q, err := f.questions.FindByID(context.Background(), id)
	require.NoError(t, err)
	return q.Usage.PaperCount
}

func (f *fixture) createPaper(t *testing.T, sections ...string) *model.Paper {
	t.Helper()
	req := &model.CreatePaperRequest{Title: "Midterm Assessment"}
	for _, name := range sections {
		req.Sections = append(req.Sections, model.SectionRequest{Name: name, TimeLimit: 30})
	}
	paper, err := f.svc.Create(context.Background(), testTenant, testCompany, testActor, req)
	require.NoError(t, err)
	return paper
}

func TestCreatePaperStartsAsDraft(t *testing.T) {
	f := newFixture(t)
	paper := f.createPaper(t, "Physics", "Chemistry")

	assert.Equal(t, model.PaperStatusDraft, paper.Status)
	assert.Equal(t, int64(1), paper.Version)
	assert.Len(t, paper.Sections, 2)
	assert.Equal(t, 0.0, paper.TotalMarks)
	assert.Equal(t, 60, paper.TotalTime)
}

func TestUpdatePaperSectionMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics", "Chemistry")

	title := "Midterm v2"
	paper, err := f.svc.Update(ctx, testTenant, paper.ID, testActor, &model.UpdatePaperRequest{
		Title: &title,
		Sections: []model.SectionRequest{
			{Name: "Physics I", TimeLimit: 45},
			{Name: "Chemistry I", TimeLimit: 20},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Midterm v2", paper.Title)
	assert.Equal(t, "Physics I", paper.Sections[0].Name)
	assert.Equal(t, 65, paper.TotalTime)

	// A partial section list is rejected.
	_, err = f.svc.Update(ctx, testTenant, paper.ID, testActor, &model.UpdatePaperRequest{
		Sections: []model.SectionRequest{{Name: "Only one", TimeLimit: 10}},
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestAddQuestionsUpdatesTotalsAndUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)
	q2 := f.seedQuestion(t, 1)

	paper, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
		{QuestionID: q2, Marks: 6},
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, paper.TotalMarks)
	assert.Equal(t, 1, paper.Sections[0].Questions[0].QuestionNumber)
	assert.Equal(t, 2, paper.Sections[0].Questions[1].QuestionNumber)
	assert.Equal(t, 1, f.usageCount(t, q1))
	assert.Equal(t, 1, f.usageCount(t, q2))

	// Duplicate references count once each.
	paper, err = f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, paper.TotalMarks)
	assert.Equal(t, 2, f.usageCount(t, q1))
}

func TestAddQuestionsUnknownIDLeavesPaperUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: uuid.New(), Marks: 4},
	})
	assert.True(t, apperr.IsNotFound(err))

	reloaded, err := f.svc.Get(ctx, testTenant, paper.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Sections[0].Questions)
	assert.Equal(t, paper.Version, reloaded.Version)
}

func TestRemoveQuestionDecrementsUsageOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)
	q2 := f.seedQuestion(t, 1)

	paper, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
		{QuestionID: q2, Marks: 6},
	})
	require.NoError(t, err)

	paper, err = f.svc.RemoveQuestion(ctx, testTenant, paper.ID, testActor, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, f.usageCount(t, q1))
	assert.Equal(t, 1, f.usageCount(t, q2))
	assert.Equal(t, 6.0, paper.TotalMarks)

	// The survivor renumbers to 1.
	require.Len(t, paper.Sections[0].Questions, 1)
	assert.Equal(t, 1, paper.Sections[0].Questions[0].QuestionNumber)
	assert.Equal(t, q2, paper.Sections[0].Questions[0].QuestionID)
}

func TestSwapQuestionExchangesUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)
	q2 := f.seedQuestion(t, 1)

	paper, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
	})
	require.NoError(t, err)

	paper, err = f.svc.SwapQuestion(ctx, testTenant, paper.ID, testActor, 0, 1, q2, 5)
	require.NoError(t, err)

	assert.Equal(t, 0, f.usageCount(t, q1))
	assert.Equal(t, 1, f.usageCount(t, q2))
	assert.Equal(t, q2, paper.Sections[0].Questions[0].QuestionID)
	assert.Equal(t, 1, paper.Sections[0].Questions[0].QuestionNumber)
	assert.Equal(t, 5.0, paper.TotalMarks)
}

func TestFinalizeRequiresSections(t *testing.T) {
	f := newFixture(t)
	paper := f.createPaper(t)

	_, _, err := f.svc.Finalize(context.Background(), testTenant, paper.ID, testActor)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "Paper must have at least one section", err.Error())
}

func TestFinalizeNamesFirstEmptySection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics", "Chemistry")
	q1 := f.seedQuestion(t, 1)

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
	})
	require.NoError(t, err)

	_, _, err = f.svc.Finalize(ctx, testTenant, paper.ID, testActor)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, `Section "Chemistry" has no questions`, err.Error())
}

func TestFinalizeSubmitsPDFJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
	})
	require.NoError(t, err)

	paper, jobID, err := f.svc.Finalize(ctx, testTenant, paper.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.PaperStatusFinalized, paper.Status)
	assert.NotEmpty(t, jobID)

	jobs := f.jobs.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].JobID)
	assert.Equal(t, paper.ID.String(), jobs[0].PaperID)
	assert.Equal(t, testTenant, jobs[0].TenantID)
}

func TestStructuralEditsRejectedOutsideDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
	})
	require.NoError(t, err)

	_, _, err = f.svc.Finalize(ctx, testTenant, paper.ID, testActor)
	require.NoError(t, err)

	before, err := f.svc.Get(ctx, testTenant, paper.ID)
	require.NoError(t, err)

	_, err = f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 2},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsState(err))
	assert.Equal(t, "Paper must be in draft status", err.Error())

	// The rejected edit changed nothing.
	after, err := f.svc.Get(ctx, testTenant, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.TotalMarks, after.TotalMarks)
	assert.Equal(t, 1, f.usageCount(t, q1))
}

func TestUnfinalizeReturnsToDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
	})
	require.NoError(t, err)

	_, _, err = f.svc.Finalize(ctx, testTenant, paper.ID, testActor)
	require.NoError(t, err)

	paper, err = f.svc.Unfinalize(ctx, testTenant, paper.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.PaperStatusDraft, paper.Status)

	// Draft edits work again.
	_, err = f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 2},
	})
	require.NoError(t, err)
}

func TestPublishRequiresFinalized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)

	_, err := f.svc.Publish(ctx, testTenant, paper.ID, testActor)
	require.Error(t, err)
	assert.True(t, apperr.IsState(err))

	_, err = f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
	})
	require.NoError(t, err)
	_, _, err = f.svc.Finalize(ctx, testTenant, paper.ID, testActor)
	require.NoError(t, err)

	paper, err = f.svc.Publish(ctx, testTenant, paper.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.PaperStatusPublished, paper.Status)
}

func TestDeleteReleasesUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
		{QuestionID: q1, Marks: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.usageCount(t, q1))

	require.NoError(t, f.svc.Delete(ctx, testTenant, paper.ID))
	assert.Equal(t, 0, f.usageCount(t, q1))

	_, err = f.svc.Get(ctx, testTenant, paper.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRemoveSectionReleasesUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics", "Chemistry")
	q1 := f.seedQuestion(t, 1)

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 1, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
	})
	require.NoError(t, err)

	paper, err = f.svc.RemoveSection(ctx, testTenant, paper.ID, testActor, 1)
	require.NoError(t, err)

	assert.Len(t, paper.Sections, 1)
	assert.Equal(t, "Physics", paper.Sections[0].Name)
	assert.Equal(t, 0, f.usageCount(t, q1))
	assert.Equal(t, 30, paper.TotalTime)
}

func TestReorderKeepsNumbersStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paper := f.createPaper(t, "Physics")
	q1 := f.seedQuestion(t, 1)
	q2 := f.seedQuestion(t, 1)

	_, err := f.svc.AddQuestions(ctx, testTenant, paper.ID, testActor, 0, []model.QuestionRefRequest{
		{QuestionID: q1, Marks: 4},
		{QuestionID: q2, Marks: 6},
	})
	require.NoError(t, err)

	paper, err = f.svc.Reorder(ctx, testTenant, paper.ID, testActor, 0, []int{2, 1})
	require.NoError(t, err)

	assert.Equal(t, q2, paper.Sections[0].Questions[0].QuestionID)
	assert.Equal(t, 2, paper.Sections[0].Questions[0].QuestionNumber)
	assert.Equal(t, q1, paper.Sections[0].Questions[1].QuestionID)
	assert.Equal(t, 1, paper.Sections[0].Questions[1].QuestionNumber)
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.createPaper(t, "S")
	}

	papers, pagination, err := f.svc.List(context.Background(), testTenant, 1, 2)
	require.NoError(t, err)
	assert.Len(t, papers, 2)
	assert.Equal(t, 5, pagination.TotalItems)
	assert.Equal(t, 3, pagination.TotalPages)

	papers, _, err = f.svc.List(context.Background(), testTenant, 3, 2)
	require.NoError(t, err)
	assert.Len(t, papers, 1)
}
