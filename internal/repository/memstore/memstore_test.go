package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

func TestPaperStoreOptimisticSave(t *testing.T) {
	ctx := context.Background()
	store := NewPaperStore()

	p := &model.Paper{TenantID: "t1", Title: "Quiz", Status: model.PaperStatusDraft}
	require.NoError(t, store.Create(ctx, p))
	require.Equal(t, int64(1), p.Version)

	// Two loads of the same version simulate concurrent editors.
	first, err := store.Load(ctx, "t1", p.ID)
	require.NoError(t, err)
	second, err := store.Load(ctx, "t1", p.ID)
	require.NoError(t, err)

	first.Title = "Quiz v2"
	require.NoError(t, store.Save(ctx, first, first.Version))
	assert.Equal(t, int64(2), first.Version)

	second.Title = "Quiz v3"
	err = store.Save(ctx, second, second.Version)
	assert.True(t, apperr.IsConflict(err))

	// The loser re-fetches and succeeds.
	fresh, err := store.Load(ctx, "t1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quiz v2", fresh.Title)
	fresh.Title = "Quiz v3"
	require.NoError(t, store.Save(ctx, fresh, fresh.Version))
}

func TestPaperStoreSaveMissingPaperIsNotFound(t *testing.T) {
	store := NewPaperStore()
	p := &model.Paper{ID: uuid.New(), TenantID: "t1"}
	err := store.Save(context.Background(), p, 1)
	assert.True(t, apperr.IsNotFound(err))
}

func TestPaperStoreTenantIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewPaperStore()

	p := &model.Paper{TenantID: "t1", Title: "Quiz"}
	require.NoError(t, store.Create(ctx, p))

	_, err := store.Load(ctx, "t2", p.ID)
	assert.True(t, apperr.IsNotFound(err))

	err = store.Delete(ctx, "t2", p.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestPaperStoreReturnsDeepCopies(t *testing.T) {
	ctx := context.Background()
	store := NewPaperStore()

	p := &model.Paper{
		TenantID: "t1",
		Sections: []model.Section{{Name: "A", Questions: []model.QuestionRef{
			{QuestionID: uuid.New(), QuestionNumber: 1, Marks: 2},
		}}},
	}
	require.NoError(t, store.Create(ctx, p))

	loaded, err := store.Load(ctx, "t1", p.ID)
	require.NoError(t, err)
	loaded.Sections[0].Questions[0].Marks = 99

	again, err := store.Load(ctx, "t1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, again.Sections[0].Questions[0].Marks)
}

func TestQuestionStoreUsageClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()

	q := &model.Question{TenantID: "t1", Type: model.QuestionTypeTrueFalse}
	require.NoError(t, store.Create(ctx, q))

	require.NoError(t, store.IncrementUsage(ctx, q.ID, 2))
	require.NoError(t, store.IncrementUsage(ctx, q.ID, -5))

	got, err := store.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Usage.PaperCount)
}

func TestQuestionStoreFindManyOmitsMissing(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()

	q := &model.Question{TenantID: "t1", Type: model.QuestionTypeEssay}
	require.NoError(t, store.Create(ctx, q))

	found, err := store.FindMany(ctx, []uuid.UUID{q.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, q.ID, found[0].ID)
}
