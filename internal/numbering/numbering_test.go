package numbering

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

func sectionWith(n int) *model.Section {
	sec := &model.Section{Name: "Section A", TimeLimit: 30}
	AddQuestions(sec, makeRefs(n))
	return sec
}

func makeRefs(n int) []model.QuestionRef {
	refs := make([]model.QuestionRef, n)
	for i := range refs {
		refs[i] = model.QuestionRef{QuestionID: uuid.New(), Marks: 2}
	}
	return refs
}

// numbersAreContiguous checks the 1..N invariant over the current slice.
func numbersAreContiguous(t *testing.T, sec *model.Section) {
	t.Helper()
	seen := make(map[int]bool, len(sec.Questions))
	for _, ref := range sec.Questions {
		seen[ref.QuestionNumber] = true
	}
	for n := 1; n <= len(sec.Questions); n++ {
		require.True(t, seen[n], "missing question number %d", n)
	}
}

func TestAddQuestionsAssignsSequentialNumbers(t *testing.T) {
	sec := &model.Section{}

	incs := AddQuestions(sec, makeRefs(3))
	require.Len(t, incs, 3)
	assert.Equal(t, 1, sec.Questions[0].QuestionNumber)
	assert.Equal(t, 2, sec.Questions[1].QuestionNumber)
	assert.Equal(t, 3, sec.Questions[2].QuestionNumber)

	// Appending continues from the current maximum.
	AddQuestions(sec, makeRefs(2))
	assert.Equal(t, 4, sec.Questions[3].QuestionNumber)
	assert.Equal(t, 5, sec.Questions[4].QuestionNumber)
}

func TestRemoveQuestionRenumbers(t *testing.T) {
	sec := sectionWith(5)
	third := sec.Questions[2].QuestionID

	removed, err := RemoveQuestion(sec, 3)
	require.NoError(t, err)
	assert.Equal(t, third, removed)
	require.Len(t, sec.Questions, 4)
	numbersAreContiguous(t, sec)

	// Relative order of the survivors is preserved.
	for i := 1; i < len(sec.Questions); i++ {
		assert.Equal(t, sec.Questions[i-1].QuestionNumber+1, sec.Questions[i].QuestionNumber)
	}
}

func TestRemoveQuestionUnknownNumber(t *testing.T) {
	sec := sectionWith(2)

	_, err := RemoveQuestion(sec, 7)
	assert.True(t, apperr.IsNotFound(err))
	assert.Len(t, sec.Questions, 2)
}

func TestSwapQuestionKeepsNumberAndPosition(t *testing.T) {
	sec := sectionWith(3)
	oldID := sec.Questions[1].QuestionID
	newID := uuid.New()

	swapped, err := SwapQuestion(sec, 2, newID, 7.5)
	require.NoError(t, err)
	assert.Equal(t, oldID, swapped)
	assert.Equal(t, newID, sec.Questions[1].QuestionID)
	assert.Equal(t, 2, sec.Questions[1].QuestionNumber)
	assert.Equal(t, 7.5, sec.Questions[1].Marks)
}

func TestReorderPermutesWithoutRenumbering(t *testing.T) {
	sec := sectionWith(4)
	byNumber := make(map[int]uuid.UUID)
	for _, ref := range sec.Questions {
		byNumber[ref.QuestionNumber] = ref.QuestionID
	}

	require.NoError(t, Reorder(sec, []int{3, 1, 4, 2}))

	assert.Equal(t, byNumber[3], sec.Questions[0].QuestionID)
	assert.Equal(t, 3, sec.Questions[0].QuestionNumber)
	assert.Equal(t, byNumber[1], sec.Questions[1].QuestionID)
	assert.Equal(t, byNumber[4], sec.Questions[2].QuestionID)
	assert.Equal(t, byNumber[2], sec.Questions[3].QuestionID)
}

func TestReorderIsIdempotent(t *testing.T) {
	sec := sectionWith(4)
	order := []int{2, 4, 1, 3}

	require.NoError(t, Reorder(sec, order))
	once := append([]model.QuestionRef(nil), sec.Questions...)
	marksOnce, timeOnce := Totals([]model.Section{*sec})

	require.NoError(t, Reorder(sec, order))
	assert.Equal(t, once, sec.Questions)

	marksTwice, timeTwice := Totals([]model.Section{*sec})
	assert.Equal(t, marksOnce, marksTwice)
	assert.Equal(t, timeOnce, timeTwice)
}

func TestReorderRejectsBadPermutations(t *testing.T) {
	sec := sectionWith(3)

	assert.True(t, apperr.IsValidation(Reorder(sec, []int{1, 2})))
	assert.True(t, apperr.IsValidation(Reorder(sec, []int{1, 2, 5})))
	assert.True(t, apperr.IsValidation(Reorder(sec, []int{1, 2, 2})))

	// A failed reorder leaves the section untouched.
	numbersAreContiguous(t, sec)
}

func TestTotals(t *testing.T) {
	sections := []model.Section{
		{TimeLimit: 30, Questions: []model.QuestionRef{{Marks: 2}, {Marks: 3}}},
		{TimeLimit: 45, Questions: []model.QuestionRef{{Marks: 5.5}}},
		{TimeLimit: 15},
	}

	marks, minutes := Totals(sections)
	assert.Equal(t, 10.5, marks)
	assert.Equal(t, 90, minutes)
}

// TestContiguityUnderRandomEdits hammers a section with random add and
// remove operations and checks the 1..N invariant after every step.
func TestContiguityUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sec := &model.Section{}

	for i := 0; i < 500; i++ {
		if len(sec.Questions) == 0 || rng.Intn(2) == 0 {
			AddQuestions(sec, makeRefs(1+rng.Intn(3)))
		} else {
			target := sec.Questions[rng.Intn(len(sec.Questions))].QuestionNumber
			_, err := RemoveQuestion(sec, target)
			require.NoError(t, err)
		}
		numbersAreContiguous(t, sec)
	}
}
