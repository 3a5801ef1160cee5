package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

func intPtr(n int) *int           { return &n }
func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func requireScored(t *testing.T, res Result, correct bool, awarded float64) {
	t.Helper()
	require.NotNil(t, res.IsCorrect)
	require.NotNil(t, res.MarksAwarded)
	assert.Equal(t, correct, *res.IsCorrect)
	assert.Equal(t, awarded, *res.MarksAwarded)
}

func TestGradeMCQSingle(t *testing.T) {
	key := model.AnswerKey{CorrectOptionIndex: intPtr(2)}

	requireScored(t, Grade(model.QuestionTypeMCQSingle, key, 4, 2), true, 4)
	requireScored(t, Grade(model.QuestionTypeMCQSingle, key, 4, float64(2)), true, 4)
	requireScored(t, Grade(model.QuestionTypeMCQSingle, key, 4, 1), false, 0)
	requireScored(t, Grade(model.QuestionTypeMCQSingle, key, 4, "not a number"), false, 0)
	requireScored(t, Grade(model.QuestionTypeMCQSingle, key, 4, nil), false, 0)
}

func TestGradeMCQMultipleExactSetOnly(t *testing.T) {
	key := model.AnswerKey{CorrectOptionIndices: []int{0, 2, 3}}

	// Order does not matter for set equality.
	requireScored(t, Grade(model.QuestionTypeMCQMultiple, key, 6, []any{float64(3), float64(0), float64(2)}), true, 6)

	// Subset gets zero, no partial credit.
	requireScored(t, Grade(model.QuestionTypeMCQMultiple, key, 6, []any{float64(0), float64(2)}), false, 0)

	// Superset gets zero too.
	requireScored(t, Grade(model.QuestionTypeMCQMultiple, key, 6, []any{float64(0), float64(1), float64(2), float64(3)}), false, 0)

	requireScored(t, Grade(model.QuestionTypeMCQMultiple, key, 6, []any{}), false, 0)
	requireScored(t, Grade(model.QuestionTypeMCQMultiple, key, 6, "0,2,3"), false, 0)
}

func TestGradeTrueFalse(t *testing.T) {
	key := model.AnswerKey{CorrectBool: boolPtr(true)}

	requireScored(t, Grade(model.QuestionTypeTrueFalse, key, 1, true), true, 1)
	requireScored(t, Grade(model.QuestionTypeTrueFalse, key, 1, "true"), true, 1)
	requireScored(t, Grade(model.QuestionTypeTrueFalse, key, 1, false), false, 0)
	requireScored(t, Grade(model.QuestionTypeTrueFalse, key, 1, "yes"), false, 0)
}

func TestGradeFillInBlankNormalization(t *testing.T) {
	key := model.AnswerKey{CorrectText: "Gravity"}

	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, "  gravity  "), true, 2)
	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, "GRAVITY"), true, 2)
	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, "gravitation"), false, 0)
	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, ""), false, 0)
	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, 42), false, 0)
}

func TestGradeFillInBlankAcceptedAnswers(t *testing.T) {
	key := model.AnswerKey{
		CorrectText:     "gravity",
		AcceptedAnswers: []string{"gravity", "gravitation", "Gravitational Force"},
	}

	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, "gravitation"), true, 2)
	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, "gravitational force"), true, 2)
	requireScored(t, Grade(model.QuestionTypeFillInBlank, key, 2, "magnetism"), false, 0)
}

func TestGradeNumericalTolerance(t *testing.T) {
	key := model.AnswerKey{CorrectValue: floatPtr(3.2), Tolerance: 0.05}

	requireScored(t, Grade(model.QuestionTypeNumerical, key, 3, 3.15), true, 3)
	requireScored(t, Grade(model.QuestionTypeNumerical, key, 3, 3.25), true, 3)
	requireScored(t, Grade(model.QuestionTypeNumerical, key, 3, 3.26), false, 0)
	requireScored(t, Grade(model.QuestionTypeNumerical, key, 3, "3.18"), true, 3)
	requireScored(t, Grade(model.QuestionTypeNumerical, key, 3, "three"), false, 0)
}

func TestGradeNumericalDefaultsToExactMatch(t *testing.T) {
	key := model.AnswerKey{CorrectValue: floatPtr(10)}

	requireScored(t, Grade(model.QuestionTypeNumerical, key, 2, float64(10)), true, 2)
	requireScored(t, Grade(model.QuestionTypeNumerical, key, 2, 10.0001), false, 0)
}

func TestGradeMatchTheColumnPartialCredit(t *testing.T) {
	key := model.AnswerKey{CorrectPairs: map[string]string{
		"A": "1", "B": "2", "C": "3",
	}}

	// 2 of 3 pairs matched on a 6-mark question: 6 * 2/3 = 4, incorrect.
	res := Grade(model.QuestionTypeMatchTheColumn, key, 6, map[string]any{
		"A": "1", "B": "2", "C": "9",
	})
	requireScored(t, res, false, 4)

	// Perfect match is the only way to be correct.
	res = Grade(model.QuestionTypeMatchTheColumn, key, 6, map[string]any{
		"A": "1", "B": "2", "C": "3",
	})
	requireScored(t, res, true, 6)

	// Swapped values match only one pair: 6 * 1/3 = 2.
	res = Grade(model.QuestionTypeMatchTheColumn, key, 6, map[string]any{
		"A": "1", "B": "3", "C": "2",
	})
	requireScored(t, res, false, 2)

	// Nothing matched.
	res = Grade(model.QuestionTypeMatchTheColumn, key, 6, map[string]any{
		"A": "9", "B": "9", "C": "9",
	})
	requireScored(t, res, false, 0)
}

func TestGradeMatchTheColumnRoundsHalfUp(t *testing.T) {
	key := model.AnswerKey{CorrectPairs: map[string]string{
		"A": "1", "B": "2",
	}}

	// 5 * 1/2 = 2.5, rounds up to 3.
	res := Grade(model.QuestionTypeMatchTheColumn, key, 5, map[string]string{
		"A": "1", "B": "9",
	})
	requireScored(t, res, false, 3)
}

func TestGradeSubjectiveTypesReturnNilVerdicts(t *testing.T) {
	for _, qt := range []model.QuestionType{
		model.QuestionTypeShortAnswer,
		model.QuestionTypeLongAnswer,
		model.QuestionTypeEssay,
		model.QuestionTypeCreativeWriting,
	} {
		res := Grade(qt, model.AnswerKey{}, 10, "a thoughtful response")
		assert.Nil(t, res.IsCorrect, "type %s", qt)
		assert.Nil(t, res.MarksAwarded, "type %s", qt)
	}
}

func TestGradeUnknownTypeDegradesToManual(t *testing.T) {
	res := Grade(model.QuestionType("diagram_labeling"), model.AnswerKey{}, 5, "anything")
	assert.Nil(t, res.IsCorrect)
	assert.Nil(t, res.MarksAwarded)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3.0, roundHalfUp(2.5))
	assert.Equal(t, 2.0, roundHalfUp(2.4))
	assert.Equal(t, 3.0, roundHalfUp(2.6))
	assert.Equal(t, 0.0, roundHalfUp(0))
}
