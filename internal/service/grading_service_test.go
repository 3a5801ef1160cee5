package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/repository/memstore"
)

func TestGradeAttemptResolvesQuestionsFromStore(t *testing.T) {
	ctx := context.Background()
	questions := memstore.NewQuestionStore()
	svc := NewGradingService(questions, zerolog.Nop())

	correct := 1
	q := &model.Question{
		TenantID:  testTenant,
		Type:      model.QuestionTypeMCQSingle,
		Text:      "pick b",
		Options:   []string{"a", "b"},
		AnswerKey: model.AnswerKey{CorrectOptionIndex: &correct},
		Metadata:  model.QuestionMetadata{Marks: 4},
	}
	require.NoError(t, questions.Create(ctx, q))

	attempt := &model.Attempt{
		ID: uuid.New(),
		Answers: []model.Answer{
			{QuestionID: q.ID, Answer: float64(1)},
			{QuestionID: uuid.New(), Answer: float64(0)}, // stale reference
		},
	}

	require.NoError(t, svc.GradeAttempt(ctx, attempt))

	require.NotNil(t, attempt.Answers[0].IsCorrect)
	assert.True(t, *attempt.Answers[0].IsCorrect)
	assert.Equal(t, 4.0, *attempt.Answers[0].MarksAwarded)

	assert.Nil(t, attempt.Answers[1].IsCorrect)
	assert.Nil(t, attempt.Answers[1].MarksAwarded)
}

func TestGradeAttemptWithFeedbackIncludesSolutions(t *testing.T) {
	ctx := context.Background()
	questions := memstore.NewQuestionStore()
	svc := NewGradingService(questions, zerolog.Nop())

	val := 9.8
	q := &model.Question{
		TenantID:  testTenant,
		Type:      model.QuestionTypeNumerical,
		Text:      "g on Earth?",
		AnswerKey: model.AnswerKey{CorrectValue: &val, Tolerance: 0.1},
		Solution:  "Standard gravity is 9.81 m/s^2.",
		Metadata:  model.QuestionMetadata{Marks: 3},
	}
	require.NoError(t, questions.Create(ctx, q))

	attempt := &model.Attempt{
		ID:      uuid.New(),
		Answers: []model.Answer{{QuestionID: q.ID, Answer: 9.75}},
	}

	feedback, err := svc.GradeAttemptWithFeedback(ctx, attempt)
	require.NoError(t, err)
	require.Len(t, feedback, 1)

	require.NotNil(t, feedback[0].IsCorrect)
	assert.True(t, *feedback[0].IsCorrect)
	assert.Equal(t, 9.8, feedback[0].CorrectAnswer)
	assert.Equal(t, "Standard gravity is 9.81 m/s^2.", feedback[0].Solution)
}
