package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/grading"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/repository"
)

// GradingService resolves the questions behind an attempt and hands the
// scoring to the grading package. It never writes to the question store.
type GradingService struct {
	questions repository.QuestionStore
	log       zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(questions repository.QuestionStore, log zerolog.Logger) *GradingService {
	return &GradingService{
		questions: questions,
		log:       log.With().Str("component", "grading_service").Logger(),
	}
}

// GradeAttempt scores the attempt in place. Answers referencing question
// ids the store no longer has grade to nil verdicts rather than failing
// the whole attempt.
func (s *GradingService) GradeAttempt(ctx context.Context, attempt *model.Attempt) error {
	questions, err := s.resolve(ctx, attempt)
	if err != nil {
		return err
	}

	grading.GradeAttempt(attempt, questions)

	s.log.Debug().
		Str("attempt_id", attempt.ID.String()).
		Int("answers", len(attempt.Answers)).
		Msg("Attempt graded")
	return nil
}

// GradeAttemptWithFeedback scores the attempt in place and additionally
// returns per-answer feedback carrying canonical answers and solutions.
func (s *GradingService) GradeAttemptWithFeedback(ctx context.Context, attempt *model.Attempt) ([]grading.Feedback, error) {
	questions, err := s.resolve(ctx, attempt)
	if err != nil {
		return nil, err
	}
	return grading.GradeAttemptForFeedback(attempt, questions), nil
}

func (s *GradingService) resolve(ctx context.Context, attempt *model.Attempt) ([]model.Question, error) {
	seen := make(map[uuid.UUID]bool, len(attempt.Answers))
	ids := make([]uuid.UUID, 0, len(attempt.Answers))
	for _, ans := range attempt.Answers {
		if !seen[ans.QuestionID] {
			seen[ans.QuestionID] = true
			ids = append(ids, ans.QuestionID)
		}
	}

	questions, err := s.questions.FindMany(ctx, ids)
	if err != nil {
		return nil, apperr.Dependency("question store", err)
	}
	return questions, nil
}
