package grading

import (
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// Feedback is a graded answer enriched with the canonical correct answer
// and the question's stored solution/explanation text. CorrectAnswer is
// nil for subjective types, which are never auto-graded.
type Feedback struct {
	QuestionID    string   `json:"question_id"`
	IsCorrect     *bool    `json:"is_correct"`
	MarksAwarded  *float64 `json:"marks_awarded"`
	CorrectAnswer any      `json:"correct_answer"`
	Solution      string   `json:"solution,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// GradeForFeedback grades a submitted answer and echoes the canonical
// answer value alongside the question's solution and explanation.
func GradeForFeedback(q *model.Question, marks float64, submitted any) Feedback {
	res := Grade(q.Type, q.AnswerKey, marks, submitted)
	return Feedback{
		QuestionID:    q.ID.String(),
		IsCorrect:     res.IsCorrect,
		MarksAwarded:  res.MarksAwarded,
		CorrectAnswer: canonicalAnswer(q),
		Solution:      q.Solution,
		Explanation:   q.Explanation,
	}
}

// canonicalAnswer extracts the displayable correct answer for a question
// type, or nil when there is none to show.
func canonicalAnswer(q *model.Question) any {
	key := q.AnswerKey
	switch q.Type {
	case model.QuestionTypeMCQSingle:
		if key.CorrectOptionIndex != nil {
			return *key.CorrectOptionIndex
		}
	case model.QuestionTypeMCQMultiple:
		if len(key.CorrectOptionIndices) > 0 {
			return key.CorrectOptionIndices
		}
	case model.QuestionTypeTrueFalse:
		if key.CorrectBool != nil {
			return *key.CorrectBool
		}
	case model.QuestionTypeFillInBlank:
		if len(key.AcceptedAnswers) > 0 {
			return key.AcceptedAnswers
		}
		if key.CorrectText != "" {
			return key.CorrectText
		}
	case model.QuestionTypeNumerical:
		if key.CorrectValue != nil {
			return *key.CorrectValue
		}
	case model.QuestionTypeMatchTheColumn:
		if len(key.CorrectPairs) > 0 {
			return key.CorrectPairs
		}
	}
	return nil
}
