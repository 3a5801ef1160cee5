package grading

import (
	"github.com/google/uuid"

	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// GradeAttempt scores every answer in the attempt against the supplied
// questions, mutating IsCorrect/MarksAwarded in place. Answers whose
// question id is absent from the list (stale or deleted reference) grade
// to nil/nil, and each answer is processed independently so one anomaly
// never aborts the rest. Persistence is the caller's responsibility.
func GradeAttempt(attempt *model.Attempt, questions []model.Question) {
	lookup := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		lookup[questions[i].ID] = &questions[i]
	}

	for i := range attempt.Answers {
		ans := &attempt.Answers[i]

		q, ok := lookup[ans.QuestionID]
		if !ok {
			ans.IsCorrect = nil
			ans.MarksAwarded = nil
			continue
		}

		res := Grade(q.Type, q.AnswerKey, answerMarks(ans, q), ans.Answer)
		ans.IsCorrect = res.IsCorrect
		ans.MarksAwarded = res.MarksAwarded
	}
}

// GradeAttemptForFeedback grades the attempt in place and returns
// per-answer feedback with canonical answers and solutions. Answers with
// unknown question ids produce feedback with nil verdicts.
func GradeAttemptForFeedback(attempt *model.Attempt, questions []model.Question) []Feedback {
	lookup := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		lookup[questions[i].ID] = &questions[i]
	}

	feedback := make([]Feedback, 0, len(attempt.Answers))
	for i := range attempt.Answers {
		ans := &attempt.Answers[i]

		q, ok := lookup[ans.QuestionID]
		if !ok {
			ans.IsCorrect = nil
			ans.MarksAwarded = nil
			feedback = append(feedback, Feedback{QuestionID: ans.QuestionID.String()})
			continue
		}

		fb := GradeForFeedback(q, answerMarks(ans, q), ans.Answer)
		ans.IsCorrect = fb.IsCorrect
		ans.MarksAwarded = fb.MarksAwarded
		feedback = append(feedback, fb)
	}
	return feedback
}

// answerMarks prefers the attempt's recorded max marks, falling back to
// the question's default mark value.
func answerMarks(ans *model.Answer, q *model.Question) float64 {
	if ans.MaxMarks > 0 {
		return ans.MaxMarks
	}
	return q.Metadata.Marks
}
