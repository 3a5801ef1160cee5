package model

import "github.com/google/uuid"

// Answer is one recorded answer inside an attempt. The submitted value is
// polymorphic by question type and arrives as decoded JSON. IsCorrect and
// MarksAwarded stay nil until the grader fills them in; subjective types
// leave them nil for manual grading.
type Answer struct {
	QuestionID   uuid.UUID `json:"question_id" binding:"required"`
	SectionIndex int       `json:"section_index" binding:"min=0"`
	Answer       any       `json:"answer"`
	IsCorrect    *bool     `json:"is_correct"`
	MarksAwarded *float64  `json:"marks_awarded"`
	MaxMarks     float64   `json:"max_marks" binding:"min=0"`
}

// Attempt is a student's submitted set of answers to a paper. The grader
// mutates only IsCorrect/MarksAwarded per answer; persistence belongs to
// the caller.
type Attempt struct {
	ID        uuid.UUID `json:"id"`
	PaperID   uuid.UUID `json:"paper_id"`
	StudentID string    `json:"student_id"`
	Answers   []Answer  `json:"answers"`
}

// GradeAttemptRequest is the payload for grading a submitted attempt.
type GradeAttemptRequest struct {
	PaperID   uuid.UUID `json:"paper_id" binding:"omitempty"`
	StudentID string    `json:"student_id" binding:"omitempty,max=64"`
	Answers   []Answer  `json:"answers" binding:"required,min=1,dive"`
}
