package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question bank types.
type QuestionType string

const (
	QuestionTypeMCQSingle       QuestionType = "mcq_single"
	QuestionTypeMCQMultiple     QuestionType = "mcq_multiple"
	QuestionTypeTrueFalse       QuestionType = "true_false"
	QuestionTypeFillInBlank     QuestionType = "fill_in_blank"
	QuestionTypeNumerical       QuestionType = "numerical"
	QuestionTypeMatchTheColumn  QuestionType = "match_the_column"
	QuestionTypeShortAnswer     QuestionType = "short_answer"
	QuestionTypeLongAnswer      QuestionType = "long_answer"
	QuestionTypeEssay           QuestionType = "essay"
	QuestionTypeCreativeWriting QuestionType = "creative_writing"
)

// SubjectiveTypes are the types that always require manual grading.
var SubjectiveTypes = map[QuestionType]bool{
	QuestionTypeShortAnswer:     true,
	QuestionTypeLongAnswer:      true,
	QuestionTypeEssay:           true,
	QuestionTypeCreativeWriting: true,
}

// AnswerKey holds the type-specific correct-answer content of a question.
// Only the fields relevant to the question's type are populated.
type AnswerKey struct {
	CorrectOptionIndex   *int              `json:"correct_option_index,omitempty"`
	CorrectOptionIndices []int             `json:"correct_option_indices,omitempty"`
	CorrectBool          *bool             `json:"correct_bool,omitempty"`
	CorrectText          string            `json:"correct_text,omitempty"`
	AcceptedAnswers      []string          `json:"accepted_answers,omitempty"`
	CorrectValue         *float64          `json:"correct_value,omitempty"`
	Tolerance            float64           `json:"tolerance,omitempty"`
	CorrectPairs         map[string]string `json:"correct_pairs,omitempty"`
}

// QuestionMetadata carries authoring defaults for a question.
type QuestionMetadata struct {
	Marks float64 `json:"marks"`
}

// QuestionUsage tracks cross-paper reference counts. PaperCount is only
// ever mutated through atomic increments in the question store.
type QuestionUsage struct {
	PaperCount int `json:"paper_count"`
}

// Question is a reusable question bank entry with its answer key.
type Question struct {
	ID          uuid.UUID        `json:"id"`
	TenantID    string           `json:"tenant_id"`
	Type        QuestionType     `json:"type"`
	Text        string           `json:"text"`
	Options     []string         `json:"options,omitempty"`
	AnswerKey   AnswerKey        `json:"answer_key"`
	Solution    string           `json:"solution,omitempty"`
	Explanation string           `json:"explanation,omitempty"`
	Metadata    QuestionMetadata `json:"metadata"`
	Usage       QuestionUsage    `json:"usage"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
