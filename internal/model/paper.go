package model

import (
	"time"

	"github.com/google/uuid"
)

// PaperStatus enumerates the paper lifecycle states.
type PaperStatus string

const (
	PaperStatusDraft     PaperStatus = "draft"
	PaperStatusFinalized PaperStatus = "finalized"
	PaperStatusPublished PaperStatus = "published"
)

// QuestionRef is a pointer from a section to a bank question. Numbers are
// 1-based, unique, and contiguous within the section; marks may differ
// from the question's default.
type QuestionRef struct {
	QuestionID     uuid.UUID `json:"question_id"`
	QuestionNumber int       `json:"question_number"`
	Marks          float64   `json:"marks"`
	IsRequired     bool      `json:"is_required"`
}

// Section is a named, time-boxed group of question references. Slice
// order is display order; QuestionNumber is a stable identity that does
// not have to follow it.
type Section struct {
	Name      string        `json:"name"`
	TimeLimit int           `json:"time_limit"` // minutes
	Questions []QuestionRef `json:"questions"`
}

// PDFArtifact describes one generated PDF for a paper. Populated
// asynchronously by the PDF worker after finalize.
type PDFArtifact struct {
	ID          uuid.UUID `json:"id"`
	JobID       string    `json:"job_id"`
	FileName    string    `json:"file_name"`
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Paper is an assembled assessment document. TotalMarks and TotalTime are
// derived from the sections and recomputed on every structural change.
// Version is a monotonically increasing edit counter used for optimistic
// concurrency on save.
type Paper struct {
	ID         uuid.UUID     `json:"id"`
	TenantID   string        `json:"tenant_id"`
	CompanyID  string        `json:"company_id"`
	Title      string        `json:"title"`
	TemplateID *uuid.UUID    `json:"template_id,omitempty"`
	Status     PaperStatus   `json:"status"`
	Sections   []Section     `json:"sections"`
	TotalMarks float64       `json:"total_marks"`
	TotalTime  int           `json:"total_time"`
	PDFs       []PDFArtifact `json:"pdfs"`
	Version    int64         `json:"version"`
	CreatedBy  string        `json:"created_by"`
	UpdatedBy  string        `json:"updated_by"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreatePaperRequest is the payload for creating a new draft paper.
type CreatePaperRequest struct {
	Title      string           `json:"title" binding:"required,min=3,max=255"`
	TemplateID *uuid.UUID       `json:"template_id" binding:"omitempty"`
	Sections   []SectionRequest `json:"sections" binding:"omitempty,dive"`
}

// UpdatePaperRequest is the payload for updating a draft paper. Sections,
// when present, updates the name and time limit of every existing section
// in order; it never touches the question references.
type UpdatePaperRequest struct {
	Title      *string          `json:"title" binding:"omitempty,min=3,max=255"`
	TemplateID *uuid.UUID       `json:"template_id" binding:"omitempty"`
	Sections   []SectionRequest `json:"sections" binding:"omitempty,dive"`
}

// SectionRequest is the payload for adding a section to a draft paper.
type SectionRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255"`
	TimeLimit int    `json:"time_limit" binding:"min=0"`
}

// QuestionRefRequest is one question reference in an add-questions payload.
type QuestionRefRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Marks      float64   `json:"marks" binding:"required,gt=0"`
	IsRequired bool      `json:"is_required"`
}

// AddQuestionsRequest is the payload for appending question references
// to a section.
type AddQuestionsRequest struct {
	Questions []QuestionRefRequest `json:"questions" binding:"required,min=1,dive"`
}

// SwapQuestionRequest is the payload for replacing a question reference
// in place.
type SwapQuestionRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Marks      float64   `json:"marks" binding:"required,gt=0"`
}

// ReorderRequest is the payload for permuting a section's display order.
type ReorderRequest struct {
	Order []int `json:"order" binding:"required,min=1"`
}
