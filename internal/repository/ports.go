// Package repository defines the persistence ports the core depends on.
// Concrete adapters live in the postgres, mongostore, and memstore
// subpackages; each must provide truly atomic usage-counter deltas so
// concurrent edits from different papers never lose updates.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// PaperStore persists paper aggregates with optimistic concurrency.
type PaperStore interface {
	// Create inserts a new paper and stamps its initial version.
	Create(ctx context.Context, paper *model.Paper) error

	// Load fetches a tenant's paper, including its current version.
	// Returns apperr.NotFoundError when absent.
	Load(ctx context.Context, tenantID string, id uuid.UUID) (*model.Paper, error)

	// List returns a page of a tenant's papers, newest first, plus the
	// total count.
	List(ctx context.Context, tenantID string, limit, offset int) ([]model.Paper, int, error)

	// Save writes the paper only if its stored version still equals
	// expectedVersion, then bumps paper.Version. A concurrent edit
	// surfaces as apperr.ConflictError; the caller may re-fetch and
	// reapply.
	Save(ctx context.Context, paper *model.Paper, expectedVersion int64) error

	// Delete removes a tenant's paper.
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}

// QuestionStore reads bank questions and applies atomic usage deltas.
// Only the usage counter is ever written through this port.
type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) error

	// FindByID returns apperr.NotFoundError when the id is absent.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Question, error)

	// FindMany returns the questions found for ids; missing ids are
	// silently omitted, not an error.
	FindMany(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)

	// IncrementUsage applies a signed delta to the question's
	// usage.paperCount as a single atomic operation, clamped at zero.
	IncrementUsage(ctx context.Context, id uuid.UUID, delta int) error
}

// JobQueue submits background jobs. Submission never blocks on job
// completion; results are observed out of band.
type JobQueue interface {
	// SubmitPDFJob enqueues PDF generation for a finalized paper and
	// returns the job identifier.
	SubmitPDFJob(ctx context.Context, paperID uuid.UUID, tenantID, companyID string) (string, error)
}
