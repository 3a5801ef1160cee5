// Package queue implements the job submission port on a Redis list. The
// PDF worker drains the same list with BLPop.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/evalia-labs/paperdesk-backend/internal/config"
)

// PDFJob is the queue payload for one PDF-generation request.
type PDFJob struct {
	JobID       string    `json:"job_id"`
	PaperID     string    `json:"paper_id"`
	TenantID    string    `json:"tenant_id"`
	CompanyID   string    `json:"company_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RedisQueue submits PDF jobs to a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisQueue creates a new RedisQueue.
func NewRedisQueue(rdb *redis.Client, log zerolog.Logger) *RedisQueue {
	return &RedisQueue{
		rdb: rdb,
		log: log.With().Str("component", "pdf_queue").Logger(),
	}
}

// SubmitPDFJob enqueues PDF generation for a paper and returns the job
// id. Fire-and-forget: submission does not wait on job completion.
func (q *RedisQueue) SubmitPDFJob(ctx context.Context, paperID uuid.UUID, tenantID, companyID string) (string, error) {
	job := PDFJob{
		JobID:       uuid.New().String(),
		PaperID:     paperID.String(),
		TenantID:    tenantID,
		CompanyID:   companyID,
		SubmittedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal pdf job: %w", err)
	}

	if err := q.rdb.RPush(ctx, config.WorkerKey.PdfJobsQueue, raw).Err(); err != nil {
		return "", fmt.Errorf("enqueue pdf job: %w", err)
	}

	q.log.Debug().
		Str("job_id", job.JobID).
		Str("paper_id", job.PaperID).
		Msg("PDF job enqueued")
	return job.JobID, nil
}

// MemoryQueue collects submitted jobs in memory. Used by the memory
// store driver and in tests.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []PDFJob
}

// NewMemoryQueue creates an empty MemoryQueue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// SubmitPDFJob records the job and returns its id.
func (q *MemoryQueue) SubmitPDFJob(ctx context.Context, paperID uuid.UUID, tenantID, companyID string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := PDFJob{
		JobID:       uuid.New().String(),
		PaperID:     paperID.String(),
		TenantID:    tenantID,
		CompanyID:   companyID,
		SubmittedAt: time.Now().UTC(),
	}
	q.jobs = append(q.jobs, job)
	return job.JobID, nil
}

// Jobs returns a snapshot of everything submitted so far.
func (q *MemoryQueue) Jobs() []PDFJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PDFJob(nil), q.jobs...)
}
