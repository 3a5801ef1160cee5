// Package postgres implements the repository ports on PostgreSQL via
// pgx. Papers are stored as one row per aggregate with the section tree
// in jsonb; the version column drives optimistic concurrency.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// PaperStore handles paper persistence.
type PaperStore struct {
	pool *pgxpool.Pool
}

// NewPaperStore creates a new PaperStore.
func NewPaperStore(pool *pgxpool.Pool) *PaperStore {
	return &PaperStore{pool: pool}
}

// Create inserts a new paper at version 1.
func (s *PaperStore) Create(ctx context.Context, p *model.Paper) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Version = 1

	sections, err := json.Marshal(p.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}
	pdfs, err := json.Marshal(p.PDFs)
	if err != nil {
		return fmt.Errorf("marshal pdfs: %w", err)
	}

	return s.pool.QueryRow(ctx,
		`INSERT INTO papers (id, tenant_id, company_id, title, template_id, status,
		                     sections, total_marks, total_time, pdfs, version,
		                     created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at, updated_at`,
		p.ID, p.TenantID, p.CompanyID, p.Title, p.TemplateID, p.Status,
		sections, p.TotalMarks, p.TotalTime, pdfs, p.Version,
		p.CreatedBy, p.UpdatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// Load fetches a tenant's paper by id.
func (s *PaperStore) Load(ctx context.Context, tenantID string, id uuid.UUID) (*model.Paper, error) {
	p := &model.Paper{}
	var sections, pdfs []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, company_id, title, template_id, status,
		        sections, total_marks, total_time, pdfs, version,
		        created_by, updated_by, created_at, updated_at
		 FROM papers WHERE tenant_id = $1 AND id = $2`, tenantID, id,
	).Scan(&p.ID, &p.TenantID, &p.CompanyID, &p.Title, &p.TemplateID, &p.Status,
		&sections, &p.TotalMarks, &p.TotalTime, &pdfs, &p.Version,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("paper", id.String())
		}
		return nil, err
	}

	if err := json.Unmarshal(sections, &p.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	if err := json.Unmarshal(pdfs, &p.PDFs); err != nil {
		return nil, fmt.Errorf("unmarshal pdfs: %w", err)
	}
	return p, nil
}

// List returns a page of a tenant's papers, newest first, plus the total.
func (s *PaperStore) List(ctx context.Context, tenantID string, limit, offset int) ([]model.Paper, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM papers WHERE tenant_id = $1`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, company_id, title, template_id, status,
		        sections, total_marks, total_time, pdfs, version,
		        created_by, updated_by, created_at, updated_at
		 FROM papers WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		var sections, pdfs []byte
		if err := rows.Scan(&p.ID, &p.TenantID, &p.CompanyID, &p.Title, &p.TemplateID, &p.Status,
			&sections, &p.TotalMarks, &p.TotalTime, &pdfs, &p.Version,
			&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(sections, &p.Sections); err != nil {
			return nil, 0, fmt.Errorf("unmarshal sections: %w", err)
		}
		if err := json.Unmarshal(pdfs, &p.PDFs); err != nil {
			return nil, 0, fmt.Errorf("unmarshal pdfs: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, total, rows.Err()
}

// Save writes the paper conditionally on expectedVersion and bumps the
// version. A concurrent edit is reported as apperr.ConflictError.
func (s *PaperStore) Save(ctx context.Context, p *model.Paper, expectedVersion int64) error {
	sections, err := json.Marshal(p.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}
	pdfs, err := json.Marshal(p.PDFs)
	if err != nil {
		return fmt.Errorf("marshal pdfs: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE papers
		 SET title = $1, template_id = $2, status = $3, sections = $4,
		     total_marks = $5, total_time = $6, pdfs = $7, updated_by = $8,
		     version = version + 1, updated_at = NOW()
		 WHERE tenant_id = $9 AND id = $10 AND version = $11`,
		p.Title, p.TemplateID, p.Status, sections,
		p.TotalMarks, p.TotalTime, pdfs, p.UpdatedBy,
		p.TenantID, p.ID, expectedVersion)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM papers WHERE tenant_id = $1 AND id = $2)`,
			p.TenantID, p.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("paper", p.ID.String())
		}
		return apperr.Conflict("paper")
	}

	p.Version = expectedVersion + 1
	return nil
}

// Delete removes a tenant's paper.
func (s *PaperStore) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM papers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("paper", id.String())
	}
	return nil
}
