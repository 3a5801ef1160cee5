// Package mongostore implements the repository ports on MongoDB. Papers
// live as single documents, so the aggregate write is one UpdateOne
// filtered on {_id, version}; usage counters use atomic single-document
// update operators.
package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
)

// PaperStore handles paper persistence in the papers collection.
type PaperStore struct {
	col *mongo.Collection
}

// NewPaperStore creates a new PaperStore on the given database.
func NewPaperStore(db *mongo.Database) *PaperStore {
	return &PaperStore{col: db.Collection("papers")}
}

type refDoc struct {
	QuestionID     string  `bson:"question_id"`
	QuestionNumber int     `bson:"question_number"`
	Marks          float64 `bson:"marks"`
	IsRequired     bool    `bson:"is_required"`
}

type sectionDoc struct {
	Name      string   `bson:"name"`
	TimeLimit int      `bson:"time_limit"`
	Questions []refDoc `bson:"questions"`
}

type pdfDoc struct {
	ID          string    `bson:"id"`
	JobID       string    `bson:"job_id"`
	FileName    string    `bson:"file_name"`
	URL         string    `bson:"url"`
	GeneratedAt time.Time `bson:"generated_at"`
}

type paperDoc struct {
	ID         string       `bson:"_id"`
	TenantID   string       `bson:"tenant_id"`
	CompanyID  string       `bson:"company_id"`
	Title      string       `bson:"title"`
	TemplateID string       `bson:"template_id,omitempty"`
	Status     string       `bson:"status"`
	Sections   []sectionDoc `bson:"sections"`
	TotalMarks float64      `bson:"total_marks"`
	TotalTime  int          `bson:"total_time"`
	PDFs       []pdfDoc     `bson:"pdfs"`
	Version    int64        `bson:"version"`
	CreatedBy  string       `bson:"created_by"`
	UpdatedBy  string       `bson:"updated_by"`
	CreatedAt  time.Time    `bson:"created_at"`
	UpdatedAt  time.Time    `bson:"updated_at"`
}

// Create inserts a new paper document at version 1.
func (s *PaperStore) Create(ctx context.Context, p *model.Paper) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Version = 1
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.col.InsertOne(ctx, paperToDoc(p))
	return err
}

// Load fetches a tenant's paper by id.
func (s *PaperStore) Load(ctx context.Context, tenantID string, id uuid.UUID) (*model.Paper, error) {
	var doc paperDoc
	err := s.col.FindOne(ctx,
		bson.M{"_id": id.String(), "tenant_id": tenantID},
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("paper", id.String())
		}
		return nil, err
	}
	return docToPaper(&doc)
}

// List returns a page of a tenant's papers, newest first, plus the total.
func (s *PaperStore) List(ctx context.Context, tenantID string, limit, offset int) ([]model.Paper, int, error) {
	filter := bson.M{"tenant_id": tenantID}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var papers []model.Paper
	for cur.Next(ctx) {
		var doc paperDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, err
		}
		p, err := docToPaper(&doc)
		if err != nil {
			return nil, 0, err
		}
		papers = append(papers, *p)
	}
	return papers, int(total), cur.Err()
}

// Save writes the paper only when the stored version still matches
// expectedVersion, incrementing the version in the same update.
func (s *PaperStore) Save(ctx context.Context, p *model.Paper, expectedVersion int64) error {
	doc := paperToDoc(p)
	doc.UpdatedAt = time.Now().UTC()

	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": doc.ID, "tenant_id": doc.TenantID, "version": expectedVersion},
		bson.M{
			"$set": bson.M{
				"title":       doc.Title,
				"template_id": doc.TemplateID,
				"status":      doc.Status,
				"sections":    doc.Sections,
				"total_marks": doc.TotalMarks,
				"total_time":  doc.TotalTime,
				"pdfs":        doc.PDFs,
				"updated_by":  doc.UpdatedBy,
				"updated_at":  doc.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		n, err := s.col.CountDocuments(ctx, bson.M{"_id": doc.ID, "tenant_id": doc.TenantID})
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("paper", p.ID.String())
		}
		return apperr.Conflict("paper")
	}

	p.Version = expectedVersion + 1
	p.UpdatedAt = doc.UpdatedAt
	return nil
}

// Delete removes a tenant's paper document.
func (s *PaperStore) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id.String(), "tenant_id": tenantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("paper", id.String())
	}
	return nil
}

func paperToDoc(p *model.Paper) *paperDoc {
	doc := &paperDoc{
		ID:         p.ID.String(),
		TenantID:   p.TenantID,
		CompanyID:  p.CompanyID,
		Title:      p.Title,
		Status:     string(p.Status),
		Sections:   make([]sectionDoc, 0, len(p.Sections)),
		TotalMarks: p.TotalMarks,
		TotalTime:  p.TotalTime,
		PDFs:       make([]pdfDoc, 0, len(p.PDFs)),
		Version:    p.Version,
		CreatedBy:  p.CreatedBy,
		UpdatedBy:  p.UpdatedBy,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.TemplateID != nil {
		doc.TemplateID = p.TemplateID.String()
	}
	for _, sec := range p.Sections {
		sd := sectionDoc{Name: sec.Name, TimeLimit: sec.TimeLimit, Questions: make([]refDoc, 0, len(sec.Questions))}
		for _, ref := range sec.Questions {
			sd.Questions = append(sd.Questions, refDoc{
				QuestionID:     ref.QuestionID.String(),
				QuestionNumber: ref.QuestionNumber,
				Marks:          ref.Marks,
				IsRequired:     ref.IsRequired,
			})
		}
		doc.Sections = append(doc.Sections, sd)
	}
	for _, a := range p.PDFs {
		doc.PDFs = append(doc.PDFs, pdfDoc{
			ID:          a.ID.String(),
			JobID:       a.JobID,
			FileName:    a.FileName,
			URL:         a.URL,
			GeneratedAt: a.GeneratedAt,
		})
	}
	return doc
}

func docToPaper(doc *paperDoc) (*model.Paper, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}

	p := &model.Paper{
		ID:         id,
		TenantID:   doc.TenantID,
		CompanyID:  doc.CompanyID,
		Title:      doc.Title,
		Status:     model.PaperStatus(doc.Status),
		Sections:   make([]model.Section, 0, len(doc.Sections)),
		TotalMarks: doc.TotalMarks,
		TotalTime:  doc.TotalTime,
		PDFs:       make([]model.PDFArtifact, 0, len(doc.PDFs)),
		Version:    doc.Version,
		CreatedBy:  doc.CreatedBy,
		UpdatedBy:  doc.UpdatedBy,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if doc.TemplateID != "" {
		tid, err := uuid.Parse(doc.TemplateID)
		if err != nil {
			return nil, err
		}
		p.TemplateID = &tid
	}
	for _, sd := range doc.Sections {
		sec := model.Section{Name: sd.Name, TimeLimit: sd.TimeLimit, Questions: make([]model.QuestionRef, 0, len(sd.Questions))}
		for _, rd := range sd.Questions {
			qid, err := uuid.Parse(rd.QuestionID)
			if err != nil {
				return nil, err
			}
			sec.Questions = append(sec.Questions, model.QuestionRef{
				QuestionID:     qid,
				QuestionNumber: rd.QuestionNumber,
				Marks:          rd.Marks,
				IsRequired:     rd.IsRequired,
			})
		}
		p.Sections = append(p.Sections, sec)
	}
	for _, ad := range doc.PDFs {
		aid, err := uuid.Parse(ad.ID)
		if err != nil {
			return nil, err
		}
		p.PDFs = append(p.PDFs, model.PDFArtifact{
			ID:          aid,
			JobID:       ad.JobID,
			FileName:    ad.FileName,
			URL:         ad.URL,
			GeneratedAt: ad.GeneratedAt,
		})
	}
	return p, nil
}
