package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/config"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/queue"
	"github.com/evalia-labs/paperdesk-backend/internal/repository"
)

const (
	PdfPollTimeout = 1 * time.Second

	// attachRetries bounds the optimistic-save loop when attaching an
	// artifact descriptor to a paper that is being edited concurrently.
	attachRetries = 3
)

// PDFWorker drains the PDF job queue, renders an outline document for
// each finalized paper, and attaches the artifact descriptor to the
// paper. Rendering failures are logged and the job is requeued once; the
// loop itself never exits on a bad job.
type PDFWorker struct {
	rdb       *redis.Client
	papers    repository.PaperStore
	questions repository.QuestionStore
	cfg       *config.Config
	log       zerolog.Logger
}

// NewPDFWorker creates a new PDFWorker.
func NewPDFWorker(
	rdb *redis.Client,
	papers repository.PaperStore,
	questions repository.QuestionStore,
	cfg *config.Config,
	log zerolog.Logger,
) *PDFWorker {
	return &PDFWorker{
		rdb:       rdb,
		papers:    papers,
		questions: questions,
		cfg:       cfg,
		log:       log.With().Str("component", "pdf_worker").Logger(),
	}
}

func (w *PDFWorker) Start(ctx context.Context) {
	w.log.Info().Msg("PDFWorker started")

	if err := os.MkdirAll(w.cfg.UploadDir, 0o755); err != nil {
		w.log.Error().Err(err).Msg("Cannot create upload dir, worker exiting")
		return
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		default:
			item, err := w.rdb.BLPop(ctx, PdfPollTimeout, config.WorkerKey.PdfJobsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job queue.PDFJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload, dropping job")
				continue
			}

			w.processSafe(ctx, &job, []byte(item[1]))
		}
	}
}

// processSafe renders one job and requeues it once on failure. A job
// that fails twice is dropped with an error log rather than poisoning
// the queue.
func (w *PDFWorker) processSafe(ctx context.Context, job *queue.PDFJob, raw []byte) {
	if err := w.process(ctx, job); err != nil {
		if apperr.IsNotFound(err) {
			w.log.Warn().Str("job_id", job.JobID).Msg("Paper gone, dropping job")
			return
		}

		requeued := w.rdb.RPush(ctx, config.WorkerKey.PdfJobsQueue+":retry", raw).Err() == nil
		w.log.Error().
			Err(err).
			Str("job_id", job.JobID).
			Bool("requeued", requeued).
			Msg("PDF job failed")
	}
}

func (w *PDFWorker) process(ctx context.Context, job *queue.PDFJob) error {
	paperID, err := uuid.Parse(job.PaperID)
	if err != nil {
		return fmt.Errorf("parse paper id: %w", err)
	}

	paper, err := w.papers.Load(ctx, job.TenantID, paperID)
	if err != nil {
		return err
	}

	questions, err := w.loadQuestions(ctx, paper)
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("paper_%s_%s.pdf", paper.ID, job.JobID)
	path := filepath.Join(w.cfg.UploadDir, fileName)

	if err := w.render(paper, questions, path); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	artifact := model.PDFArtifact{
		ID:          uuid.New(),
		JobID:       job.JobID,
		FileName:    fileName,
		URL:         "/uploads/" + fileName,
		GeneratedAt: time.Now().UTC(),
	}

	if err := w.attach(ctx, job.TenantID, paperID, artifact); err != nil {
		return fmt.Errorf("attach artifact: %w", err)
	}

	w.log.Info().
		Str("job_id", job.JobID).
		Str("paper_id", job.PaperID).
		Str("file", fileName).
		Msg("PDF generated")
	return nil
}

func (w *PDFWorker) loadQuestions(ctx context.Context, paper *model.Paper) (map[uuid.UUID]model.Question, error) {
	var ids []uuid.UUID
	for _, sec := range paper.Sections {
		for _, ref := range sec.Questions {
			ids = append(ids, ref.QuestionID)
		}
	}

	list, err := w.questions.FindMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.Question, len(list))
	for _, q := range list {
		byID[q.ID] = q
	}
	return byID, nil
}

// render writes an outline PDF: title, totals, and per section the
// numbered questions with their marks.
func (w *PDFWorker) render(paper *model.Paper, questions map[uuid.UUID]model.Question, path string) error {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	if err := pdf.AddTTFFont("body", w.cfg.PDFFontPath); err != nil {
		return fmt.Errorf("load font: %w", err)
	}

	pdf.AddPage()
	if err := pdf.SetFont("body", "", 18); err != nil {
		return err
	}
	pdf.SetXY(40, 40)
	_ = pdf.Cell(nil, paper.Title)

	if err := pdf.SetFont("body", "", 11); err != nil {
		return err
	}
	pdf.SetXY(40, 70)
	_ = pdf.Cell(nil, fmt.Sprintf("Total marks: %.1f    Total time: %d min", paper.TotalMarks, paper.TotalTime))

	y := 100.0
	for _, sec := range paper.Sections {
		if y > 780 {
			pdf.AddPage()
			y = 40
		}
		if err := pdf.SetFont("body", "", 14); err != nil {
			return err
		}
		pdf.SetXY(40, y)
		_ = pdf.Cell(nil, fmt.Sprintf("%s (%d min)", sec.Name, sec.TimeLimit))
		y += 24

		if err := pdf.SetFont("body", "", 11); err != nil {
			return err
		}
		for _, ref := range sec.Questions {
			if y > 780 {
				pdf.AddPage()
				y = 40
			}
			text := "(question unavailable)"
			if q, ok := questions[ref.QuestionID]; ok {
				text = q.Text
			}
			pdf.SetXY(50, y)
			_ = pdf.Cell(nil, fmt.Sprintf("Q%d. [%.1f] %s", ref.QuestionNumber, ref.Marks, text))
			y += 18
		}
		y += 12
	}

	return pdf.WritePdf(path)
}

// attach appends the artifact descriptor to paper.pdfs with a short
// optimistic retry loop, since authors may be editing concurrently.
func (w *PDFWorker) attach(ctx context.Context, tenantID string, paperID uuid.UUID, artifact model.PDFArtifact) error {
	var lastErr error
	for i := 0; i < attachRetries; i++ {
		paper, err := w.papers.Load(ctx, tenantID, paperID)
		if err != nil {
			return err
		}

		paper.PDFs = append(paper.PDFs, artifact)
		if err := w.papers.Save(ctx, paper, paper.Version); err != nil {
			if apperr.IsConflict(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}
