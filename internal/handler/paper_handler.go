package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evalia-labs/paperdesk-backend/internal/middleware"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/response"
	"github.com/evalia-labs/paperdesk-backend/internal/service"
	"github.com/evalia-labs/paperdesk-backend/internal/validator"
)

// PaperHandler handles paper assembly and lifecycle endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// ListPapers godoc
// GET /api/v1/papers
// Lists the tenant's papers with pagination.
func (h *PaperHandler) ListPapers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	papers, pagination, err := h.paperService.List(c.Request.Context(), claims.TenantID, page, perPage)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"papers": papers}, pagination)
}

// CreatePaper godoc
// POST /api/v1/papers
// Creates a new draft paper, optionally with initial empty sections.
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Create(c.Request.Context(), claims.TenantID, claims.CompanyID, claims.UserID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// GetPaper godoc
// GET /api/v1/papers/:paper_id
func (h *PaperHandler) GetPaper(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	paper, err := h.paperService.Get(c.Request.Context(), claims.TenantID, paperID)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// UpdatePaper godoc
// PATCH /api/v1/papers/:paper_id
// Updates a draft paper's title or template reference.
func (h *PaperHandler) UpdatePaper(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	var req model.UpdatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Update(c.Request.Context(), claims.TenantID, paperID, claims.UserID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// DeletePaper godoc
// DELETE /api/v1/papers/:paper_id
// Deletes a draft paper and releases its question usage.
func (h *PaperHandler) DeletePaper(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	if err := h.paperService.Delete(c.Request.Context(), claims.TenantID, paperID); err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AddSection godoc
// POST /api/v1/papers/:paper_id/sections
func (h *PaperHandler) AddSection(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	var req model.SectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.AddSection(c.Request.Context(), claims.TenantID, paperID, claims.UserID, req.Name, req.TimeLimit)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// RemoveSection godoc
// DELETE /api/v1/papers/:paper_id/sections/:section_index
func (h *PaperHandler) RemoveSection(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	sectionIndex, err := strconv.Atoi(c.Param("section_index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.paperService.RemoveSection(c.Request.Context(), claims.TenantID, paperID, claims.UserID, sectionIndex)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// AddQuestions godoc
// POST /api/v1/papers/:paper_id/sections/:section_index/questions
// Appends question references to a section, numbering them after the
// existing ones.
func (h *PaperHandler) AddQuestions(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	sectionIndex, err := strconv.Atoi(c.Param("section_index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.AddQuestions(c.Request.Context(), claims.TenantID, paperID, claims.UserID, sectionIndex, req.Questions)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// RemoveQuestion godoc
// DELETE /api/v1/papers/:paper_id/sections/:section_index/questions/:question_number
func (h *PaperHandler) RemoveQuestion(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	sectionIndex, err := strconv.Atoi(c.Param("section_index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionNumber, err := strconv.Atoi(c.Param("question_number"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.paperService.RemoveQuestion(c.Request.Context(), claims.TenantID, paperID, claims.UserID, sectionIndex, questionNumber)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// SwapQuestion godoc
// PUT /api/v1/papers/:paper_id/sections/:section_index/questions/:question_number
// Replaces the reference at a question number in place, keeping the number.
func (h *PaperHandler) SwapQuestion(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	sectionIndex, err := strconv.Atoi(c.Param("section_index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionNumber, err := strconv.Atoi(c.Param("question_number"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SwapQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.SwapQuestion(c.Request.Context(), claims.TenantID, paperID, claims.UserID, sectionIndex, questionNumber, req.QuestionID, req.Marks)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// ReorderQuestions godoc
// PUT /api/v1/papers/:paper_id/sections/:section_index/order
// Permutes a section's display order without renumbering.
func (h *PaperHandler) ReorderQuestions(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	sectionIndex, err := strconv.Atoi(c.Param("section_index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReorderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Reorder(c.Request.Context(), claims.TenantID, paperID, claims.UserID, sectionIndex, req.Order)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// FinalizePaper godoc
// POST /api/v1/papers/:paper_id/finalize
// Locks a structurally complete draft and queues PDF generation. The
// job id is empty when queue submission failed; the transition stands
// either way.
func (h *PaperHandler) FinalizePaper(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	paper, jobID, err := h.paperService.Finalize(c.Request.Context(), claims.TenantID, paperID, claims.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper, "pdf_job_id": jobID})
}

// UnfinalizePaper godoc
// POST /api/v1/papers/:paper_id/unfinalize
func (h *PaperHandler) UnfinalizePaper(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	paper, err := h.paperService.Unfinalize(c.Request.Context(), claims.TenantID, paperID, claims.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// PublishPaper godoc
// POST /api/v1/papers/:paper_id/publish
func (h *PaperHandler) PublishPaper(c *gin.Context) {
	claims, paperID, ok := h.scope(c)
	if !ok {
		return
	}

	paper, err := h.paperService.Publish(c.Request.Context(), claims.TenantID, paperID, claims.UserID)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// scope extracts the claims and the paper id path param, writing the
// error response itself when either is missing.
func (h *PaperHandler) scope(c *gin.Context) (*middleware.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	paperID, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}

	return claims, paperID, true
}
