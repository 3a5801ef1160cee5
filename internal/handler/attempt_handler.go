package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evalia-labs/paperdesk-backend/internal/middleware"
	"github.com/evalia-labs/paperdesk-backend/internal/model"
	"github.com/evalia-labs/paperdesk-backend/internal/response"
	"github.com/evalia-labs/paperdesk-backend/internal/service"
	"github.com/evalia-labs/paperdesk-backend/internal/validator"
)

// AttemptHandler handles attempt grading endpoints.
type AttemptHandler struct {
	gradingService *service.GradingService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(gradingService *service.GradingService) *AttemptHandler {
	return &AttemptHandler{gradingService: gradingService}
}

// GradeAttempt godoc
// POST /api/v1/attempts/grade
// Auto-grades a submitted attempt. Subjective answers come back with nil
// verdicts for manual grading.
func (h *AttemptHandler) GradeAttempt(c *gin.Context) {
	attempt, ok := h.bindAttempt(c)
	if !ok {
		return
	}

	if err := h.gradingService.GradeAttempt(c.Request.Context(), attempt); err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GradeAttemptWithFeedback godoc
// POST /api/v1/attempts/grade/feedback
// Grades an attempt and includes canonical answers and solutions per
// question, for review screens.
func (h *AttemptHandler) GradeAttemptWithFeedback(c *gin.Context) {
	attempt, ok := h.bindAttempt(c)
	if !ok {
		return
	}

	feedback, err := h.gradingService.GradeAttemptWithFeedback(c.Request.Context(), attempt)
	if err != nil {
		respondErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt, "feedback": feedback})
}

func (h *AttemptHandler) bindAttempt(c *gin.Context) (*model.Attempt, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	var req model.GradeAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return nil, false
	}

	return &model.Attempt{
		ID:        uuid.New(),
		PaperID:   req.PaperID,
		StudentID: req.StudentID,
		Answers:   req.Answers,
	}, true
}
