package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evalia-labs/paperdesk-backend/internal/apperr"
	"github.com/evalia-labs/paperdesk-backend/internal/response"
)

// respondErr maps the typed error taxonomy onto HTTP status codes and
// response error codes. Domain errors carry their own message so the
// client sees it verbatim.
func respondErr(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		response.FailMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())
	case apperr.IsState(err):
		response.FailMessage(c, http.StatusConflict, response.ErrPaperState, err.Error())
	case apperr.IsNotFound(err):
		response.FailMessage(c, http.StatusNotFound, response.ErrNotFound, err.Error())
	case apperr.IsConflict(err):
		response.FailMessage(c, http.StatusConflict, response.ErrConflict, err.Error())
	case apperr.IsDependency(err):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrDependency)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
