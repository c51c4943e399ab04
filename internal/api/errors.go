package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fraudscore/internal/errors"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// StatusFor maps an application error code to an HTTP status
func StatusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeInvalidInput, apperrors.CodeValidationError:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeModelNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	if code == "UNKNOWN" {
		code = apperrors.CodeInternalError
	}
	c.AbortWithStatusJSON(StatusFor(err), ErrorResponse{Error: code, Detail: err.Error()})
}
