package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trip-service/internal/apperrors"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	ErrorCode        string            `json:"errorCode"`
	Message          string            `json:"message"`
	Status           int               `json:"status"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// respondError maps an error to the uniform error body. Unrecognized errors
// become a 500 with a generic message.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		c.JSON(appErr.Status, ErrorResponse{
			ErrorCode: appErr.Code,
			Message:   appErr.Message,
			Status:    appErr.Status,
			Path:      c.Request.URL.Path,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: "INTERNAL_ERROR",
		Message:   "an unexpected error occurred",
		Status:    http.StatusInternalServerError,
		Path:      c.Request.URL.Path,
	})
}

// respondValidation maps field-level binding failures to a 400 body.
func respondValidation(c *gin.Context, message string, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		ErrorCode:        "VALIDATION_ERROR",
		Message:          message,
		Status:           http.StatusBadRequest,
		Path:             c.Request.URL.Path,
		ValidationErrors: fields,
	})
}
