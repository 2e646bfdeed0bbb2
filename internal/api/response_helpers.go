// internal/api/response_helpers.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rakshaklabs/rakshak-console/internal/errors"
)

// APIResponse is the standard envelope for JSON responses.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError carries a machine-readable code beside the message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseHelper renders the response envelopes.
type ResponseHelper struct{}

// NewResponseHelper creates a response helper.
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success renders a 200 envelope.
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// Error renders an error envelope with the given status.
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, &APIResponse{
		Success: false,
		Error: &APIError{
			Code:    errorCode,
			Message: message,
		},
		Timestamp: time.Now(),
	})
}

// BadRequest renders a 400 error.
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string) {
	rh.Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// NotFound renders a 404 error.
func (rh *ResponseHelper) NotFound(c *gin.Context, message string) {
	rh.Error(c, http.StatusNotFound, "NOT_FOUND", message)
}

// InternalError renders a 500 error.
func (rh *ResponseHelper) InternalError(c *gin.Context, message string) {
	rh.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// AppError maps a typed application error onto the HTTP surface.
// Precondition violations are the caller's fault; everything the
// engine did wrong surfaces as a gateway-style failure.
func (rh *ResponseHelper) AppError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		rh.InternalError(c, err.Error())
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypePrecondition:
		rh.Error(c, http.StatusBadRequest, appErr.Code, appErr.Message)
	case apperrors.ErrorTypeNetwork, apperrors.ErrorTypeService:
		rh.Error(c, http.StatusBadGateway, appErr.Code, appErr.Message)
	case apperrors.ErrorTypeMalformed:
		rh.Error(c, http.StatusBadGateway, appErr.Code, appErr.Message)
	default:
		rh.Error(c, http.StatusInternalServerError, appErr.Code, appErr.Message)
	}
}

// DownloadResponse forces a browser download of binary content.
func (rh *ResponseHelper) DownloadResponse(c *gin.Context, content []byte, filename string, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Length", fmt.Sprintf("%d", len(content)))
	c.Data(http.StatusOK, contentType, content)
}
