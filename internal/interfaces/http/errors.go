package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
)

// Response represents a standard JSON envelope
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Fallback bool        `json:"fallback,omitempty"`
}

// MessageResponse is returned by operations without a document to show
type MessageResponse struct {
	Message string `json:"message"`
}

// errorStatus maps a service error to its HTTP status and fallback hint
func errorStatus(err error) (int, bool) {
	if ae, ok := service.AsArchiveError(err); ok {
		switch ae.Kind {
		case service.ArchiveTimeout:
			return http.StatusRequestTimeout, true
		case service.ArchiveTooLarge:
			return http.StatusRequestEntityTooLarge, true
		default:
			return http.StatusNotFound, false
		}
	}

	switch {
	case service.IsValidation(err):
		return http.StatusBadRequest, false
	case service.IsNotFound(err):
		return http.StatusNotFound, false
	}
	return http.StatusInternalServerError, false
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	status, fallback := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, Response{
		Success:  false,
		Error:    err.Error(),
		Fallback: fallback,
	})
}
