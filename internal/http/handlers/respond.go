package handlers

import (
	"net/http"

	"github.com/geocoder89/eventboard/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// APIError is the error body for every JSON route: {"error": ..., "message": ...}.
type APIError struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, title, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, APIError{
		Error:     title,
		Message:   message,
		RequestID: middlewares.RequestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "Bad Request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "Not Found", message, nil)
}

// RespondInternal is used for upstream failures on the read path, title
// names what failed ("Failed to fetch events").
func RespondInternal(ctx *gin.Context, title, message string) {
	RespondError(ctx, http.StatusInternalServerError, title, message, nil)
}
