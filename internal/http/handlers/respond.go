package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/domain/wish"
	"github.com/MarlinZapp/wishes-server/internal/http/middlewares"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString(middlewares.CtxRequestID); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondServiceUnavailable(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusServiceUnavailable, "backend_unavailable", message, nil)
}

// respondOpError maps the error taxonomy of guard-bound operations onto HTTP.
func respondOpError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		RespondUnAuthorized(ctx, "unauthorized", "Missing or invalid Authorization header")
	case errors.Is(err, auth.ErrAuthenticationFailed):
		RespondUnAuthorized(ctx, "unauthorized", "Invalid or expired credential")
	case errors.Is(err, wish.ErrConflict):
		RespondConflict(ctx, "wish_exists", "A wish with this id already exists.")
	case errors.Is(err, session.ErrBackendUnavailable):
		RespondServiceUnavailable(ctx, "Data backend is unavailable. Please retry.")
	default:
		RespondInternal(ctx, "Operation failed")
	}
}
