package apihandlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dynai/internal/models"
	"dynai/internal/predictor"
)

// APIError defines standard error response
// Example: { "error": { "code": "bad_request", "message": "Invalid ID" } }
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// JSONError sends a structured error response
func JSONError(ctx *gin.Context, status int, code, msg string) {
	ctx.AbortWithStatusJSON(status, errorResponse{Error: APIError{Code: code, Message: msg}})
}

// Convenience wrappers
func BadRequest(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusBadRequest, "bad_request", msg)
}

func NotFound(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusNotFound, "not_found", msg)
}

func Internal(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusInternalServerError, "internal_error", msg)
}

func Conflict(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusConflict, "conflict", msg)
}

func BadGateway(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusBadGateway, "upstream_error", msg)
}

// RespondError maps domain and predictor errors onto HTTP statuses.
func RespondError(ctx *gin.Context, err error) {
	var statusErr *predictor.StatusError
	switch {
	case errors.Is(err, models.ErrUnknownMessage):
		NotFound(ctx, err.Error())
	case errors.Is(err, models.ErrNoCheckpoint),
		errors.Is(err, models.ErrNoSession),
		errors.Is(err, models.ErrSessionActive):
		Conflict(ctx, err.Error())
	case errors.Is(err, models.ErrInvalidState):
		Internal(ctx, err.Error())
	case errors.Is(err, models.ErrMessageNotAssigned):
		BadGateway(ctx, err.Error())
	case errors.As(err, &statusErr) && statusErr.Throttled():
		JSONError(ctx, http.StatusServiceUnavailable, "upstream_throttled", err.Error())
	case errors.As(err, &statusErr):
		BadGateway(ctx, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		JSONError(ctx, http.StatusGatewayTimeout, "upstream_timeout", err.Error())
	default:
		log.Errorf("%s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
		Internal(ctx, err.Error())
	}
}
