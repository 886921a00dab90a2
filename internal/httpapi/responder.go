package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

var errBadRequestBody = errors.New("invalid request body")

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeStatus(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	r.writeJSON(ctx, w, status, models.ErrorResponse{
		Status:    "error",
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(ctx),
	})
}

// handleServiceError writes err with the status its kind maps to. Store and
// provider messages are passed through; unexpected errors are not.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := services.ErrorKind(err)
	status := statusFor(kind)

	switch {
	case errors.Is(err, errBadRequestBody):
		kind, status = "bad_request", http.StatusBadRequest
	case errors.Is(err, services.ErrBioRefused), errors.Is(err, services.ErrBioEmpty):
		kind, status = "bio_unavailable", http.StatusBadGateway
	}

	resp := models.ErrorResponse{
		Status:    "error",
		Code:      kind,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(ctx),
	}
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		resp.Message = services.ErrValidation.Error()
		resp.Fields = vErr.FieldErrors
	}

	logger := r.loggerFor(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "status", status, "kind", kind, "error", err)
	} else {
		logger.WarnContext(ctx, "request rejected", "status", status, "kind", kind, "error", err)
	}
	if status == http.StatusInternalServerError {
		resp.Message = http.StatusText(status)
	}
	r.writeJSON(ctx, w, status, resp)
}

func statusFor(kind string) int {
	switch kind {
	case "validation":
		return http.StatusUnprocessableEntity
	case "unauthenticated", "auth_failure":
		return http.StatusUnauthorized
	case "not_ready", "configuration_missing", "storage_unavailable":
		return http.StatusServiceUnavailable
	case "delete_not_confirmed", "save_in_flight", "upload_in_flight":
		return http.StatusConflict
	case "no_file_selected":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "persistence_failed", "transfer_failed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}
