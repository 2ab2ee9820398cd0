package handlers

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/logging"
)

// envelope is the body of every successful response.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// errorEnvelope is the body of every failed response.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindInvalidArgument: http.StatusBadRequest,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindInternal:        http.StatusInternalServerError,
}

// StatusFor maps a failure kind onto its HTTP status.
func StatusFor(kind apperr.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondOK(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	respondJSON(ctx, w, status, envelope{StatusCode: status, Data: data, Message: message, Success: true})
}

// respondError writes err's public message. Causes of internal failures are
// logged, never returned.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if kind == apperr.KindInternal {
		logging.FromContext(ctx).Error("operation failed", "error", err)
	}
	respondJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Kind:       string(kind),
		Message:    apperr.MessageOf(err),
	})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}
