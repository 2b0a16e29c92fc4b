package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tablebook/tablebook/internal/dao"
	"github.com/tablebook/tablebook/internal/observability/logger"
	"github.com/tablebook/tablebook/internal/security/authn"
)

// errorResponse is the JSON error body sent to clients.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps the repository/authentication error taxonomy onto HTTP
// statuses. Internal shapes (programming errors, storage failures) are logged
// and returned without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed", logger.Err(err))
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Code: code, Message: msg})
}

func statusFor(err error) (int, string) {
	switch {
	case dao.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case dao.IsConflict(err):
		return http.StatusConflict, "conflict"
	case dao.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case dao.IsValidation(err):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, authn.ErrUnknownIdentity):
		return http.StatusUnauthorized, "unknown_identity"
	case errors.Is(err, authn.ErrBadCredentials):
		return http.StatusUnauthorized, "bad_credentials"
	case errors.Is(err, dao.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
