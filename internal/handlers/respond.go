package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	mw "tradejournal/internal/middleware"
	"tradejournal/internal/models"
)

// maxBodyBytes bounds request bodies. Screenshots travel inline as data URLs, so it is generous.
const maxBodyBytes = 20 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads one JSON value into dst and rejects malformed or trailing data. Unknown
// fields are ignored since imported client data carries fields the server derives itself.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}

// statusOf maps service errors onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Unexpected errors are logged and hidden from the client.
func fail(w http.ResponseWriter, r *http.Request, logger *zap.Logger, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(op,
			zap.Error(err),
			zap.String("request_id", mw.GetRequestID(r.Context())),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, clientMessage(err))
}

// clientMessage strips the sentinel prefix from wrapped errors ("validation failed: name is
// required" becomes "name is required").
func clientMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		apperrors.ErrValidation,
		apperrors.ErrNotFound,
		apperrors.ErrDuplicate,
		apperrors.ErrForbidden,
		apperrors.ErrUnauthorized,
	} {
		if prefix := sentinel.Error() + ": "; strings.HasPrefix(msg, prefix) && errors.Is(err, sentinel) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

// currentUser is set by the auth middleware on every protected route.
func currentUser(r *http.Request) *models.User {
	u, _ := mw.UserFromContext(r.Context())
	return u
}
