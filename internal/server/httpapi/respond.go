package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/services"
)

const (
	msgNotAuthenticated = "Not authenticated"
	msgInvalidToken     = "Invalid token"
	msgInvalidCreds     = "Invalid credentials"
	msgRateLimited      = "Too many failed login attempts. Please try again later."
	msgInvalidBody      = "Invalid request body"
	msgInternal         = "Internal server error"
)

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeError maps service errors to status codes. Anything unexpected is
// logged and answered with a generic 500.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	var nf *common.NotFoundError

	switch {
	case errors.As(err, &ve):
		writeErrorMessage(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &nf):
		writeErrorMessage(w, http.StatusNotFound, nf.Message)
	case errors.Is(err, common.ErrorNotFound):
		writeErrorMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeErrorMessage(w, http.StatusBadRequest, services.MsgUserExists)
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeErrorMessage(w, http.StatusUnauthorized, msgInvalidCreds)
	case errors.Is(err, common.ErrorUnauthenticated):
		writeErrorMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
	case errors.Is(err, common.ErrorRateLimited):
		writeErrorMessage(w, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, common.ErrorUpstreamUnavailable):
		writeErrorMessage(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, common.ErrorAPIKeyMissing):
		writeErrorMessage(w, http.StatusInternalServerError, common.ErrorAPIKeyMissing.Error())
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeErrorMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeJSON reads the request body into v, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}
