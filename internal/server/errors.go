package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/drewdunne/pullboard/internal/gh"
)

const (
	CodeMissingCredential   = "MISSING_CREDENTIAL"
	CodeRateLimited         = "RATE_LIMITED"
	CodeMalformedRef        = "MALFORMED_REF"
	CodeRemoteRequestFailed = "REMOTE_REQUEST_FAILED"
	CodeTransportFailure    = "TRANSPORT_FAILURE"
	CodeBadRequest          = "BAD_REQUEST"
)

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, log *zap.Logger, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	e := apiError{}
	e.Error.Code = code
	e.Error.Message = message

	if err := json.NewEncoder(w).Encode(e); err != nil {
		log.Error("failed to encode error response", zap.Error(err))
	}
}

// writeClientError maps the client error taxonomy onto HTTP responses.
func writeClientError(w http.ResponseWriter, log *zap.Logger, err error) {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		w.Header().Set("Retry-After", rateErr.Reset.UTC().Format(time.RFC3339))
		writeError(w, log, err.Error(), CodeRateLimited, http.StatusTooManyRequests)
		return
	}

	var refErr *gh.MalformedRefError
	if errors.As(err, &refErr) {
		writeError(w, log, err.Error(), CodeMalformedRef, http.StatusBadRequest)
		return
	}

	var reqErr *gh.RequestError
	if errors.As(err, &reqErr) {
		writeError(w, log, err.Error(), CodeRemoteRequestFailed, http.StatusBadGateway)
		return
	}

	if errors.Is(err, gh.ErrMissingCredential) {
		writeError(w, log, "no credential supplied", CodeMissingCredential, http.StatusUnauthorized)
		return
	}

	writeError(w, log, err.Error(), CodeTransportFailure, http.StatusBadGateway)
}
