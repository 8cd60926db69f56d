package httpapi

import (
	"encoding/json"
	"net/http"

	"llamactl/internal/supervisor"
	"llamactl/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// errorStatus maps supervisor errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case supervisor.IsConfigInvalid(err):
		return http.StatusBadRequest
	case supervisor.IsModelNotLoaded(err):
		return http.StatusNotFound
	case supervisor.IsNotRunning(err),
		supervisor.IsWrongMode(err),
		supervisor.IsStartInProgress(err),
		supervisor.IsPortInUse(err):
		return http.StatusConflict
	case supervisor.IsCapacityExceeded(err):
		return http.StatusTooManyRequests
	case supervisor.IsBinaryNotFound(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	// StartupTimeout and ProcessCrashed land here too.
	return http.StatusInternalServerError
}

// writeError renders err with its mapped status code.
func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("models_max")
	}
	writeJSONError(w, status, err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
