package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes caps POST request bodies (1 MiB).
const maxBodyBytes int64 = 1 << 20

// envelope is the body of every response.
type envelope struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      any    `json:"result"`
}

// apiError is returned by handlers to answer with a client error status.
// Anything else a handler returns becomes a 500.
type apiError struct {
	status int
	result string
}

func (e *apiError) Error() string {
	return http.StatusText(e.status) + ": " + e.result
}

func newAPIError(status int, result string) error {
	return &apiError{status: status, result: result}
}

var (
	errTooManyRequests  = newAPIError(http.StatusTooManyRequests, "Rate limit exceeded")
	errInvalidSecret    = newAPIError(http.StatusForbidden, "Invalid secret token")
	errInvalidAPIToken  = newAPIError(http.StatusUnauthorized, "Invalid API token")
	errInvalidBody      = newAPIError(http.StatusBadRequest, "Invalid request body")
	errBodyTooLarge     = newAPIError(http.StatusRequestEntityTooLarge, "Request body too large")
	errMethodNotAllowed = newAPIError(http.StatusMethodNotAllowed, "Method not allowed")
	errNotFound         = newAPIError(http.StatusNotFound, "Not found")
)

func writeJSON(w http.ResponseWriter, status int, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		OK:          status < http.StatusBadRequest,
		Description: description(status),
		Result:      result,
	})
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.status, apiErr.result)
		return
	}
	writeJSON(w, http.StatusInternalServerError, "Internal server error")
}

func description(status int) string {
	if status == http.StatusOK {
		return "Success"
	}
	return http.StatusText(status)
}

// decodeJSON reads a size limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.ContentLength > maxBodyBytes {
		return errBodyTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return errInvalidBody
	}
	return nil
}
