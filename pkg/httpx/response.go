package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every relay error response. Fields is only
// set when request validation fails, keyed by JSON field name.
type ErrorResponse struct {
	Error  string            `json:"error"            example:"event already reported"`
	Fields map[string]string `json:"fields,omitempty" example:"latitude:This field is required"`
} // @name ErrorResponse

// JSON writes v as JSON with the given status code. Responses describe live
// event state, so they are marked uncacheable. Encoding errors are dropped;
// use this for handler responses, not for streaming.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes an ErrorResponse carrying message.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// JSONFieldErrors writes a 422 ErrorResponse listing the rejected fields.
func JSONFieldErrors(w http.ResponseWriter, message string, fields map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: message, Fields: fields})
}

// SafeError returns the message to send for err. Server errors (5xx) are
// replaced by the status text so that database and bus failures stay internal.
func SafeError(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
