// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/voyagewatch/pkg/httpx"
	eventdomain "github.com/ghuser/voyagewatch/services/event/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error, whose message is not exposed.
func WriteError(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	httpx.JSONError(w, status, httpx.SafeError(err, status))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, eventdomain.ErrMalformedPayload):
		return http.StatusBadRequest // 400
	case errors.Is(err, eventdomain.ErrEventNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, eventdomain.ErrEventAlreadyReported):
		return http.StatusConflict // 409
	case errors.Is(err, eventdomain.ErrInvalidEvent):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}
