package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/voyagewatch/pkg/httpx"
)

func TestJSON_setsHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": "01JH8ZK3V5Q2W9X7Y6M4N1P0RS"})

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	headers := map[string]string{
		"Content-Type":           "application/json; charset=utf-8",
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "no-store",
	}
	for h, want := range headers {
		if got := w.Header().Get(h); got != want {
			t.Errorf("%s: got %q, want %q", h, got, want)
		}
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSONError(w, http.StatusConflict, "event already reported")

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["error"] != "event already reported" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
	if _, ok := body["fields"]; ok {
		t.Errorf("fields must be omitted when empty: %v", body)
	}
}

func TestJSONFieldErrors(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSONFieldErrors(w, "Validation failed", map[string]string{"latitude": "This field is required"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	var body httpx.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Error != "Validation failed" || body.Fields["latitude"] != "This field is required" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestSafeError(t *testing.T) {
	err := errors.New("insert event: pq: connection reset")
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusConflict, err.Error()},
		{http.StatusUnprocessableEntity, err.Error()},
		{http.StatusInternalServerError, "Internal Server Error"},
		{http.StatusServiceUnavailable, "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := httpx.SafeError(err, tt.status); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
