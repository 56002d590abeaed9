package validator_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgvalidator "github.com/ghuser/voyagewatch/pkg/validator"
)

type sightingReq struct {
	ID       string   `json:"id"        validate:"omitempty,ulid"`
	Kind     string   `json:"kind"      validate:"required,oneof=STORM PVP"`
	Reporter string   `json:"reporter"  validate:"max=10"`
	Lat      *float64 `json:"latitude"  validate:"required,gte=-90,lte=90"`
	Region   string   `json:"region"    validate:"omitempty,printascii"`
}

func lat(v float64) *float64 { return &v }

func TestValidate_valid(t *testing.T) {
	s := sightingReq{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Kind: "STORM", Lat: lat(10)}
	if err := pkgvalidator.Validate(&s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   sightingReq
		field string
		want  string
	}{
		{"required pointer", sightingReq{Kind: "STORM"}, "latitude", "This field is required"},
		{"required string", sightingReq{Lat: lat(0)}, "kind", "This field is required"},
		{"oneof", sightingReq{Kind: "KRAKEN", Lat: lat(0)}, "kind", "Must be one of: STORM PVP"},
		{"max length", sightingReq{Kind: "PVP", Lat: lat(0), Reporter: "Bartholomew"}, "reporter", "Maximum length is 10"},
		{"lte", sightingReq{Kind: "PVP", Lat: lat(91)}, "latitude", "Must be less than or equal to 90"},
		{"gte", sightingReq{Kind: "PVP", Lat: lat(-91)}, "latitude", "Must be greater than or equal to -90"},
		{"ulid", sightingReq{ID: "not-a-ulid", Kind: "PVP", Lat: lat(0)}, "id", "Must be a valid ULID"},
		{"printascii", sightingReq{Kind: "PVP", Lat: lat(0), Region: "eu-wést"}, "region", "Must contain only printable ASCII characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgvalidator.Validate(&tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			m := pkgvalidator.FormatValidationErrors(err)
			if m[tt.field] != tt.want {
				t.Errorf("%s: got %q, want %q (all: %v)", tt.field, m[tt.field], tt.want, m)
			}
		})
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- ValidateRequest ---

func TestValidateRequest_valid(t *testing.T) {
	body := `{"kind":"PVP","latitude":12.5,"reporter":"Anne"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[sightingReq](w, r)
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if req.Reporter != "Anne" || *req.Lat != 12.5 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestValidateRequest_invalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad json"))
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[sightingReq](w, r)
	if ok {
		t.Fatal("expected ok=false for malformed JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid JSON") {
		t.Errorf("expected 'Invalid JSON' in body, got: %s", w.Body.String())
	}
}

func TestValidateRequest_missingField(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"PVP"}`))
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[sightingReq](w, r)
	if ok {
		t.Fatal("expected ok=false for missing latitude")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "latitude") {
		t.Errorf("expected latitude in field errors, got: %s", w.Body.String())
	}
}
