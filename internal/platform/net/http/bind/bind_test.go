package bind

import (
	"net/http/httptest"
	"strings"
	"testing"

	perr "breachwatch/internal/platform/errors"
)

type searchBody struct {
	Limit int    `json:"limit" validate:"omitempty,min=1,max=500"`
	Type  string `json:"type" validate:"omitempty,max=64"`
}

func TestParseJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/records/search", strings.NewReader(`{"limit": 10, "type": "Data leak"}`))
	got, err := ParseJSON[searchBody](r)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.Limit != 10 || got.Type != "Data leak" {
		t.Fatalf("parsed = %+v", got)
	}
}

func TestParseJSONEmptyBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/records/search", strings.NewReader(""))
	if _, err := ParseJSON[searchBody](r); !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v, want JSON error", err)
	}

	// safe methods tolerate an empty body
	r = httptest.NewRequest("GET", "/records/stats", strings.NewReader(""))
	if _, err := ParseJSON[searchBody](r); err != nil {
		t.Fatalf("GET with empty body: %v", err)
	}
}

func TestParseJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/records/search", strings.NewReader(`{"limit": 1, "bogus": true}`))
	if _, err := ParseJSON[searchBody](r); !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v, want JSON error", err)
	}
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	r := httptest.NewRequest("POST", "/records/search", strings.NewReader(`{"limit": 1}{"limit": 2}`))
	if _, err := ParseJSON[searchBody](r); !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v, want JSON error", err)
	}
}

func TestParseJSONValidation(t *testing.T) {
	r := httptest.NewRequest("POST", "/records/search", strings.NewReader(`{"limit": 9999}`))
	_, err := ParseJSON[searchBody](r)
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	e, ok := perr.As(err)
	if !ok || e.Field() != "limit" {
		t.Fatalf("field = %q, want json tag name", e.Field())
	}
}
