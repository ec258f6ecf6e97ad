package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/confetex/taller-backend/pkg/errors"
)

type samplePayload struct {
	Name string `json:"name" validate:"required"`
	Qty  int    `json:"qty" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"polo","qty":3}`))
		var payload samplePayload
		if err := DecodeJSONBody(req, &payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if payload.Name != "polo" || payload.Qty != 3 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"polo","qty":3,"price":1}`))
		var payload samplePayload
		err := DecodeJSONBody(req, &payload)
		if err == nil {
			t.Fatalf("expected error for unknown field")
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("failed validation uses json names", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"qty":0}`))
		var payload samplePayload
		err := DecodeJSONBody(req, &payload)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
		details, ok := typed.Details().(map[string]string)
		if !ok {
			t.Fatalf("expected details map, got %T", typed.Details())
		}
		if _, found := details["name"]; !found {
			t.Fatalf("expected field keyed by json tag, got %v", details)
		}
		if _, found := details["qty"]; !found {
			t.Fatalf("expected qty error, got %v", details)
		}
	})
}

func TestParseQueryInt(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?other=1", nil)
		got, err := ParseQueryInt(req, "limit", 25, 1, 100)
		if err != nil || got != 25 {
			t.Fatalf("expected default 25, got %d err %v", got, err)
		}
	})

	t.Run("value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
		got, err := ParseQueryInt(req, "limit", 25, 1, 100)
		if err != nil || got != 10 {
			t.Fatalf("expected 10, got %d err %v", got, err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
		if _, err := ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
			t.Fatalf("expected range error")
		}
	})

	t.Run("not a number", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
		if _, err := ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}
