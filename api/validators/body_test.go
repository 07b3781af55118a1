package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
)

type samplePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","quantity":2}`))

	var dest samplePayload
	if err := DecodeJSONBody(r, &dest); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
	if dest.Email != "a@b.com" || dest.Quantity != 2 {
		t.Fatalf("unexpected decode result %+v", dest)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","quantity":2,"extra":true}`))

	var dest samplePayload
	err := DecodeJSONBody(r, &dest)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldMessages(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"nope","quantity":0}`))

	var dest samplePayload
	err := DecodeJSONBody(r, &dest)
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field detail map, got %T", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected email message %q", details["email"])
	}
	if _, ok := details["quantity"]; !ok {
		t.Fatalf("expected quantity error in %v", details)
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=25", nil)

	got, err := ParseQueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		t.Fatalf("ParseQueryInt: %v", err)
	}
	if got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}

	if got, err := ParseQueryInt(r, "page", 1, 1, 1000); err != nil || got != 1 {
		t.Fatalf("expected default 1, got %d err %v", got, err)
	}

	r = httptest.NewRequest("GET", "/?limit=9999", nil)
	if _, err := ParseQueryInt(r, "limit", 20, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
}
