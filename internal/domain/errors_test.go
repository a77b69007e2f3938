package domain

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"testing"
)

func TestAppError_MessageAndCause(t *testing.T) {
	cause := errors.New("sql: no rows in result set")
	withCause := NewAppError(CodeNotFound, "product not found", cause)
	if got := withCause.Error(); got != "product not found: sql: no rows in result set" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(withCause, cause) {
		t.Error("errors.Is should reach the cause")
	}

	bare := NewAppError(CodePrecondition, "tag must be trashed first", nil)
	if got := bare.Error(); got != "tag must be trashed first" {
		t.Errorf("Error() = %q", got)
	}
	if bare.Unwrap() != nil {
		t.Error("Unwrap() should be nil without a cause")
	}
}

// Each kind is checked through a sentinel, a fresh AppError with the same
// code and a wrapped form, so helpers never depend on pointer identity.
func TestErrorKinds(t *testing.T) {
	tests := []struct {
		sentinel *AppError
		is       func(error) bool
		status   int
		kind     string
	}{
		{ErrNotFound, IsNotFound, http.StatusNotFound, "not-found"},
		{ErrAlreadyExists, IsAlreadyExists, http.StatusConflict, "already-exists"},
		{ErrValidation, IsValidation, http.StatusBadRequest, "validation"},
		{ErrConflict, IsConflict, http.StatusConflict, "conflict"},
		{ErrPrecondition, IsPrecondition, http.StatusPreconditionFailed, "precondition"},
		{ErrUnauthorized, IsUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrForbidden, IsForbidden, http.StatusForbidden, "forbidden"},
		{ErrInternal, IsInternal, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			forms := map[string]error{
				"sentinel": tt.sentinel,
				"fresh":    NewAppError(tt.sentinel.Code, "category slug taken", nil),
				"wrapped":  fmt.Errorf("update category: %w", tt.sentinel),
			}
			for name, err := range forms {
				if !tt.is(err) {
					t.Errorf("%s: Is helper returned false", name)
				}
				if got := HTTPStatusCode(err); got != tt.status {
					t.Errorf("%s: HTTPStatusCode = %d; want %d", name, got, tt.status)
				}
				if got := Kind(err); got != tt.kind {
					t.Errorf("%s: Kind = %q; want %q", name, got, tt.kind)
				}
			}

			for _, other := range tests {
				if other.sentinel.Code != tt.sentinel.Code && other.is(tt.sentinel) {
					t.Errorf("%s matched by the %s helper", tt.kind, other.kind)
				}
			}
		})
	}
}

func TestNonAppErrors(t *testing.T) {
	plain := errors.New("connection refused")
	for name, is := range map[string]func(error) bool{
		"IsNotFound": IsNotFound, "IsAlreadyExists": IsAlreadyExists, "IsValidation": IsValidation,
		"IsInternal": IsInternal, "IsConflict": IsConflict, "IsPrecondition": IsPrecondition,
	} {
		if is(plain) || is(nil) {
			t.Errorf("%s should be false for plain and nil errors", name)
		}
	}

	for _, err := range []error{plain, nil, NewAppError(999, "unknown", nil)} {
		if got := HTTPStatusCode(err); got != http.StatusInternalServerError {
			t.Errorf("HTTPStatusCode(%v) = %d; want 500", err, got)
		}
	}
	if Kind(nil) != "ok" || Kind(plain) != "internal" {
		t.Errorf("Kind(nil)=%q Kind(plain)=%q", Kind(nil), Kind(plain))
	}
}

func TestNewValidationError_KeepsAllFields(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("name", "required")
	fields.Add("name", "min=2")
	fields.Add("seo.canonicalUrl", "url")

	err := NewValidationError(fields)
	if !IsValidation(err) {
		t.Fatal("expected validation error")
	}

	got := FieldErrorsOf(fmt.Errorf("create: %w", err))
	if len(got["name"]) != 2 {
		t.Errorf("name messages = %v; want 2 entries", got["name"])
	}
	if want := []string{"name", "seo.canonicalUrl"}; !slices.Equal(got.Fields(), want) {
		t.Errorf("Fields() = %v; want %v", got.Fields(), want)
	}
}

func TestFieldErrors_Merge(t *testing.T) {
	a := FieldErrors{"name": {"required"}}
	b := FieldErrors{"name": {"max=100"}, "slug": {"required"}}
	a.Merge(b)

	if len(a["name"]) != 2 || len(a["slug"]) != 1 {
		t.Errorf("unexpected merge result: %v", a)
	}
}
