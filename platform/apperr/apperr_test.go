package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusAndCode(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
		code   string
	}{
		{Validation("bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{BadRequest("bad"), http.StatusBadRequest, "BAD_REQUEST"},
		{NotFound("gone"), http.StatusNotFound, "NOT_FOUND"},
		{Unauthorized("who"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{Forbidden("no"), http.StatusForbidden, "FORBIDDEN"},
		{RateLimited("slow"), http.StatusTooManyRequests, "RATE_LIMITED"},
		{Internal("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{New(KindUnknown, "?"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.status {
			t.Fatalf("%q: expected status %d, got %d", tc.err.Message, tc.status, got)
		}
		if got := tc.err.Code(); got != tc.code {
			t.Fatalf("%q: expected code %s, got %s", tc.err.Message, tc.code, got)
		}
	}
}

func TestGetKindFollowsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NotFound("accommodation not found"))

	if !Is(wrapped, KindNotFound) {
		t.Fatal("expected wrapped error to report KindNotFound")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("expected plain error to report KindUnknown")
	}
}

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	err := Wrap(KindInternal, "query failed", errors.New("conn reset")).WithOp("users.FindByID")

	if got, want := err.Error(), "users.FindByID: query failed: conn reset"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
