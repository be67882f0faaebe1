package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthenticated, CodeUnauthenticated},
		{fmt.Errorf("verify: %w", ErrUnauthenticated), CodeUnauthenticated},
		{ErrInvalidCredentials, CodeUnauthenticated},
		{ErrInvalidRefreshToken, CodeUnauthenticated},
		{ErrForbidden, CodeForbidden},
		{fmt.Errorf("project 1: %w", ErrNotFound), CodeNotFound},
		{ErrConflict, CodeConflict},
		{ErrBadRequest, CodeBadRequest},
		{ErrRateLimited, CodeRateLimited},
		{ErrCorruptCredential, CodeInternal},
		{errors.New("db down"), CodeInternal},
	}
	for _, c := range cases {
		if got := Code(c.err); got != c.want {
			t.Fatalf("Code(%v)=%q, want %q", c.err, got, c.want)
		}
	}
}

func TestPublicMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("login: %w", ErrInvalidCredentials), "invalid credentials"},
		{fmt.Errorf("lookup: %w", ErrInvalidRefreshToken), "invalid or expired refresh token"},
		{fmt.Errorf("%w: project", ErrNotFound), "not found: project"},
		{fmt.Errorf("verify: %w", ErrUnauthenticated), "authentication required"},
		{fmt.Errorf("select: %w", errors.New("connection reset")), "internal server error"},
		{fmt.Errorf("digest: %w", ErrCorruptCredential), "internal server error"},
	}
	for _, c := range cases {
		if got := PublicMessage(c.err); got != c.want {
			t.Fatalf("PublicMessage(%v)=%q, want %q", c.err, got, c.want)
		}
	}
}
