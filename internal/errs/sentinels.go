// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates a missing, garbled, expired or badly signed credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates a valid identity lacking the role or ownership required.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates a unique constraint violation (token, username or email taken).
	ErrConflict = errors.New("conflict")

	// ErrCorruptCredential indicates a stored password digest that cannot be parsed.
	ErrCorruptCredential = errors.New("corrupt credential")

	// ErrInvalidCredentials is the single login failure; it never says which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken covers unknown, revoked and expired refresh tokens alike.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrBadRequest indicates malformed client input (bad id, missing resource id, self-inquiry).
	ErrBadRequest = errors.New("bad request")
)

// Stable machine-readable codes shared by the REST and GraphQL surfaces.
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL"
)

// Code maps err to its stable code. Credential failures are reported as
// UNAUTHENTICATED; anything unrecognised is INTERNAL.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidRefreshToken):
		return CodeUnauthenticated
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}

var defaultMessage = map[string]string{
	CodeUnauthenticated:  "authentication required",
	CodeForbidden:        "forbidden",
	CodeNotFound:         "not found",
	CodeConflict:         "already exists",
	CodeBadRequest:       "bad request",
	CodeValidationFailed: "validation failed",
	CodeRateLimited:      "too many requests",
	CodeInternal:         "internal server error",
}

// DefaultMessage is the generic client-facing text for code.
func DefaultMessage(code string) string { return defaultMessage[code] }

// PublicMessage returns the text a client may see for err. Client errors
// keep their wrapped detail; internal failures collapse to the generic text.
func PublicMessage(err error) string {
	code := Code(err)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	case errors.Is(err, ErrInvalidRefreshToken):
		return ErrInvalidRefreshToken.Error()
	case code == CodeBadRequest, code == CodeForbidden, code == CodeNotFound, code == CodeConflict:
		return err.Error()
	}
	return defaultMessage[code]
}
