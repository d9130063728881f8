package auth

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds          = "INVALID_CREDENTIALS"
	TextCodeAccountDeactivated    = "ACCOUNT_DEACTIVATED"
	TextCodeTooManyAttempts       = "TOO_MANY_ATTEMPTS"
	TextCodeWeakPassword          = "WEAK_PASSWORD"
	TextCodeTokenInvalid          = "TOKEN_INVALID"
	TextCodeIdentityNotFound      = "IDENTITY_NOT_FOUND"
	TextCodeStoreUnavailable      = "STORE_UNAVAILABLE"
	TextCodeDuplicateSessionToken = "DUPLICATE_SESSION_TOKEN"
	TextCodeInvalidRole           = "INVALID_ROLE"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords.
var ErrInvalidCredentials = errors.New(MessageInvalidCredentials, errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountDeactivated is returned for identities whose active flag is off.
var ErrAccountDeactivated = errors.New(MessageAccountDeactivated, errors.CategoryAuth).
	WithTextCode(TextCodeAccountDeactivated).
	WithCode(errors.CodeForbidden)

// ErrWeakPassword is returned by the hasher before any hashing work is done.
var ErrWeakPassword = errors.New("password does not meet the minimum length", errors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(errors.CodeBadRequest)

// ErrTokenInvalid is only used in diagnostics, callers of Verify get nil.
var ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrRateLimitExceeded describes a refused attempt.
var ErrRateLimitExceeded = errors.New(MessageRateLimited, errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(http.StatusTooManyRequests)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrStoreUnavailable wraps persistence failures that bubble up to callers.
var ErrStoreUnavailable = errors.New("store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrDuplicateSessionToken is returned by a SessionRepository when the
// generated token collides with an existing one.
var ErrDuplicateSessionToken = errors.New("session token already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateSessionToken).
	WithCode(errors.CodeConflict)

// ErrInvalidRole is returned when a stored role is outside the closed set.
var ErrInvalidRole = errors.New("unknown or invalid role", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(errors.CodeBadRequest)

func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, ErrStoreUnavailable.Category, message).
		WithTextCode(ErrStoreUnavailable.TextCode).
		WithCode(errors.CodeInternal)
}

// IsStoreUnavailable reports whether err is an infrastructure failure.
func IsStoreUnavailable(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeStoreUnavailable
	}
	return false
}

// IsIdentityNotFound reports whether err signals a missing identity.
func IsIdentityNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrIdentityNotFound) {
		return true
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeIdentityNotFound
	}
	return false
}

// IsInvalidRole reports whether err carries a stored role outside the
// closed set.
func IsInvalidRole(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeInvalidRole
	}
	return false
}
