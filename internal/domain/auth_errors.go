package domain

import (
	"errors"
	"net/http"
)

// AuthErrorKind enumerates the closed set of auth flow failures.
type AuthErrorKind string

const (
	KindUnauthenticated   AuthErrorKind = "unauthenticated"
	KindInvalidDomain     AuthErrorKind = "invalid_domain"
	KindInvalidToken      AuthErrorKind = "invalid_token"
	KindTokenExpired      AuthErrorKind = "token_expired"
	KindTokenAlreadyUsed  AuthErrorKind = "token_already_used"
	KindDomainMismatch    AuthErrorKind = "domain_mismatch"
	KindMissingCredential AuthErrorKind = "missing_credential"
	KindInternal          AuthErrorKind = "internal"
)

// AuthError is a tagged auth flow failure carrying its HTTP mapping.
// Handlers decode it once at the boundary instead of switching on
// error strings.
type AuthError struct {
	Kind    AuthErrorKind
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Is makes two AuthErrors of the same kind match under errors.Is,
// so sentinel comparison works across wrapped copies.
func (e *AuthError) Is(target error) bool {
	var other *AuthError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

var (
	ErrUnauthenticated = &AuthError{
		Kind:    KindUnauthenticated,
		Status:  http.StatusUnauthorized,
		Message: "not authenticated",
	}
	ErrInvalidDomain = &AuthError{
		Kind:    KindInvalidDomain,
		Status:  http.StatusNotFound,
		Message: "domain is not a registered community",
	}
	ErrInvalidToken = &AuthError{
		Kind:    KindInvalidToken,
		Status:  http.StatusUnauthorized,
		Message: "invalid exchange token",
	}
	ErrTokenExpired = &AuthError{
		Kind:    KindTokenExpired,
		Status:  http.StatusUnauthorized,
		Message: "exchange token expired",
	}
	ErrTokenAlreadyUsed = &AuthError{
		Kind:    KindTokenAlreadyUsed,
		Status:  http.StatusUnauthorized,
		Message: "exchange token already used",
	}
	ErrDomainMismatch = &AuthError{
		Kind:    KindDomainMismatch,
		Status:  http.StatusBadRequest,
		Message: "exchange token was issued for a different domain",
	}
	ErrMissingCredential = &AuthError{
		Kind:    KindMissingCredential,
		Status:  http.StatusBadRequest,
		Message: "no session token supplied",
	}
	ErrInternal = &AuthError{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: "internal error",
	}
)

// AsAuthError unwraps err into an AuthError, falling back to ErrInternal
// for infrastructure faults so nothing leaks to clients unmapped.
func AsAuthError(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return ErrInternal
}
