package session

import (
	"errors"
	"fmt"
)

// GenericAuthMessage is the only message a failed login ever produces. Bad
// credentials and missing admin privileges must be indistinguishable.
const GenericAuthMessage = "Email ou mot de passe incorrect"

const sessionExpiredMessage = "Session expirée. Veuillez vous reconnecter."

// ErrNotAuthenticated is returned when an operation needs a session and there is none
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'bookadmin login' first")

// AuthenticationError is the user-facing login failure
type AuthenticationError struct {
	Message string
}

// NewAuthenticationError returns the generic authentication failure
func NewAuthenticationError() *AuthenticationError {
	return &AuthenticationError{Message: GenericAuthMessage}
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// SessionExpiredError is returned by collaborators after the API answered 401.
// The session has already been logged out when this error is observed.
type SessionExpiredError struct {
	Op string
}

func (e *SessionExpiredError) Error() string {
	if e.Op == "" {
		return sessionExpiredMessage
	}
	return fmt.Sprintf("%s: %s", e.Op, sessionExpiredMessage)
}

// StorageCorruptionError describes an unreadable persisted user record. It is
// logged for diagnostics and never returned from LoadFromStorage or VerifyAuth.
type StorageCorruptionError struct {
	Key string
	Err error
}

func (e *StorageCorruptionError) Error() string {
	return fmt.Sprintf("corrupt credential record %q: %v", e.Key, e.Err)
}

func (e *StorageCorruptionError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport failure talking to the admin API
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: failed to reach admin API: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError reports whether err is (or wraps) an AuthenticationError
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsSessionExpired reports whether err is (or wraps) a SessionExpiredError
func IsSessionExpired(err error) bool {
	var expired *SessionExpiredError
	return errors.As(err, &expired)
}

// IsNetworkError reports whether err is (or wraps) a NetworkError
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
