package authcore

import "fmt"

// ValidationError reports malformed or conflicting input. Transports map it
// to a 400-class response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthenticationError covers bad credentials, unusable tokens, and locked
// accounts. Transports map it to 401.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

func newAuthenticationError(format string, args ...any) *AuthenticationError {
	return &AuthenticationError{Message: fmt.Sprintf(format, args...)}
}

// RateLimitError carries the window state so transports can set Retry-After
// and X-RateLimit headers. Maps to 429.
type RateLimitError struct {
	Operation string
	Remaining int
	ResetAt   int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded", e.Operation)
}

// Fixed-message failures reused across flows. The credential message is
// identical for unknown emails and wrong passwords so responses cannot be
// used to enumerate accounts.
var (
	ErrInvalidCredentials  = &AuthenticationError{Message: "Invalid email or password"}
	ErrAccountInactive     = &AuthenticationError{Message: "Account is not active"}
	ErrInvalidRefreshToken = &AuthenticationError{Message: "Invalid refresh token"}
	ErrInvalidAccessToken  = &AuthenticationError{Message: "Invalid or expired token"}
)
