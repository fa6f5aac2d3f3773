package auth

import "strings"

// ProviderError is a structured rejection from the identity provider: the
// provider's error code plus the user-facing message it maps to.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Identity Toolkit error codes. The provider formats some of these as
// "CODE : human text"; only the leading token is stable.
const (
	CodeEmailNotFound       = "EMAIL_NOT_FOUND"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodeInvalidCredentials  = "INVALID_LOGIN_CREDENTIALS"
	CodeInvalidEmail        = "INVALID_EMAIL"
	CodeUserDisabled        = "USER_DISABLED"
	CodeTooManyAttempts     = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeOperationNotAllowed = "OPERATION_NOT_ALLOWED"
)

var userMessages = map[string]string{
	CodeEmailNotFound:       "No account found with this email",
	CodeInvalidPassword:     "Incorrect password",
	CodeInvalidCredentials:  "Invalid email or password",
	CodeInvalidEmail:        "Invalid email address",
	CodeUserDisabled:        "This account has been disabled",
	CodeTooManyAttempts:     "Too many failed attempts. Please try again later.",
	CodeEmailExists:         "An account with this email already exists",
	CodeWeakPassword:        "Password should be at least 6 characters",
	CodeOperationNotAllowed: "Email/password accounts are not enabled. Please contact support.",
}

const (
	genericLoginMessage    = "Login failed. Please try again."
	genericRegisterMessage = "Registration failed. Please try again."
)

// mapProviderCode translates a raw provider error string into a ProviderError
// with a user-facing message. Unknown codes get the generic fallback for the
// flow that produced them.
func mapProviderCode(raw, fallback string) *ProviderError {
	code := normalizeCode(raw)
	if msg, ok := userMessages[code]; ok {
		return &ProviderError{Code: code, Message: msg}
	}
	return &ProviderError{Code: code, Message: fallback}
}

func normalizeCode(raw string) string {
	raw = strings.TrimSpace(raw)
	for i, r := range raw {
		if r == ' ' || r == ':' {
			return raw[:i]
		}
	}
	return raw
}
