package identity

import (
	"errors"
	"fmt"
)

// ProviderError carries the identity provider's error code. The code is mapped
// to a user-facing message, but the error itself is still returned so callers
// can decide not to proceed (e.g. keep a login modal open).
type ProviderError struct {
	Code       string
	HTTPStatus int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error %s (http %d)", e.Code, e.HTTPStatus)
}

// genericMessage is shown for any code not in the table.
const genericMessage = "Something went wrong. Please try again."

// messages is the fixed provider-code to user-facing-message table.
var messages = map[string]string{
	"EMAIL_NOT_FOUND":             "No account found for that email.",
	"INVALID_PASSWORD":            "Incorrect password. Please try again.",
	"INVALID_LOGIN_CREDENTIALS":   "Incorrect email or password.",
	"USER_DISABLED":               "This account has been disabled.",
	"EMAIL_EXISTS":                "An account with that email already exists.",
	"WEAK_PASSWORD":               "Password should be at least 6 characters.",
	"INVALID_EMAIL":               "That email address looks invalid.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many attempts. Please try again later.",
	"INVALID_IDP_RESPONSE":        "Sign-in with that provider failed. Please try again.",
	"FEDERATED_USER_ID_ALREADY_LINKED": "That social account is already linked to another user.",
	"TOKEN_EXPIRED":               "Your session has expired. Please sign in again.",
	"REQUIRES_RECENT_LOGIN":       "Please sign in again before deleting your account.",
}

// UserMessage maps an error from the identity provider into a message safe to
// show inline in the UI.
func UserMessage(err error) string {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return genericMessage
	}
	if msg, ok := messages[pe.Code]; ok {
		return msg
	}
	return genericMessage
}
