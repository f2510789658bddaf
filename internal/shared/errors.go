package shared

import "errors"

var (
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrLockHeld is returned when another holder owns a lock.
	ErrLockHeld = errors.New("lock already held")
)

// UserSafeMessage returns text that can be shown to a visitor. Errors that
// know their user facing wording expose it through UserMessage; everything
// else collapses to a generic sentence.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var msg interface{ UserMessage() string }
	if errors.As(err, &msg) {
		return msg.UserMessage()
	}
	return "Something went wrong. Please try again."
}
