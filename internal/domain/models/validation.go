package models

import "errors"

// ValidationError rejects a write because of bad input. The message is
// safe to show to the user.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// IsValidation reports whether err is (or wraps) a ValidationError and
// returns its message.
func IsValidation(err error) (string, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return string(ve), true
	}
	return "", false
}
