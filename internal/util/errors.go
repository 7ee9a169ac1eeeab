package util

import (
	"errors"
)

// ErrPublic is an error whose message can be shown as-is to API clients and
// CLI users.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

// IsPublic reports whether err wraps an ErrPublic and returns its message.
func IsPublic(err error) (string, bool) {
	var public ErrPublic
	if errors.As(err, &public) {
		return string(public), true
	}

	return "", false
}
