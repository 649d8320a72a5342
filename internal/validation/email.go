package validation

import (
	"errors"
	"net/mail"
)

// ValidateEmail checks an address before it becomes an account identity.
// Parsing is delegated to net/mail (RFC 5322); the length cap is the
// RFC 5321 total path limit of 254.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email address format")
	}

	return nil
}
