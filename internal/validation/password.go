package validation

import (
	"errors"
)

// ValidatePassword validates password length
func ValidatePassword(password string) error {
	// Minimum length: 8 characters
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	// Maximum length: 72 bytes (bcrypt limitation)
	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	return nil
}
