package types

import (
	"fmt"
	"strings"
)

// ------------------------------
// Shared Errors
// ------------------------------

// ErrNotFound is returned when a requested remote resource does not exist.
var ErrNotFound = fmt.Errorf("resource not found")

// ------------------------------
// Validation helpers
// ------------------------------

// ValidateIDPresent fails when a required identifier is blank.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	return nil
}

// ValidateEmail performs a minimal shape check; real validation is the
// server's job.
func ValidateEmail(email string) error {
	if !strings.Contains(email, "@") || strings.TrimSpace(email) == "" {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}
