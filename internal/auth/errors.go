package auth

import (
	"sort"
	"strings"
)

// CredentialError is a login or registration rejection. Its message is safe
// to show to the user.
type CredentialError struct {
	Message string
}

func (e *CredentialError) Error() string {
	return e.Message
}

var (
	// ErrInvalidCredentials is the single rejection for failed logins. It does
	// not say whether the username or the password was wrong.
	ErrInvalidCredentials = &CredentialError{Message: "Invalid username or password"}
	// ErrUsernameTaken rejects a registration for an existing username.
	ErrUsernameTaken = &CredentialError{Message: "Username already exists"}
	// ErrRegisterFailed rejects a registration whose password could not be hashed.
	ErrRegisterFailed = &CredentialError{Message: "Failed to register"}
)

// ValidationError carries form-level and field-level messages for a
// submission that failed the form schema.
type ValidationError struct {
	FormErrors  []string
	FieldErrors map[string][]string
}

func (e *ValidationError) Error() string {
	parts := append([]string(nil), e.FormErrors...)
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.FieldErrors[field], ", "))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *ValidationError) addField(field, msg string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string][]string)
	}
	e.FieldErrors[field] = append(e.FieldErrors[field], msg)
}

func (e *ValidationError) empty() bool {
	return len(e.FormErrors) == 0 && len(e.FieldErrors) == 0
}
