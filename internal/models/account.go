package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxAccountNameLength bounds accounts.name.
const MaxAccountNameLength = 128

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a malformed creation field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Is lets errors.Is(err, ErrValidation) match any field error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Account is a soft-deletable owner of messages.
type Account struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Deleted   bool      `db:"deleted" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewAccount is the input accepted when creating an account.
type NewAccount struct {
	Name string `json:"name" binding:"required,max=128"`
}

// Normalize trims surrounding whitespace. The trimmed name is what gets stored.
func (n NewAccount) Normalize() NewAccount {
	return NewAccount{Name: strings.TrimSpace(n.Name)}
}

// Validate checks the fields before anything reaches the store.
func (n NewAccount) Validate() error {
	return validateText("name", n.Name, MaxAccountNameLength)
}

// AccountView is an account as rendered to callers. Locator is nil when the
// account is hidden.
type AccountView struct {
	Account
	Locator *int `json:"-"`
}

// validateText bounds value in characters, matching VARCHAR(n).
func validateText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{Field: field, Reason: "is too long"}
	}
	return nil
}
