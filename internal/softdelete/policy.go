// Package softdelete is the only read path for accounts and messages. It
// applies one visibility policy to lookups, listings and the owner reference
// rendered on messages, so a deleted account behaves as absent everywhere
// unless a caller explicitly asks for deleted rows.
package softdelete

import "account-service/internal/models"

// Mode selects whether soft-deleted accounts are returned.
type Mode int

const (
	// Default hides deleted accounts.
	Default Mode = iota
	// WithDeleted returns deleted accounts too.
	WithDeleted
)

// IncludeDeleted reports whether m returns deleted accounts.
func (m Mode) IncludeDeleted() bool {
	return m == WithDeleted
}

func (m Mode) String() string {
	if m.IncludeDeleted() {
		return "with_deleted"
	}
	return "default"
}

// IsVisible decides whether acct is present under mode. No other code tests
// Account.Deleted to make a decision.
func IsVisible(acct models.Account, mode Mode) bool {
	return mode.IncludeDeleted() || !acct.Deleted
}

// Filter keeps the accounts visible under mode, preserving order.
func Filter(accounts []models.Account, mode Mode) []models.Account {
	visible := make([]models.Account, 0, len(accounts))
	for _, acct := range accounts {
		if IsVisible(acct, mode) {
			visible = append(visible, acct)
		}
	}
	return visible
}

// State is an account's lifecycle state as callers see it.
type State string

const (
	StateActive State = "active"
	StateHidden State = "hidden"
)

// StateOf returns StateHidden once the account has been deleted. The
// transition is one way.
func StateOf(acct models.Account) State {
	if IsVisible(acct, Default) {
		return StateActive
	}
	return StateHidden
}

// Locator is the reference under which acct may be addressed, or nil when
// acct is hidden. Message owner references are rendered with it as well.
func Locator(acct models.Account) *int {
	if !IsVisible(acct, Default) {
		return nil
	}
	id := acct.ID
	return &id
}
