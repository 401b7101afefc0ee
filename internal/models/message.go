package models

import (
	"strings"
	"time"
)

// MaxMessageTextLength bounds messages.text.
const MaxMessageTextLength = 256

// Message belongs to exactly one account and is never mutated.
type Message struct {
	ID        int       `db:"id" json:"id"`
	AccountID int       `db:"account_id" json:"account_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewMessage is the input accepted when posting a message.
type NewMessage struct {
	Text string `json:"text" binding:"required,max=256"`
}

// Normalize trims surrounding whitespace. The trimmed text is what gets stored.
func (n NewMessage) Normalize() NewMessage {
	return NewMessage{Text: strings.TrimSpace(n.Text)}
}

// Validate checks the fields before anything reaches the store.
func (n NewMessage) Validate() error {
	return validateText("text", n.Text, MaxMessageTextLength)
}

// MessageView is a message with its owner reference resolved. Owner is nil
// when the owning account has been deleted.
type MessageView struct {
	Message
	Owner *int `json:"-"`
}

// Event is broadcast to websocket subscribers and published over AMQP.
type Event struct {
	Type      string   `json:"type"`
	Account   *Account `json:"account,omitempty"`
	Message   *Message `json:"message,omitempty"`
	AccountID int      `json:"account_id,omitempty"`
}

// Event types.
const (
	EventAccountCreated = "account.created"
	EventAccountDeleted = "account.deleted"
	EventMessageCreated = "message.created"
)
