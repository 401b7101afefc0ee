package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"account-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, account_id, text, created_at`

// MessageRepository is raw message storage.
type MessageRepository interface {
	InsertMessage(ctx context.Context, accountID int, text string) (models.Message, error)
	FetchMessage(ctx context.Context, messageID int) (models.Message, error)
	FetchMessages(ctx context.Context) ([]models.Message, error)
	FetchMessagesByAccount(ctx context.Context, accountID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	q sqlx.ExtContext
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(q sqlx.ExtContext) *MessageRepo {
	return &MessageRepo{q: q}
}

// InsertMessage stores a message for accountID. The foreign key rejects
// unknown accounts.
func (r *MessageRepo) InsertMessage(ctx context.Context, accountID int, text string) (models.Message, error) {
	var msg models.Message
	query := r.q.Rebind(`INSERT INTO messages (account_id, text, created_at) VALUES (?, ?, ?) RETURNING ` + messageColumns)
	err := sqlx.GetContext(ctx, r.q, &msg, query, accountID, text, time.Now().UTC())
	return msg, err
}

// FetchMessage retrieves a single message.
func (r *MessageRepo) FetchMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := sqlx.GetContext(ctx, r.q, &msg, r.q.Rebind(`SELECT `+messageColumns+` FROM messages WHERE id=?`), messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// FetchMessages returns every message in creation order.
func (r *MessageRepo) FetchMessages(ctx context.Context) ([]models.Message, error) {
	msgs := []models.Message{}
	err := sqlx.SelectContext(ctx, r.q, &msgs, `SELECT `+messageColumns+` FROM messages ORDER BY id ASC`)
	return msgs, err
}

// FetchMessagesByAccount returns the messages of one account in creation order.
func (r *MessageRepo) FetchMessagesByAccount(ctx context.Context, accountID int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := sqlx.SelectContext(ctx, r.q, &msgs, r.q.Rebind(`SELECT `+messageColumns+` FROM messages WHERE account_id=? ORDER BY id ASC`), accountID)
	return msgs, err
}
