package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"account-service/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `id, name, deleted, created_at`

// AccountRepository is raw account storage. It makes no visibility decisions:
// deleted accounts are returned like any other row.
type AccountRepository interface {
	InsertAccount(ctx context.Context, name string) (models.Account, error)
	FetchAccount(ctx context.Context, accountID int, lock bool) (models.Account, error)
	FetchAccounts(ctx context.Context) ([]models.Account, error)
	FetchAccountsByIDs(ctx context.Context, accountIDs []int) ([]models.Account, error)
	MarkAccountDeleted(ctx context.Context, accountID int) error
}

// AccountRepo is a sqlx implementation of AccountRepository bound to either a
// database or a transaction.
type AccountRepo struct {
	q sqlx.ExtContext
}

// NewAccountRepo constructs an AccountRepo over q.
func NewAccountRepo(q sqlx.ExtContext) *AccountRepo {
	return &AccountRepo{q: q}
}

// InsertAccount stores a new, not deleted account.
func (r *AccountRepo) InsertAccount(ctx context.Context, name string) (models.Account, error) {
	var acct models.Account
	query := r.q.Rebind(`INSERT INTO accounts (name, deleted, created_at) VALUES (?, FALSE, ?) RETURNING ` + accountColumns)
	err := sqlx.GetContext(ctx, r.q, &acct, query, name, time.Now().UTC())
	return acct, err
}

// FetchAccount loads an account by id whatever its deleted flag. With lock set
// the row is locked for the rest of the transaction on PostgreSQL.
func (r *AccountRepo) FetchAccount(ctx context.Context, accountID int, lock bool) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id=?`
	if lock && r.q.DriverName() == "postgres" {
		query += ` FOR UPDATE`
	}

	var acct models.Account
	err := sqlx.GetContext(ctx, r.q, &acct, r.q.Rebind(query), accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	return acct, err
}

// FetchAccounts returns every account in creation order.
func (r *AccountRepo) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	err := sqlx.SelectContext(ctx, r.q, &accounts, `SELECT `+accountColumns+` FROM accounts ORDER BY id ASC`)
	return accounts, err
}

// FetchAccountsByIDs returns the accounts among accountIDs that exist.
func (r *AccountRepo) FetchAccountsByIDs(ctx context.Context, accountIDs []int) ([]models.Account, error) {
	accounts := []models.Account{}
	if len(accountIDs) == 0 {
		return accounts, nil
	}

	query, args, err := sqlx.In(`SELECT `+accountColumns+` FROM accounts WHERE id IN (?) ORDER BY id ASC`, accountIDs)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.q, &accounts, r.q.Rebind(query), args...)
	return accounts, err
}

// MarkAccountDeleted sets the deleted flag.
func (r *AccountRepo) MarkAccountDeleted(ctx context.Context, accountID int) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`UPDATE accounts SET deleted = TRUE WHERE id=?`), accountID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrAccountNotFound
	}
	return nil
}
