package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/db"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	database, err := db.Connect(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(ctx, database))
	return database
}

func TestInsertAndFetchAccount(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newTestDB(t))

	created, err := repo.InsertAccount(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.Name)
	assert.False(t, created.Deleted)

	fetched, err := repo.FetchAccount(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "alice", fetched.Name)
}

func TestFetchAccountNotFound(t *testing.T) {
	repo := NewAccountRepo(newTestDB(t))

	_, err := repo.FetchAccount(context.Background(), 42, false)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMarkAccountDeletedKeepsRow(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newTestDB(t))

	acct, err := repo.InsertAccount(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, repo.MarkAccountDeleted(ctx, acct.ID))

	fetched, err := repo.FetchAccount(ctx, acct.ID, false)
	require.NoError(t, err)
	assert.True(t, fetched.Deleted)

	require.ErrorIs(t, repo.MarkAccountDeleted(ctx, 999), ErrAccountNotFound)
}

func TestFetchAccountsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newTestDB(t))

	empty, err := repo.FetchAccounts(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, name := range []string{"a", "b", "c"} {
		_, err := repo.InsertAccount(ctx, name)
		require.NoError(t, err)
	}

	accounts, err := repo.FetchAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "a", accounts[0].Name)
	assert.Equal(t, "c", accounts[2].Name)
}

func TestFetchAccountsByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newTestDB(t))

	a, err := repo.InsertAccount(ctx, "a")
	require.NoError(t, err)
	_, err = repo.InsertAccount(ctx, "b")
	require.NoError(t, err)
	c, err := repo.InsertAccount(ctx, "c")
	require.NoError(t, err)

	accounts, err := repo.FetchAccountsByIDs(ctx, []int{c.ID, a.ID, 1000})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, a.ID, accounts[0].ID)
	assert.Equal(t, c.ID, accounts[1].ID)

	none, err := repo.FetchAccountsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInsertMessageRequiresExistingAccount(t *testing.T) {
	repo := NewMessageRepo(newTestDB(t))

	_, err := repo.InsertMessage(context.Background(), 77, "orphan")
	require.Error(t, err)
}

func TestMessageFetches(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	accounts := NewAccountRepo(database)
	messages := NewMessageRepo(database)

	alice, err := accounts.InsertAccount(ctx, "alice")
	require.NoError(t, err)
	bob, err := accounts.InsertAccount(ctx, "bob")
	require.NoError(t, err)

	m1, err := messages.InsertMessage(ctx, alice.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, m1.AccountID)
	_, err = messages.InsertMessage(ctx, bob.ID, "yo")
	require.NoError(t, err)
	_, err = messages.InsertMessage(ctx, alice.ID, "again")
	require.NoError(t, err)

	fetched, err := messages.FetchMessage(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", fetched.Text)

	_, err = messages.FetchMessage(ctx, 999)
	require.ErrorIs(t, err, ErrMessageNotFound)

	all, err := messages.FetchMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := messages.FetchMessagesByAccount(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "hi", mine[0].Text)
	assert.Equal(t, "again", mine[1].Text)
}

func TestFetchAccountLocksOnPostgres(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	repo := NewAccountRepo(sqlx.NewDb(raw, "postgres"))

	rows := sqlmock.NewRows([]string{"id", "name", "deleted", "created_at"}).AddRow(1, "alice", false, time.Now())
	mock.ExpectQuery(`SELECT id, name, deleted, created_at FROM accounts WHERE id=\$1 FOR UPDATE`).WithArgs(1).WillReturnRows(rows)

	acct, err := repo.FetchAccount(context.Background(), 1, true)
	require.NoError(t, err)
	assert.Equal(t, "alice", acct.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAccountDeletedPropagatesExecError(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	repo := NewAccountRepo(sqlx.NewDb(raw, "postgres"))

	mock.ExpectExec(`UPDATE accounts SET deleted = TRUE WHERE id=\$1`).WithArgs(3).WillReturnError(assert.AnError)

	require.ErrorIs(t, repo.MarkAccountDeleted(context.Background(), 3), assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
