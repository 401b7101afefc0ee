package softdelete

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"account-service/internal/db"
	"account-service/internal/models"
	"account-service/internal/observability"
	"account-service/internal/repositories"
)

var tracer = otel.Tracer("account-service/softdelete")

// Querier is the operation surface offered to the service layer.
type Querier interface {
	CreateAccount(ctx context.Context, in models.NewAccount) (models.AccountView, error)
	GetAccount(ctx context.Context, accountID int, mode Mode) (models.AccountView, error)
	ListAccounts(ctx context.Context, mode Mode) ([]models.AccountView, error)
	DeleteAccount(ctx context.Context, accountID int) (models.Account, error)
	CreateMessage(ctx context.Context, accountID int, in models.NewMessage) (models.MessageView, error)
	GetMessage(ctx context.Context, messageID int) (models.MessageView, error)
	ListMessages(ctx context.Context) ([]models.MessageView, error)
	ListAccountMessages(ctx context.Context, accountID int) ([]models.MessageView, error)
}

// Queries implements Querier over a database handle. Reads run directly on
// the handle; create and delete run in one transaction each.
type Queries struct {
	db *sqlx.DB
}

var _ Querier = (*Queries)(nil)

// New constructs Queries.
func New(database *sqlx.DB) *Queries {
	return &Queries{db: database}
}

// CreateAccount validates in and stores a new active account.
func (q *Queries) CreateAccount(ctx context.Context, in models.NewAccount) (view models.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.CreateAccount")
	defer func() { finish(span, "create_account", err) }()

	in = in.Normalize()
	if err = in.Validate(); err != nil {
		return models.AccountView{}, err
	}

	acct, err := repositories.NewAccountRepo(q.db).InsertAccount(ctx, in.Name)
	if err != nil {
		return models.AccountView{}, fmt.Errorf("insert account: %w", err)
	}
	span.SetAttributes(attribute.Int("account.id", acct.ID))
	return renderAccount(acct), nil
}

// GetAccount returns the account if it exists and is visible under mode.
func (q *Queries) GetAccount(ctx context.Context, accountID int, mode Mode) (view models.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.GetAccount", trace.WithAttributes(
		attribute.Int("account.id", accountID),
		attribute.String("softdelete.mode", mode.String()),
	))
	defer func() { finish(span, "get_account", err) }()

	acct, err := resolveAccount(ctx, repositories.NewAccountRepo(q.db), accountID, mode, false)
	if err != nil {
		return models.AccountView{}, err
	}
	return renderAccount(acct), nil
}

// ListAccounts returns every account visible under mode in creation order.
func (q *Queries) ListAccounts(ctx context.Context, mode Mode) (views []models.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.ListAccounts", trace.WithAttributes(
		attribute.String("softdelete.mode", mode.String()),
	))
	defer func() { finish(span, "list_accounts", err) }()

	all, err := repositories.NewAccountRepo(q.db).FetchAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}

	visible := Filter(all, mode)
	for i := len(visible); i < len(all); i++ {
		observability.IncHiddenRead("list")
	}

	views = make([]models.AccountView, 0, len(visible))
	for _, acct := range visible {
		views = append(views, renderAccount(acct))
	}
	return views, nil
}

// DeleteAccount hides an active account. The account is resolved under the
// default mode, so deleting a hidden or unknown account fails with
// ErrNotFound; a repeated delete is not a no-op.
func (q *Queries) DeleteAccount(ctx context.Context, accountID int) (deleted models.Account, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.DeleteAccount", trace.WithAttributes(
		attribute.Int("account.id", accountID),
	))
	defer func() { finish(span, "delete_account", err) }()

	err = db.WithTx(ctx, q.db, func(tx *sqlx.Tx) error {
		accounts := repositories.NewAccountRepo(tx)
		acct, err := resolveAccount(ctx, accounts, accountID, Default, true)
		if err != nil {
			return err
		}
		if err := accounts.MarkAccountDeleted(ctx, acct.ID); err != nil {
			return fmt.Errorf("mark account %d deleted: %w", acct.ID, err)
		}
		acct.Deleted = true
		deleted = acct
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return deleted, nil
}

// CreateMessage attaches a new message to an active account. The owner check
// and the insert share a transaction; on PostgreSQL the owner row stays locked
// until commit so a concurrent delete cannot slip in between.
func (q *Queries) CreateMessage(ctx context.Context, accountID int, in models.NewMessage) (view models.MessageView, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.CreateMessage", trace.WithAttributes(
		attribute.Int("account.id", accountID),
	))
	defer func() { finish(span, "create_message", err) }()

	in = in.Normalize()
	if err = in.Validate(); err != nil {
		return models.MessageView{}, err
	}

	err = db.WithTx(ctx, q.db, func(tx *sqlx.Tx) error {
		owner, err := resolveAccount(ctx, repositories.NewAccountRepo(tx), accountID, Default, true)
		if err != nil {
			return err
		}
		msg, err := repositories.NewMessageRepo(tx).InsertMessage(ctx, owner.ID, in.Text)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		view = models.MessageView{Message: msg, Owner: Locator(owner)}
		return nil
	})
	if err != nil {
		return models.MessageView{}, err
	}
	span.SetAttributes(attribute.Int("message.id", view.ID))
	return view, nil
}

// GetMessage returns a message whatever the state of its owner. The owner
// reference is nil when the owner has been deleted.
func (q *Queries) GetMessage(ctx context.Context, messageID int) (view models.MessageView, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.GetMessage", trace.WithAttributes(
		attribute.Int("message.id", messageID),
	))
	defer func() { finish(span, "get_message", err) }()

	msg, err := repositories.NewMessageRepo(q.db).FetchMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.MessageView{}, ErrNotFound
	}
	if err != nil {
		return models.MessageView{}, fmt.Errorf("fetch message %d: %w", messageID, err)
	}

	views, err := renderMessages(ctx, repositories.NewAccountRepo(q.db), []models.Message{msg})
	if err != nil {
		return models.MessageView{}, err
	}
	return views[0], nil
}

// ListMessages returns every message, unfiltered by owner visibility.
func (q *Queries) ListMessages(ctx context.Context) (views []models.MessageView, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.ListMessages")
	defer func() { finish(span, "list_messages", err) }()

	msgs, err := repositories.NewMessageRepo(q.db).FetchMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return renderMessages(ctx, repositories.NewAccountRepo(q.db), msgs)
}

// ListAccountMessages returns the messages of an account that is visible
// under the default mode.
func (q *Queries) ListAccountMessages(ctx context.Context, accountID int) (views []models.MessageView, err error) {
	ctx, span := tracer.Start(ctx, "softdelete.ListAccountMessages", trace.WithAttributes(
		attribute.Int("account.id", accountID),
	))
	defer func() { finish(span, "list_account_messages", err) }()

	owner, err := resolveAccount(ctx, repositories.NewAccountRepo(q.db), accountID, Default, false)
	if err != nil {
		return nil, err
	}

	msgs, err := repositories.NewMessageRepo(q.db).FetchMessagesByAccount(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch messages of account %d: %w", owner.ID, err)
	}

	views = make([]models.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, models.MessageView{Message: msg, Owner: Locator(owner)})
	}
	return views, nil
}

// resolveAccount fetches an account and applies the policy to it. Missing and
// hidden accounts both come back as ErrNotFound.
func resolveAccount(ctx context.Context, accounts repositories.AccountRepository, accountID int, mode Mode, lock bool) (models.Account, error) {
	acct, err := accounts.FetchAccount(ctx, accountID, lock)
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("fetch account %d: %w", accountID, err)
	}
	if !IsVisible(acct, mode) {
		observability.IncHiddenRead("lookup")
		return models.Account{}, ErrNotFound
	}
	return acct, nil
}

// renderMessages resolves the owner reference of each message. Owners are
// loaded including deleted rows so the policy sees their real state.
func renderMessages(ctx context.Context, accounts repositories.AccountRepository, msgs []models.Message) ([]models.MessageView, error) {
	ids := make([]int, 0, len(msgs))
	seen := map[int]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.AccountID]; !ok {
			seen[m.AccountID] = struct{}{}
			ids = append(ids, m.AccountID)
		}
	}

	owners, err := accounts.FetchAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch message owners: %w", err)
	}
	ownerByID := make(map[int]models.Account, len(owners))
	for _, o := range owners {
		ownerByID[o.ID] = o
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		view := models.MessageView{Message: m}
		if owner, ok := ownerByID[m.AccountID]; ok {
			view.Owner = Locator(owner)
			if view.Owner == nil {
				observability.IncHiddenRead("owner")
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func renderAccount(acct models.Account) models.AccountView {
	return models.AccountView{Account: acct, Locator: Locator(acct)}
}

func finish(span trace.Span, operation string, err error) {
	defer span.End()

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrValidation):
		result = "invalid"
	default:
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	observability.IncQueryOperation(operation, result)
}
