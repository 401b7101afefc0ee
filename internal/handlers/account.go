package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/models"
	"account-service/internal/softdelete"
)

// AccountHandler manages account endpoints.
type AccountHandler struct {
	queries softdelete.Querier
	events  EventEmitter
	log     logrus.FieldLogger
}

// NewAccountHandler builds an AccountHandler.
func NewAccountHandler(queries softdelete.Querier, events EventEmitter, log logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{
		queries: queries,
		events:  events,
		log:     log,
	}
}

type accountResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	URL       *string   `json:"url"`
}

func newAccountResponse(view models.AccountView) accountResponse {
	resp := accountResponse{ID: view.ID, Name: view.Name, CreatedAt: view.CreatedAt}
	if view.Locator != nil {
		url := accountURL(*view.Locator)
		resp.URL = &url
	}
	return resp
}

// CreateAccount stores a new account.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req models.NewAccount
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.queries.CreateAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "account not found", "could not create account")
		return
	}

	h.log.WithFields(logrus.Fields{
		"account_id": acct.ID,
		"request_id": requestIDFromContext(c),
	}).Info("account created")
	h.events.Emit(c.Request.Context(), requestIDFromContext(c), models.Event{
		Type:      models.EventAccountCreated,
		Account:   &acct.Account,
		AccountID: acct.ID,
	})

	c.Header("Location", accountURL(acct.ID))
	c.JSON(http.StatusCreated, newAccountResponse(acct))
}

// ListAccounts returns the accounts that have not been deleted.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.queries.ListAccounts(c.Request.Context(), softdelete.Default)
	if err != nil {
		respondError(c, h.log, err, "account not found", "failed to load accounts")
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, acct := range accounts {
		resp = append(resp, newAccountResponse(acct))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": resp})
}

// GetAccount returns a single account unless it has been deleted.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, ok := parseID(c, "account_id", "invalid account id", "account not found")
	if !ok {
		return
	}

	acct, err := h.queries.GetAccount(c.Request.Context(), accountID, softdelete.Default)
	if err != nil {
		respondError(c, h.log, err, "account not found", "failed to load account")
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(acct))
}

// DeleteAccount soft-deletes an account. Its messages stay in place.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountID, ok := parseID(c, "account_id", "invalid account id", "account not found")
	if !ok {
		return
	}

	acct, err := h.queries.DeleteAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, h.log, err, "account not found", "could not delete account")
		return
	}

	h.log.WithFields(logrus.Fields{
		"account_id": acct.ID,
		"request_id": requestIDFromContext(c),
	}).Info("account deleted")
	h.events.Emit(c.Request.Context(), requestIDFromContext(c), models.Event{
		Type:      models.EventAccountDeleted,
		AccountID: acct.ID,
	})

	c.Status(http.StatusNoContent)
}
