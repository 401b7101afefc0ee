package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"account-service/internal/middleware"
	"account-service/internal/mocks"
	"account-service/internal/models"
	"account-service/internal/softdelete"
)

func intPtr(v int) *int { return &v }

func setupRouter(queries softdelete.Querier, events EventEmitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log, _ := logtest.NewNullLogger()
	accounts := NewAccountHandler(queries, events, log)
	messages := NewMessageHandler(queries, events, log)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/accounts", accounts.CreateAccount)
	r.GET("/accounts", accounts.ListAccounts)
	r.GET("/accounts/:account_id", accounts.GetAccount)
	r.DELETE("/accounts/:account_id", accounts.DeleteAccount)
	r.POST("/accounts/:account_id/messages", messages.CreateMessage)
	r.GET("/accounts/:account_id/messages", messages.ListAccountMessages)
	r.GET("/messages", messages.ListMessages)
	r.GET("/messages/:message_id", messages.GetMessage)
	return r
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreateAccountSuccess(t *testing.T) {
	queries := new(mocks.QuerierMock)
	events := new(mocks.EventEmitterMock)
	router := setupRouter(queries, events)

	view := models.AccountView{
		Account: models.Account{ID: 4, Name: "alice", CreatedAt: time.Now().UTC()},
		Locator: intPtr(4),
	}
	queries.On("CreateAccount", mock.Anything, models.NewAccount{Name: "alice"}).Return(view, nil).Once()
	events.On("Emit", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(e models.Event) bool {
		return e.Type == models.EventAccountCreated && e.AccountID == 4
	})).Once()

	rec := serve(router, http.MethodPost, "/accounts", `{"name":"alice"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/accounts/4", rec.Header().Get("Location"))
	resp := decode(t, rec)
	assert.Equal(t, "alice", resp["name"])
	assert.Equal(t, "/accounts/4", resp["url"])
	queries.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestCreateAccountMissingName(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	rec := serve(router, http.MethodPost, "/accounts", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	queries.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}

func TestCreateAccountValidationError(t *testing.T) {
	queries := new(mocks.QuerierMock)
	events := new(mocks.EventEmitterMock)
	router := setupRouter(queries, events)

	queries.On("CreateAccount", mock.Anything, mock.Anything).
		Return(nil, &models.ValidationError{Field: "name", Reason: "too long"}).Once()

	rec := serve(router, http.MethodPost, "/accounts", `{"name":"x"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "name")
	events.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestListAccountsEmpty(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("ListAccounts", mock.Anything, softdelete.Default).Return([]models.AccountView{}, nil).Once()

	rec := serve(router, http.MethodGet, "/accounts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accounts":[]}`, rec.Body.String())
}

func TestListAccountsStorageError(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("ListAccounts", mock.Anything, softdelete.Default).Return(nil, assert.AnError).Once()

	rec := serve(router, http.MethodGet, "/accounts", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to load accounts", decode(t, rec)["error"])
}

func TestGetAccountNotFound(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("GetAccount", mock.Anything, 9, softdelete.Default).Return(nil, softdelete.ErrNotFound).Once()

	rec := serve(router, http.MethodGet, "/accounts/9", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account not found", decode(t, rec)["error"])
}

func TestGetAccountInvalidID(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	rec := serve(router, http.MethodGet, "/accounts/abc", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	queries.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutOfRangeIDsAreNotFound(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	for _, tc := range []struct {
		method, target, body, msg string
	}{
		{http.MethodGet, "/accounts/99999999999", "", "account not found"},
		{http.MethodDelete, "/accounts/2147483648", "", "account not found"},
		{http.MethodPost, "/accounts/99999999999/messages", `{"text":"hi"}`, "account not found"},
		{http.MethodGet, "/accounts/-2147483649/messages", "", "account not found"},
		{http.MethodGet, "/messages/99999999999", "", "message not found"},
	} {
		rec := serve(router, tc.method, tc.target, tc.body)
		require.Equal(t, http.StatusNotFound, rec.Code, tc.target)
		assert.Equal(t, tc.msg, decode(t, rec)["error"], tc.target)
	}
	queries.AssertExpectations(t)
}

func TestLargestSerialIDReachesQueries(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("GetAccount", mock.Anything, 2147483647, softdelete.Default).Return(nil, softdelete.ErrNotFound).Once()

	rec := serve(router, http.MethodGet, "/accounts/2147483647", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	queries.AssertExpectations(t)
}

func TestCreateAccountNameTooLong(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	body, err := json.Marshal(models.NewAccount{Name: strings.Repeat("a", models.MaxAccountNameLength+1)})
	require.NoError(t, err)
	rec := serve(router, http.MethodPost, "/accounts", string(body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	queries.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}

func TestCreateAccountMultibyteNameWithinLimit(t *testing.T) {
	queries := new(mocks.QuerierMock)
	events := new(mocks.EventEmitterMock)
	router := setupRouter(queries, events)

	name := strings.Repeat("é", 100)
	queries.On("CreateAccount", mock.Anything, models.NewAccount{Name: name}).Return(models.AccountView{
		Account: models.Account{ID: 1, Name: name},
		Locator: intPtr(1),
	}, nil).Once()
	events.On("Emit", mock.Anything, mock.Anything, mock.Anything).Once()

	body, err := json.Marshal(models.NewAccount{Name: name})
	require.NoError(t, err)
	rec := serve(router, http.MethodPost, "/accounts", string(body))

	require.Equal(t, http.StatusCreated, rec.Code)
	queries.AssertExpectations(t)
}

func TestDeleteAccountSuccess(t *testing.T) {
	queries := new(mocks.QuerierMock)
	events := new(mocks.EventEmitterMock)
	router := setupRouter(queries, events)

	queries.On("DeleteAccount", mock.Anything, 3).Return(models.Account{ID: 3, Name: "bob", Deleted: true}, nil).Once()
	events.On("Emit", mock.Anything, mock.Anything, models.Event{Type: models.EventAccountDeleted, AccountID: 3}).Once()

	rec := serve(router, http.MethodDelete, "/accounts/3", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	events.AssertExpectations(t)
}

func TestDeleteAccountTwice(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("DeleteAccount", mock.Anything, 3).Return(nil, softdelete.ErrNotFound).Once()

	rec := serve(router, http.MethodDelete, "/accounts/3", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMessageSuccess(t *testing.T) {
	queries := new(mocks.QuerierMock)
	events := new(mocks.EventEmitterMock)
	router := setupRouter(queries, events)

	view := models.MessageView{
		Message: models.Message{ID: 11, AccountID: 2, Text: "hi", CreatedAt: time.Now().UTC()},
		Owner:   intPtr(2),
	}
	queries.On("CreateMessage", mock.Anything, 2, models.NewMessage{Text: "hi"}).Return(view, nil).Once()
	events.On("Emit", mock.Anything, mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.Type == models.EventMessageCreated && e.Message != nil && e.Message.ID == 11
	})).Once()

	rec := serve(router, http.MethodPost, "/accounts/2/messages", `{"text":"hi"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/messages/11", rec.Header().Get("Location"))
	resp := decode(t, rec)
	assert.Equal(t, "/messages/11", resp["url"])
	assert.Equal(t, "/accounts/2", resp["account_url"])
	assert.EqualValues(t, 2, resp["account_id"])
	events.AssertExpectations(t)
}

func TestCreateMessageHiddenAccount(t *testing.T) {
	queries := new(mocks.QuerierMock)
	events := new(mocks.EventEmitterMock)
	router := setupRouter(queries, events)

	queries.On("CreateMessage", mock.Anything, 2, mock.Anything).Return(nil, softdelete.ErrNotFound).Once()

	rec := serve(router, http.MethodPost, "/accounts/2/messages", `{"text":"hi"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	events.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestListMessagesRendersHiddenOwnerAsNull(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("ListMessages", mock.Anything).Return([]models.MessageView{
		{Message: models.Message{ID: 1, AccountID: 1, Text: "a"}, Owner: intPtr(1)},
		{Message: models.Message{ID: 2, AccountID: 5, Text: "b"}},
	}, nil).Once()

	rec := serve(router, http.MethodGet, "/messages", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []struct {
			ID         int     `json:"id"`
			AccountID  int     `json:"account_id"`
			AccountURL *string `json:"account_url"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	require.NotNil(t, resp.Messages[0].AccountURL)
	assert.Equal(t, "/accounts/1", *resp.Messages[0].AccountURL)
	assert.Nil(t, resp.Messages[1].AccountURL)
	assert.Equal(t, 5, resp.Messages[1].AccountID)
}

func TestListAccountMessagesNotFound(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("ListAccountMessages", mock.Anything, 8).Return(nil, softdelete.ErrNotFound).Once()

	rec := serve(router, http.MethodGet, "/accounts/8/messages", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMessage(t *testing.T) {
	queries := new(mocks.QuerierMock)
	router := setupRouter(queries, new(mocks.EventEmitterMock))

	queries.On("GetMessage", mock.Anything, 6).Return(models.MessageView{
		Message: models.Message{ID: 6, AccountID: 2, Text: "x"},
	}, nil).Once()
	queries.On("GetMessage", mock.Anything, 7).Return(nil, softdelete.ErrNotFound).Once()

	rec := serve(router, http.MethodGet, "/messages/6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Nil(t, resp["account_url"])

	rec = serve(router, http.MethodGet, "/messages/7", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "message not found", decode(t, rec)["error"])

	rec = serve(router, http.MethodGet, "/messages/x", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	RegisterOpsRoutes(r, stubPinger{})
	rec := serve(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	r = gin.New()
	RegisterOpsRoutes(r, stubPinger{err: assert.AnError})
	rec = serve(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
}
