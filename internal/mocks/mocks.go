package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"account-service/internal/models"
	"account-service/internal/softdelete"
)

type QuerierMock struct {
	mock.Mock
}

func (m *QuerierMock) CreateAccount(ctx context.Context, in models.NewAccount) (models.AccountView, error) {
	args := m.Called(ctx, in)
	var view models.AccountView
	if val := args.Get(0); val != nil {
		view = val.(models.AccountView)
	}
	return view, args.Error(1)
}

func (m *QuerierMock) GetAccount(ctx context.Context, accountID int, mode softdelete.Mode) (models.AccountView, error) {
	args := m.Called(ctx, accountID, mode)
	var view models.AccountView
	if val := args.Get(0); val != nil {
		view = val.(models.AccountView)
	}
	return view, args.Error(1)
}

func (m *QuerierMock) ListAccounts(ctx context.Context, mode softdelete.Mode) ([]models.AccountView, error) {
	args := m.Called(ctx, mode)
	var list []models.AccountView
	if val := args.Get(0); val != nil {
		list = val.([]models.AccountView)
	}
	return list, args.Error(1)
}

func (m *QuerierMock) DeleteAccount(ctx context.Context, accountID int) (models.Account, error) {
	args := m.Called(ctx, accountID)
	var acct models.Account
	if val := args.Get(0); val != nil {
		acct = val.(models.Account)
	}
	return acct, args.Error(1)
}

func (m *QuerierMock) CreateMessage(ctx context.Context, accountID int, in models.NewMessage) (models.MessageView, error) {
	args := m.Called(ctx, accountID, in)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *QuerierMock) GetMessage(ctx context.Context, messageID int) (models.MessageView, error) {
	args := m.Called(ctx, messageID)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *QuerierMock) ListMessages(ctx context.Context) ([]models.MessageView, error) {
	args := m.Called(ctx)
	var list []models.MessageView
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageView)
	}
	return list, args.Error(1)
}

func (m *QuerierMock) ListAccountMessages(ctx context.Context, accountID int) ([]models.MessageView, error) {
	args := m.Called(ctx, accountID)
	var list []models.MessageView
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageView)
	}
	return list, args.Error(1)
}

var _ softdelete.Querier = (*QuerierMock)(nil)
