package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"account-service/internal/models"
)

type EventEmitterMock struct {
	mock.Mock
}

func (m *EventEmitterMock) Emit(ctx context.Context, requestID string, event models.Event) {
	m.Called(ctx, requestID, event)
}
