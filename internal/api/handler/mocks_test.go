package handler_test

import (
	"context"

	"babelbye/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UpsertProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *MockStorage) UpdateQuota(ctx context.Context, userID string, delta int) (int, error) {
	args := m.Called(ctx, userID, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) SpendQuota(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) RequestConnection(ctx context.Context, requesterID, addresseeID string) (*models.Connection, error) {
	args := m.Called(ctx, requesterID, addresseeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockStorage) RespondConnection(ctx context.Context, requesterID, addresseeID string, status models.ConnectionStatus) (*models.Connection, error) {
	args := m.Called(ctx, requesterID, addresseeID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockStorage) ListConnections(ctx context.Context, userID string) ([]models.Connection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Connection), args.Error(1)
}

func (m *MockStorage) ListPending(ctx context.Context, userID string) ([]models.Connection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Connection), args.Error(1)
}

func (m *MockStorage) AcceptedPeers(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) IsConnected(ctx context.Context, a, b string) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) RecordReceipt(ctx context.Context, receipt models.MessageReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockStorage) DeleteHistory(ctx context.Context, userID string, peerID *string) (int64, error) {
	args := m.Called(ctx, userID, peerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) MarkOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorage) MarkOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStorage) OnlineUsers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
