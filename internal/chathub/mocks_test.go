package chathub_test

import (
	"context"
	"sync"

	"babelbye/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of chathub.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) IsConnected(ctx context.Context, a, b string) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) SpendQuota(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RecordReceipt(ctx context.Context, receipt models.MessageReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

// MockTranslator is a testify mock of chathub.Translator.
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	args := m.Called(ctx, text, targetLocale)
	return args.String(0), args.Error(1)
}

// MockClient records every event delivered to it.
type MockClient struct {
	userID string

	mu     sync.Mutex
	events []models.ServerEvent
	closed bool
}

func newMockClient(userID string) *MockClient {
	return &MockClient{userID: userID}
}

func (c *MockClient) GetUserID() string { return c.userID }

func (c *MockClient) Deliver(evt models.ServerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.events = append(c.events, evt)
	return true
}

func (c *MockClient) Run() {}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *MockClient) Events() []models.ServerEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ServerEvent(nil), c.events...)
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// memStore is an in-memory Store for property-style tests.
type memStore struct {
	mu        sync.Mutex
	connected map[[2]string]bool
	users     map[string]*models.User
	receipts  []models.MessageReceipt
	quotaOps  int
}

func newMemStore() *memStore {
	return &memStore{connected: map[[2]string]bool{}, users: map[string]*models.User{}}
}

func (s *memStore) connect(a, b string) {
	s.connected[[2]string{a, b}] = true
	s.connected[[2]string{b, a}] = true
}

func (s *memStore) addUser(id, lang string, quota int) {
	s.users[id] = &models.User{ID: id, NativeLanguage: lang, TranslationQuotaRemaining: quota}
}

func (s *memStore) IsConnected(_ context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected[[2]string{a, b}], nil
}

func (s *memStore) GetProfile(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) SpendQuota(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	if u == nil || u.TranslationQuotaRemaining <= 0 {
		return false, nil
	}
	s.quotaOps++
	u.TranslationQuotaRemaining--
	return true, nil
}

func (s *memStore) RecordReceipt(_ context.Context, r models.MessageReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
	return nil
}
