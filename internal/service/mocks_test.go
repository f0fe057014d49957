package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/marketplace/internal/auth"
	"github.com/utafrali/marketplace/internal/domain"
)

// --- Mock repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Create(ctx context.Context, marketID string, fields domain.ProductFields) (*domain.Product, error) {
	args := m.Called(ctx, marketID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockMarketRepository struct {
	mock.Mock
}

func (m *mockMarketRepository) Create(ctx context.Context, market *domain.Market) error {
	return m.Called(ctx, market).Error(0)
}

func (m *mockMarketRepository) GetByID(ctx context.Context, id string) (*domain.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Market), args.Error(1)
}

func (m *mockMarketRepository) GetByEmail(ctx context.Context, email string) (*domain.Market, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Market), args.Error(1)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Issue(ctx context.Context, marketID string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, marketID, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockTokenStore) Consume(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) IssuePair(marketID, role string) (*auth.TokenPair, error) {
	args := m.Called(marketID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

// --- Mock event publishers ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishProductCreated(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockEvents) PublishProductUpdated(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockEvents) PublishProductDeleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEvents) PublishMarketRegistered(ctx context.Context, market *domain.Market) error {
	return m.Called(ctx, market).Error(0)
}

// --- Recording logger ---

type logEntry struct {
	msg  string
	args []any
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []logEntry
	warns  []logEntry
}

func (l *recordingLogger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, logEntry{msg: msg, args: args})
}

func (l *recordingLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, logEntry{msg: msg, args: args})
}
