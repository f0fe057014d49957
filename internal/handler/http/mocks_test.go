package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/marketplace/internal/auth"
	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/internal/dto"
	"github.com/utafrali/marketplace/internal/service"
)

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductService) CreateProduct(ctx context.Context, marketID string, fields domain.ProductFields) (*domain.Product, error) {
	args := m.Called(ctx, marketID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) RegisterMarket(ctx context.Context, req *dto.MarketRegistrationRequest) (*service.Registration, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Registration), args.Error(1)
}

func (m *mockAuthService) ExchangeToken(ctx context.Context, req *dto.ExchangeTokenRequest) (*auth.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}
