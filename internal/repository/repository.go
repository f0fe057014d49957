package repository

import (
	"context"
	"errors"
	"time"

	"github.com/utafrali/marketplace/internal/domain"
)

// ErrTokenNotFound is returned by ExchangeTokenStore.Consume for unknown,
// expired or already used tokens.
var ErrTokenNotFound = errors.New("exchange token not found")

// ProductRepository is the persistence gateway for products.
type ProductRepository interface {
	// GetByID returns (nil, nil) when no product has the given id.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// Create stores a new product owned by marketID and returns it.
	Create(ctx context.Context, marketID string, fields domain.ProductFields) (*domain.Product, error)

	// Update applies patch to the product and returns the stored result. A
	// product that vanished after the caller's existence check yields an error
	// wrapping pgx.ErrNoRows, not (nil, nil).
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)

	// Delete removes the product. Deleting a missing product is not an error.
	Delete(ctx context.Context, id string) error
}

// MarketRepository persists markets.
type MarketRepository interface {
	// Create stores market. A duplicate email yields an AlreadyExists error.
	Create(ctx context.Context, market *domain.Market) error

	// GetByID returns (nil, nil) when no market has the given id.
	GetByID(ctx context.Context, id string) (*domain.Market, error)

	// GetByEmail returns (nil, nil) when no market has the given email.
	GetByEmail(ctx context.Context, email string) (*domain.Market, error)
}

// ExchangeTokenStore keeps one-time tokens handed out at registration.
type ExchangeTokenStore interface {
	// Issue creates a token for marketID that expires after ttl.
	Issue(ctx context.Context, marketID string, ttl time.Duration) (string, error)

	// Consume returns the market the token was issued for and invalidates it.
	Consume(ctx context.Context, token string) (string, error)
}
