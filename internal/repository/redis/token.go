package redis

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/marketplace/internal/repository"
)

const tokenKeyPrefix = "marketplace:exchange_token:"

// ExchangeTokenStore implements repository.ExchangeTokenStore on Redis.
// Each token is a key holding the market ID with a TTL.
type ExchangeTokenStore struct {
	client goredis.UniversalClient
}

// NewExchangeTokenStore creates a Redis-backed token store.
func NewExchangeTokenStore(client goredis.UniversalClient) *ExchangeTokenStore {
	return &ExchangeTokenStore{client: client}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

// Issue stores a new random token for marketID.
func (s *ExchangeTokenStore) Issue(ctx context.Context, marketID string, ttl time.Duration) (string, error) {
	token := rand.Text()

	ok, err := s.client.SetNX(ctx, tokenKey(token), marketID, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store exchange token: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("store exchange token: key collision")
	}
	return token, nil
}

// Consume atomically reads and deletes the token.
func (s *ExchangeTokenStore) Consume(ctx context.Context, token string) (string, error) {
	marketID, err := s.client.GetDel(ctx, tokenKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", repository.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume exchange token: %w", err)
	}
	return marketID, nil
}
