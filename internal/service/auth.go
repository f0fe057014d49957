package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/marketplace/internal/auth"
	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/internal/dto"
	"github.com/utafrali/marketplace/internal/repository"
	apperrors "github.com/utafrali/marketplace/pkg/errors"
)

// Stable messages carried by internal errors from AuthService.
const (
	ErrRegisterMarketFailed = "REGISTER_MARKET_FAILED"
	ErrExchangeTokenFailed  = "EXCHANGE_TOKEN_FAILED"

	MsgInvalidExchangeToken = "invalid or expired exchange token"
)

// TokenIssuer signs access/refresh token pairs.
type TokenIssuer interface {
	IssuePair(marketID, role string) (*auth.TokenPair, error)
}

// MarketEvents publishes market lifecycle events.
type MarketEvents interface {
	PublishMarketRegistered(ctx context.Context, m *domain.Market) error
}

// AuthConfig tunes AuthService.
type AuthConfig struct {
	BcryptCost       int
	ExchangeTokenTTL time.Duration
}

// Registration is the result of RegisterMarket.
type Registration struct {
	Market        *domain.Market `json:"market"`
	ExchangeToken string         `json:"exchangeToken"`
	ExpiresIn     int64          `json:"expiresIn"`
}

// AuthService registers markets and exchanges one-time tokens for JWTs.
type AuthService struct {
	markets repository.MarketRepository
	tokens  repository.ExchangeTokenStore
	issuer  TokenIssuer
	events  MarketEvents
	logger  Logger
	cfg     AuthConfig
}

// NewAuthService creates an auth service. events may be nil.
func NewAuthService(
	markets repository.MarketRepository,
	tokens repository.ExchangeTokenStore,
	issuer TokenIssuer,
	events MarketEvents,
	logger Logger,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		markets: markets,
		tokens:  tokens,
		issuer:  issuer,
		events:  events,
		logger:  logger,
		cfg:     cfg,
	}
}

// RegisterMarket creates a market from a validated request and hands back a
// one-time exchange token.
func (s *AuthService) RegisterMarket(ctx context.Context, req *dto.MarketRegistrationRequest) (*Registration, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.markets.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.internal(ctx, ErrRegisterMarketFailed, err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("market", "email", email)
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, s.internal(ctx, ErrRegisterMarketFailed, err)
	}

	now := time.Now().UTC()
	market := &domain.Market{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		BrandName:    req.BrandName,
		Categories:   req.DomainCategories(),
		PhoneNumbers: req.PhoneNumbers,
		Addresses:    req.DomainAddresses(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.markets.Create(ctx, market); err != nil {
		if apperrors.KindOf(err) == apperrors.KindAlreadyExists {
			return nil, err
		}
		return nil, s.internal(ctx, ErrRegisterMarketFailed, err)
	}

	token, err := s.tokens.Issue(ctx, market.ID, s.cfg.ExchangeTokenTTL)
	if err != nil {
		return nil, s.internal(ctx, ErrRegisterMarketFailed, err)
	}

	if s.events != nil {
		if err := s.events.PublishMarketRegistered(ctx, market); err != nil {
			s.logger.WarnContext(ctx, "failed to publish event",
				slog.String("event_type", "market.registered"),
				slog.String("market_id", market.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return &Registration{
		Market:        market,
		ExchangeToken: token,
		ExpiresIn:     int64(s.cfg.ExchangeTokenTTL.Seconds()),
	}, nil
}

// ExchangeToken consumes a one-time token and issues a JWT pair for the
// market it belongs to. Each token works once.
func (s *AuthService) ExchangeToken(ctx context.Context, req *dto.ExchangeTokenRequest) (*auth.TokenPair, error) {
	marketID, err := s.tokens.Consume(ctx, req.Token)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, apperrors.Unauthorized(MsgInvalidExchangeToken)
	}
	if err != nil {
		return nil, s.internal(ctx, ErrExchangeTokenFailed, err)
	}

	market, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return nil, s.internal(ctx, ErrExchangeTokenFailed, err)
	}
	if market == nil {
		return nil, apperrors.Unauthorized(MsgInvalidExchangeToken)
	}

	pair, err := s.issuer.IssuePair(market.ID, domain.RoleMarket)
	if err != nil {
		return nil, s.internal(ctx, ErrExchangeTokenFailed, err)
	}
	return pair, nil
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, op, slog.String("error", err.Error()))
	return apperrors.InternalMessage(op, err)
}
