package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/pkg/database"
	apperrors "github.com/utafrali/marketplace/pkg/errors"
)

const marketColumns = `id, email, password_hash, brand_name, categories, phone_numbers, addresses, created_at, updated_at`

// MarketRepository implements repository.MarketRepository on PostgreSQL.
type MarketRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewMarketRepository creates a PostgreSQL-backed market repository.
func NewMarketRepository(db database.DBTX, tracer *database.QueryTracer) *MarketRepository {
	return &MarketRepository{db: db, tracer: tracer}
}

// Create inserts a market. The email column is unique.
func (r *MarketRepository) Create(ctx context.Context, m *domain.Market) (err error) {
	addresses := m.Addresses
	if addresses == nil {
		addresses = []domain.Address{}
	}
	addressesJSON, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("marshal addresses: %w", err)
	}
	categories := make([]string, len(m.Categories))
	for i, c := range m.Categories {
		categories[i] = string(c)
	}

	query := `
		INSERT INTO markets (` + marketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := r.tracer.Trace(ctx, "CreateMarket", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		m.ID,
		m.Email,
		m.PasswordHash,
		m.BrandName,
		categories,
		m.PhoneNumbers,
		addressesJSON,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("market", "email", m.Email)
		}
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

// GetByID returns (nil, nil) when the market does not exist.
func (r *MarketRepository) GetByID(ctx context.Context, id string) (*domain.Market, error) {
	return r.getOne(ctx, "GetMarket", `SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)
}

// GetByEmail returns (nil, nil) when no market uses email.
func (r *MarketRepository) GetByEmail(ctx context.Context, email string) (*domain.Market, error) {
	return r.getOne(ctx, "GetMarketByEmail", `SELECT `+marketColumns+` FROM markets WHERE lower(email) = lower($1)`, email)
}

func (r *MarketRepository) getOne(ctx context.Context, op, query string, arg string) (m *domain.Market, err error) {
	ctx, end := r.tracer.Trace(ctx, op, query)
	defer func() { end(err) }()

	var (
		market        domain.Market
		categories    []string
		addressesJSON []byte
	)
	err = r.db.QueryRow(ctx, query, arg).Scan(
		&market.ID,
		&market.Email,
		&market.PasswordHash,
		&market.BrandName,
		&categories,
		&market.PhoneNumbers,
		&addressesJSON,
		&market.CreatedAt,
		&market.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan market: %w", err)
	}

	for _, c := range categories {
		market.Categories = append(market.Categories, domain.MarketCategory(c))
	}
	if len(addressesJSON) > 0 {
		if err = json.Unmarshal(addressesJSON, &market.Addresses); err != nil {
			return nil, fmt.Errorf("unmarshal addresses: %w", err)
		}
	}
	return &market, nil
}

// isUniqueViolation reports a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
