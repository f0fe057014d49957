package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/pkg/database"
)

const productColumns = `id, market_id, name, description, price, currency, stock, display_image, attributes, created_at, updated_at`

// ProductRepository implements repository.ProductRepository on PostgreSQL.
type ProductRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX, tracer *database.QueryTracer) *ProductRepository {
	return &ProductRepository{db: db, tracer: tracer}
}

// GetByID retrieves a product, returning (nil, nil) when it does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := r.tracer.Trace(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p, err = scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Create inserts a product owned by marketID.
func (r *ProductRepository) Create(ctx context.Context, marketID string, f domain.ProductFields) (p *domain.Product, err error) {
	attrs := f.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	query := `
		INSERT INTO products (id, market_id, name, description, price, currency, stock, display_image, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + productColumns

	ctx, end := r.tracer.Trace(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	now := time.Now().UTC()
	row := r.db.QueryRow(ctx, query,
		uuid.New().String(),
		marketID,
		f.Name,
		f.Description,
		f.Price,
		strings.ToUpper(f.Currency),
		f.Stock,
		f.DisplayImage,
		attrsJSON,
		now,
	)
	if p, err = scanProduct(row); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of patch.
func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (p *domain.Product, err error) {
	var attrsJSON []byte
	if patch.Attributes != nil {
		if attrsJSON, err = json.Marshal(patch.Attributes); err != nil {
			return nil, fmt.Errorf("marshal attributes: %w", err)
		}
	}
	var currency *string
	if patch.Currency != nil {
		c := strings.ToUpper(*patch.Currency)
		currency = &c
	}

	query := `
		UPDATE products SET
			name          = COALESCE($2, name),
			description   = COALESCE($3, description),
			price         = COALESCE($4, price),
			currency      = COALESCE($5, currency),
			stock         = COALESCE($6, stock),
			display_image = COALESCE($7, display_image),
			attributes    = COALESCE($8, attributes),
			updated_at    = $9
		WHERE id = $1
		RETURNING ` + productColumns

	ctx, end := r.tracer.Trace(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	row := r.db.QueryRow(ctx, query,
		id,
		patch.Name,
		patch.Description,
		patch.Price,
		currency,
		patch.Stock,
		patch.DisplayImage,
		attrsJSON,
		time.Now().UTC(),
	)
	if p, err = scanProduct(row); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

// Delete removes a product. The affected row count is ignored.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := r.tracer.Trace(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p         domain.Product
		attrsJSON []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.MarketID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Currency,
		&p.Stock,
		&p.DisplayImage,
		&attrsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(attrsJSON) > 0 {
		if err := json.Unmarshal(attrsJSON, &p.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	return &p, nil
}
