package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/internal/repository"
	apperrors "github.com/utafrali/marketplace/pkg/errors"
)

// Stable messages carried by errors returned from ProductService.
const (
	ErrGetProductByIDFailed = "GET_PRODUCT_BY_ID_FAILED"
	ErrCreateProductFailed  = "CREATE_PRODUCT_FAILED"
	ErrUpdateProductFailed  = "UPDATE_PRODUCT_FAILED"
	ErrDeleteProductFailed  = "DELETE_PRODUCT_FAILED"
	ErrProductNotFound      = "PRODUCT_NOT_FOUND"

	MsgProductNotFound = "Product not found"
)

// Logger is the logging capability the services need. *slog.Logger
// satisfies it.
type Logger interface {
	ErrorContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
}

// ProductEvents publishes product lifecycle events.
type ProductEvents interface {
	PublishProductCreated(ctx context.Context, p *domain.Product) error
	PublishProductUpdated(ctx context.Context, p *domain.Product) error
	PublishProductDeleted(ctx context.Context, id string) error
}

// ProductService implements product CRUD on top of a ProductRepository.
// Every failure other than a missing product on lookup is logged once and
// returned as an internal error carrying the operation's message constant.
type ProductService struct {
	repo         repository.ProductRepository
	events       ProductEvents
	logger       Logger
	defaultImage string
}

// NewProductService creates a product service. events may be nil. An empty
// defaultImage selects domain.DefaultProductDisplayImage.
func NewProductService(repo repository.ProductRepository, events ProductEvents, logger Logger, defaultImage string) *ProductService {
	if defaultImage == "" {
		defaultImage = domain.DefaultProductDisplayImage
	}
	return &ProductService{
		repo:         repo,
		events:       events,
		logger:       logger,
		defaultImage: defaultImage,
	}
}

// GetProductByID returns the stored product. A missing product yields a
// NotFound error with MsgProductNotFound.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, ErrGetProductByIDFailed, apperrors.KindInternal, err)
	}
	if product == nil {
		return nil, s.fail(ctx, ErrGetProductByIDFailed, apperrors.KindNotFound, apperrors.NotFound(MsgProductNotFound))
	}
	return product, nil
}

// CreateProduct stores a new product owned by marketID. The display image is
// always the configured default, see withDefaultDisplayImage.
func (s *ProductService) CreateProduct(ctx context.Context, marketID string, fields domain.ProductFields) (*domain.Product, error) {
	product, err := s.repo.Create(ctx, marketID, withDefaultDisplayImage(fields, s.defaultImage))
	if err != nil {
		return nil, s.fail(ctx, ErrCreateProductFailed, apperrors.KindInternal, err)
	}

	if s.events != nil {
		if err := s.events.PublishProductCreated(ctx, product); err != nil {
			s.warnPublish(ctx, "product.created", product.ID, err)
		}
	}
	return product, nil
}

// UpdateProduct checks that the product exists, then passes patch to the
// repository unchanged. A missing product is reported as an internal error,
// not as NotFound.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, ErrUpdateProductFailed, apperrors.KindInternal, err)
	}
	if existing == nil {
		return nil, s.fail(ctx, ErrUpdateProductFailed, apperrors.KindNotFound, apperrors.NotFound(ErrProductNotFound))
	}

	product, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, ErrUpdateProductFailed, apperrors.KindInternal, err)
	}

	if s.events != nil {
		if err := s.events.PublishProductUpdated(ctx, product); err != nil {
			s.warnPublish(ctx, "product.updated", product.ID, err)
		}
	}
	return product, nil
}

// DeleteProduct removes the product and reports true. Whether a row was
// actually removed is not checked.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return false, s.fail(ctx, ErrDeleteProductFailed, apperrors.KindInternal, err)
	}

	if s.events != nil {
		if err := s.events.PublishProductDeleted(ctx, id); err != nil {
			s.warnPublish(ctx, "product.deleted", id, err)
		}
	}
	return true, nil
}

// fail is the only place product failures are mapped to caller-visible
// errors. Repository errors always arrive as KindInternal, so a NotFound
// produced inside a repository can never leak through the first case.
func (s *ProductService) fail(ctx context.Context, op string, kind apperrors.Kind, cause error) error {
	switch kind {
	case apperrors.KindNotFound:
		if op == ErrGetProductByIDFailed {
			return cause
		}
		// UpdateProduct masks its existence check as an internal failure.
	}

	s.logger.ErrorContext(ctx, op, slog.String("error", cause.Error()))
	return apperrors.InternalMessage(op, cause)
}

func (s *ProductService) warnPublish(ctx context.Context, eventType, productID string, err error) {
	s.logger.WarnContext(ctx, "failed to publish event",
		slog.String("event_type", eventType),
		slog.String("product_id", productID),
		slog.String("error", err.Error()),
	)
}

// withDefaultDisplayImage applies the default display image after the caller
// data, so any caller-supplied image is overwritten. Swap the precedence here
// if caller images should win.
func withDefaultDisplayImage(fields domain.ProductFields, image string) domain.ProductFields {
	fields.DisplayImage = image
	return fields
}
