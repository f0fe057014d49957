package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/marketplace/internal/domain"
	apperrors "github.com/utafrali/marketplace/pkg/errors"
	"github.com/utafrali/marketplace/pkg/httputil"
	"github.com/utafrali/marketplace/pkg/middleware"
	"github.com/utafrali/marketplace/pkg/validator"
)

// ProductService is the product behaviour the HTTP layer depends on.
type ProductService interface {
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, marketID string, fields domain.ProductFields) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
}

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// DeleteProductResponse is returned by DeleteProduct.
type DeleteProductResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProductByID(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// CreateProduct handles POST /api/v1/products. The owning market comes from
// the access token, never from the body.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	marketID := middleware.MarketIDFromContext(r.Context())
	if marketID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var fields domain.ProductFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httputil.WriteBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := validator.Struct(fields); err != nil {
		httputil.WriteError(w, r, apperrors.Validation(err), h.logger)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), marketID, fields)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id}. Absent fields are left unchanged.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	var patch domain.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.WriteBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if patch.IsEmpty() {
		httputil.WriteBadRequest(w, "at least one field must be provided")
		return
	}
	if err := validator.Struct(patch); err != nil {
		httputil.WriteError(w, r, apperrors.Validation(err), h.logger)
		return
	}
	if !h.authorizeOwner(w, r, id.String()) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), patch)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if !h.authorizeOwner(w, r, id.String()) {
		return
	}

	deleted, err := h.service.DeleteProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: DeleteProductResponse{ID: id.String(), Deleted: deleted},
	})
}

// authorizeOwner rejects writes to a product owned by another market. A
// product that cannot be found is left to the write itself, so update and
// delete keep their own not-found behaviour.
func (h *ProductHandler) authorizeOwner(w http.ResponseWriter, r *http.Request, id string) bool {
	product, err := h.service.GetProductByID(r.Context(), id)
	switch {
	case apperrors.KindOf(err) == apperrors.KindNotFound:
		return true
	case err != nil:
		httputil.WriteError(w, r, err, h.logger)
		return false
	case product.MarketID != middleware.MarketIDFromContext(r.Context()):
		httputil.WriteError(w, r, apperrors.Forbidden("product belongs to another market"), h.logger)
		return false
	}
	return true
}
