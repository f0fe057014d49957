package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/marketplace/internal/auth"
	"github.com/utafrali/marketplace/internal/dto"
	"github.com/utafrali/marketplace/internal/service"
	apperrors "github.com/utafrali/marketplace/pkg/errors"
	"github.com/utafrali/marketplace/pkg/httputil"
	"github.com/utafrali/marketplace/pkg/validator"
)

// AuthService is the market onboarding behaviour the HTTP layer depends on.
type AuthService interface {
	RegisterMarket(ctx context.Context, req *dto.MarketRegistrationRequest) (*service.Registration, error)
	ExchangeToken(ctx context.Context, req *dto.ExchangeTokenRequest) (*auth.TokenPair, error)
}

// AuthHandler handles market registration and token exchange. Bodies are read
// as untyped JSON and checked against the dto rule tables before any service
// call.
type AuthHandler struct {
	service AuthService
	policy  validator.PasswordPolicy
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc AuthService, policy validator.PasswordPolicy, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, policy: policy, logger: logger}
}

// RegisterMarket handles POST /api/v1/auth/markets/register
func (h *AuthHandler) RegisterMarket(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}

	req, err := dto.ParseMarketRegistration(payload, h.policy)
	if err != nil {
		h.writeParseError(w, r, err)
		return
	}

	reg, err := h.service.RegisterMarket(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: reg})
}

// ExchangeToken handles POST /api/v1/auth/token/exchange
func (h *AuthHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}

	req, err := dto.ParseExchangeToken(payload)
	if err != nil {
		h.writeParseError(w, r, err)
		return
	}

	pair, err := h.service.ExchangeToken(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pair})
}

func (h *AuthHandler) readPayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)

	payload, err := validator.ReadPayload(r.Body)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid request body")
		return nil, false
	}
	return payload, true
}

func (h *AuthHandler) writeParseError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteError(w, r, apperrors.Validation(err), h.logger)
		return
	}
	// Rules passed but the payload still did not fit the typed request.
	httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
}
