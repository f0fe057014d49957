package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validatorFor(token string, claims *Claims) TokenValidator {
	return func(got string) (*Claims, error) {
		if got != token {
			return nil, errors.New("bad token")
		}
		return claims, nil
	}
}

func TestAuth(t *testing.T) {
	validate := validatorFor("good", &Claims{MarketID: "m-1", Role: "market"})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
		{"scheme is case insensitive", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMarket, gotRole string
			h := Auth(validate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMarket = MarketIDFromContext(r.Context())
				gotRole = RoleFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "m-1", gotMarket)
				assert.Equal(t, "market", gotRole)
			} else {
				assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestAuth_RejectsClaimsWithoutMarket(t *testing.T) {
	h := Auth(validatorFor("t", &Claims{Role: "market"}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireRole("market")(ok)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(WithMarket(req.Context(), "m-1", "market"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(WithMarket(req.Context(), "m-1", "shopper"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}
