package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/pkg/validator"
)

func validRegistration() map[string]any {
	return map[string]any{
		"email":            "owner@acme.test",
		"password":         "Sup3r$ecret",
		"brandName":        "Acme",
		"marketCategories": []any{"ELECTRONICS", "HOME"},
		"phoneNumbers":     []any{"+905551112233", "+905554445566"},
		"addresses": []any{
			map[string]any{
				"line1":       "1 Main St",
				"city":        "Istanbul",
				"postalCode":  "34000",
				"countryCode": "TR",
			},
		},
	}
}

func violationsOf(t *testing.T, err error) *validator.ValidationError {
	t.Helper()
	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr
}

func TestParseExchangeToken(t *testing.T) {
	req, err := ParseExchangeToken(map[string]any{"token": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", req.Token)

	tests := []struct {
		name    string
		payload map[string]any
		rule    string
	}{
		{"missing", map[string]any{}, "defined"},
		{"null", map[string]any{"token": nil}, "defined"},
		{"not a string", map[string]any{"token": 42.0}, "string"},
		{"empty", map[string]any{"token": ""}, "not_empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExchangeToken(tt.payload)
			valErr := violationsOf(t, err)
			require.Len(t, valErr.Violations, 1)
			assert.Equal(t, "token", valErr.Violations[0].Field)
			assert.Equal(t, tt.rule, valErr.Violations[0].Rule)
		})
	}
}

func TestParseMarketRegistration_Valid(t *testing.T) {
	req, err := ParseMarketRegistration(validRegistration(), validator.DefaultPasswordPolicy())
	require.NoError(t, err)

	assert.Equal(t, "owner@acme.test", req.Email)
	assert.Equal(t, []string{"ELECTRONICS", "HOME"}, req.MarketCategories)
	assert.Len(t, req.PhoneNumbers, 2)
	require.Len(t, req.Addresses, 1)
	assert.Equal(t, "Istanbul", req.Addresses[0].City)

	addrs := req.DomainAddresses()
	assert.Equal(t, "TR", addrs[0].CountryCode)
	assert.Equal(t, "ELECTRONICS", string(req.DomainCategories()[0]))
}

func TestParseMarketRegistration_RepeatedCategoriesAccepted(t *testing.T) {
	payload := validRegistration()
	books := make([]any, len(domain.MarketCategories())+1)
	for i := range books {
		books[i] = "BOOKS"
	}
	books[len(books)-1] = "HOME"
	payload["marketCategories"] = books

	req, err := ParseMarketRegistration(payload, validator.DefaultPasswordPolicy())
	require.NoError(t, err)

	assert.Len(t, req.MarketCategories, len(books))
	assert.Equal(t, []domain.MarketCategory{"BOOKS", "HOME"}, req.DomainCategories())
}

func TestParseMarketRegistration_AddressesOptional(t *testing.T) {
	payload := validRegistration()
	delete(payload, "addresses")

	req, err := ParseMarketRegistration(payload, validator.DefaultPasswordPolicy())
	require.NoError(t, err)
	assert.Empty(t, req.Addresses)
}

func TestParseMarketRegistration_MissingRequiredFields(t *testing.T) {
	for _, field := range []string{"email", "password", "brandName", "marketCategories", "phoneNumbers"} {
		t.Run(field, func(t *testing.T) {
			payload := validRegistration()
			delete(payload, field)

			_, err := ParseMarketRegistration(payload, validator.DefaultPasswordPolicy())
			valErr := violationsOf(t, err)
			assert.True(t, valErr.Has(field))
			assert.Len(t, valErr.Violations, 1)
		})
	}
}

func TestParseMarketRegistration_Rules(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		rule    string
		message string
	}{
		{"bad email", "email", "not-an-email", "email", ""},
		{"empty email", "email", "", "not_empty", ""},
		{"weak password no upper", "password", "sup3r$ecret", "strong_password", ""},
		{"weak password no digit", "password", "Super$ecret", "strong_password", ""},
		{"weak password no symbol", "password", "Sup3rSecret", "strong_password", ""},
		{"short password", "password", "S3$a", "strong_password", ""},
		{"empty brand", "brandName", "", "not_empty", ""},
		{"brand not a string", "brandName", 7.0, "string", ""},
		{"categories not a list", "marketCategories", "ELECTRONICS", "array", ""},
		{"categories empty", "marketCategories", []any{}, "array_size", "marketCategories must contain at least 1 element"},
		{"unknown category", "marketCategories", []any{"ELECTRONICS", "WEAPONS"}, "each_in", ""},
		{"category not a string", "marketCategories", []any{1.0}, "each_string", ""},
		{"one phone", "phoneNumbers", []any{"+90555"}, "array_size", PhoneNumbersMessage},
		{"three phones", "phoneNumbers", []any{"1", "2", "3"}, "array_size", PhoneNumbersMessage},
		{"no phones", "phoneNumbers", []any{}, "array_size", PhoneNumbersMessage},
		{"phone not a string", "phoneNumbers", []any{"1", 2.0}, "each_string", ""},
		{"addresses not a list", "addresses", map[string]any{}, "array", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validRegistration()
			payload[tt.field] = tt.value

			_, err := ParseMarketRegistration(payload, validator.DefaultPasswordPolicy())
			valErr := violationsOf(t, err)
			require.Len(t, valErr.Violations, 1)
			v := valErr.Violations[0]
			assert.Equal(t, tt.field, v.Field)
			assert.Equal(t, tt.rule, v.Rule)
			if tt.message != "" {
				assert.Equal(t, tt.message, v.Message)
			}
		})
	}
}

func TestParseMarketRegistration_NestedAddressViolations(t *testing.T) {
	payload := validRegistration()
	payload["addresses"] = []any{
		map[string]any{"line1": "1 Main St", "city": "Ankara", "postalCode": "06000", "countryCode": "TR"},
		map[string]any{"line1": "", "city": "Izmir", "postalCode": "35000", "countryCode": "TUR"},
		"not an object",
	}

	_, err := ParseMarketRegistration(payload, validator.DefaultPasswordPolicy())
	valErr := violationsOf(t, err)

	var fields []string
	for _, v := range valErr.Violations {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"addresses[1].line1", "addresses[1].countryCode", "addresses[2]"}, fields)
}

func TestParseMarketRegistration_CustomPolicy(t *testing.T) {
	payload := validRegistration()
	payload["password"] = "alllowercase"

	relaxed := validator.PasswordPolicy{MinLength: 6, MinLowercase: 1}
	_, err := ParseMarketRegistration(payload, relaxed)
	assert.NoError(t, err)
}
