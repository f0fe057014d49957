// Package dto holds the request contracts accepted by the HTTP layer. Each
// contract is a rule table evaluated by pkg/validator before any business
// logic runs.
package dto

import (
	"slices"

	"github.com/utafrali/marketplace/internal/domain"
	"github.com/utafrali/marketplace/pkg/validator"
)

// PhoneNumbersMessage is reported when phoneNumbers does not hold exactly two entries.
const PhoneNumbersMessage = "phoneNumbers must contain 2 elements"

// ExchangeTokenRequest trades a one-time registration token for a JWT pair.
type ExchangeTokenRequest struct {
	Token string `json:"token"`
}

// MarketRegistrationRequest registers a new market.
type MarketRegistrationRequest struct {
	Email            string           `json:"email"`
	Password         string           `json:"password"`
	BrandName        string           `json:"brandName"`
	MarketCategories []string         `json:"marketCategories"`
	PhoneNumbers     []string         `json:"phoneNumbers"`
	Addresses        []AddressRequest `json:"addresses"`
}

// AddressRequest is one entry of MarketRegistrationRequest.Addresses.
type AddressRequest struct {
	Label       string `json:"label"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}

// ExchangeTokenSchema is the rule table for ExchangeTokenRequest.
var ExchangeTokenSchema = validator.Schema{
	Name: "ExchangeTokenRequest",
	Fields: []validator.Field{
		{Name: "token", Rules: []validator.Rule{validator.Defined(), validator.String(), validator.NotEmpty()}},
	},
}

func requiredString() []validator.Rule {
	return []validator.Rule{validator.Defined(), validator.String(), validator.NotEmpty()}
}

func optionalString() []validator.Rule {
	return []validator.Rule{validator.String()}
}

// AddressSchema validates each element of addresses.
var AddressSchema = validator.Schema{
	Name: "AddressRequest",
	Fields: []validator.Field{
		{Name: "label", Optional: true, Rules: optionalString()},
		{Name: "line1", Rules: requiredString()},
		{Name: "line2", Optional: true, Rules: optionalString()},
		{Name: "city", Rules: requiredString()},
		{Name: "state", Optional: true, Rules: optionalString()},
		{Name: "postalCode", Rules: requiredString()},
		{Name: "countryCode", Rules: append(requiredString(), validator.Length(2))},
	},
}

// MarketRegistrationSchema builds the rule table for MarketRegistrationRequest
// using the configured password policy.
func MarketRegistrationSchema(policy validator.PasswordPolicy) validator.Schema {
	return validator.Schema{
		Name: "MarketRegistrationRequest",
		Fields: []validator.Field{
			{Name: "email", Rules: []validator.Rule{
				validator.Defined(), validator.NotEmpty(), validator.Email(),
			}},
			{Name: "password", Rules: []validator.Rule{
				validator.Defined(), validator.NotEmpty(), validator.String(), validator.StrongPassword(policy),
			}},
			{Name: "brandName", Rules: []validator.Rule{
				validator.Defined(), validator.NotEmpty(), validator.String(),
			}},
			{Name: "marketCategories", Rules: []validator.Rule{
				validator.Defined(),
				validator.Array(),
				validator.MinSize(1, "marketCategories must contain at least 1 element"),
				validator.EachString(),
				validator.EachIn(domain.MarketCategories()),
			}},
			{Name: "phoneNumbers", Rules: []validator.Rule{
				validator.Defined(),
				validator.Array(),
				validator.EachString(),
				validator.ArraySize(2, 2, PhoneNumbersMessage),
			}},
			{Name: "addresses", Optional: true, Rules: []validator.Rule{validator.Array()}, Nested: &AddressSchema},
		},
	}
}

// ParseExchangeToken validates payload and returns the typed request.
func ParseExchangeToken(payload map[string]any) (*ExchangeTokenRequest, error) {
	var req ExchangeTokenRequest
	if err := validator.Decode(ExchangeTokenSchema, payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseMarketRegistration validates payload against the registration rules
// and returns the typed request.
func ParseMarketRegistration(payload map[string]any, policy validator.PasswordPolicy) (*MarketRegistrationRequest, error) {
	var req MarketRegistrationRequest
	if err := validator.Decode(MarketRegistrationSchema(policy), payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DomainAddresses converts the address list into domain addresses.
func (r *MarketRegistrationRequest) DomainAddresses() []domain.Address {
	out := make([]domain.Address, 0, len(r.Addresses))
	for _, a := range r.Addresses {
		out = append(out, domain.Address{
			Label:       a.Label,
			Line1:       a.Line1,
			Line2:       a.Line2,
			City:        a.City,
			State:       a.State,
			PostalCode:  a.PostalCode,
			CountryCode: a.CountryCode,
		})
	}
	return out
}

// DomainCategories converts the category names into domain values, keeping
// the first occurrence of each.
func (r *MarketRegistrationRequest) DomainCategories() []domain.MarketCategory {
	out := make([]domain.MarketCategory, 0, len(r.MarketCategories))
	for _, c := range r.MarketCategories {
		if cat := domain.MarketCategory(c); !slices.Contains(out, cat) {
			out = append(out, cat)
		}
	}
	return out
}
