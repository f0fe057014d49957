package domain

import (
	"slices"
	"time"
)

// MarketCategory is one of the fixed business categories a market sells in.
type MarketCategory string

const (
	MarketCategoryElectronics MarketCategory = "ELECTRONICS"
	MarketCategoryFashion     MarketCategory = "FASHION"
	MarketCategoryHome        MarketCategory = "HOME"
	MarketCategoryBeauty      MarketCategory = "BEAUTY"
	MarketCategorySports      MarketCategory = "SPORTS"
	MarketCategoryToys        MarketCategory = "TOYS"
	MarketCategoryBooks       MarketCategory = "BOOKS"
	MarketCategoryGrocery     MarketCategory = "GROCERY"
	MarketCategoryAutomotive  MarketCategory = "AUTOMOTIVE"
	MarketCategoryHealth      MarketCategory = "HEALTH"
)

var marketCategories = []MarketCategory{
	MarketCategoryElectronics,
	MarketCategoryFashion,
	MarketCategoryHome,
	MarketCategoryBeauty,
	MarketCategorySports,
	MarketCategoryToys,
	MarketCategoryBooks,
	MarketCategoryGrocery,
	MarketCategoryAutomotive,
	MarketCategoryHealth,
}

// MarketCategories returns the allowed category values.
func MarketCategories() []string {
	out := make([]string, len(marketCategories))
	for i, c := range marketCategories {
		out[i] = string(c)
	}
	return out
}

// IsValid reports whether c belongs to the enumeration.
func (c MarketCategory) IsValid() bool {
	return slices.Contains(marketCategories, c)
}

// RoleMarket is the access token role granted to registered markets.
const RoleMarket = "market"

// Market is a tenant that owns products.
type Market struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	BrandName    string           `json:"brandName"`
	Categories   []MarketCategory `json:"marketCategories"`
	PhoneNumbers []string         `json:"phoneNumbers"`
	Addresses    []Address        `json:"addresses"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Address is a postal address attached to a market.
type Address struct {
	Label       string `json:"label,omitempty"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}
