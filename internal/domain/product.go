package domain

import "time"

// DefaultProductDisplayImage is shown for every newly created product until
// the market uploads its own image.
const DefaultProductDisplayImage = "https://cdn.marketplace.local/images/product-placeholder.png"

// Product is a catalog item owned by a single market.
type Product struct {
	ID           string         `json:"id"`
	MarketID     string         `json:"marketId"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Price        int64          `json:"price"`
	Currency     string         `json:"currency"`
	Stock        int            `json:"stock"`
	DisplayImage string         `json:"displayImage"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ProductFields is the caller-supplied data for a new product. Price is in
// minor currency units.
type ProductFields struct {
	Name         string         `json:"name" validate:"required,max=200"`
	Description  string         `json:"description" validate:"max=5000"`
	Price        int64          `json:"price" validate:"gte=0"`
	Currency     string         `json:"currency" validate:"required,len=3"`
	Stock        int            `json:"stock" validate:"gte=0"`
	DisplayImage string         `json:"displayImage"`
	Attributes   map[string]any `json:"attributes"`
}

// ProductPatch is a partial update. Nil fields are left unchanged.
type ProductPatch struct {
	Name         *string        `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string        `json:"description" validate:"omitempty,max=5000"`
	Price        *int64         `json:"price" validate:"omitempty,gte=0"`
	Currency     *string        `json:"currency" validate:"omitempty,len=3"`
	Stock        *int           `json:"stock" validate:"omitempty,gte=0"`
	DisplayImage *string        `json:"displayImage"`
	Attributes   map[string]any `json:"attributes"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Currency == nil &&
		p.Stock == nil && p.DisplayImage == nil && p.Attributes == nil
}
