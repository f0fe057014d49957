package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketCategories(t *testing.T) {
	all := MarketCategories()
	assert.Len(t, all, 10)
	assert.Contains(t, all, "ELECTRONICS")

	for _, c := range all {
		assert.True(t, MarketCategory(c).IsValid(), c)
	}
	assert.False(t, MarketCategory("WEAPONS").IsValid())
	assert.False(t, MarketCategory("electronics").IsValid())
}

func TestProductPatch_IsEmpty(t *testing.T) {
	assert.True(t, ProductPatch{}.IsEmpty())

	name := "Desk Lamp"
	assert.False(t, ProductPatch{Name: &name}.IsEmpty())
	assert.False(t, ProductPatch{Attributes: map[string]any{}}.IsEmpty())
}
