package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotals(t *testing.T) {
	policy := DefaultShippingPolicy()

	tests := []struct {
		name     string
		items    []CartItem
		subtotal int64
		shipping int64
		total    int64
	}{
		{"empty cart pays flat fee", nil, 0, 3000, 3000},
		{"below threshold", []CartItem{item("a", 1000, 2), item("b", 500, 1)}, 2500, 3000, 5500},
		{"above threshold ships free", []CartItem{item("a", 3000, 2)}, 6000, 0, 6000},
		{"exactly at threshold pays fee", []CartItem{item("a", 2500, 2)}, 5000, 3000, 8000},
		{"one cent above threshold", []CartItem{item("a", 5001, 1)}, 5001, 0, 5001},
		{"zero price items", []CartItem{item("a", 0, 5)}, 0, 3000, 3000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &Cart{Items: tc.items}
			got := c.Totals(policy)
			assert.Equal(t, tc.subtotal, got.Subtotal)
			assert.Equal(t, tc.shipping, got.Shipping)
			assert.Equal(t, tc.total, got.Total)
		})
	}
}

func TestTotals_ReflectLiveCart(t *testing.T) {
	c := &Cart{Items: []CartItem{item("a", 3000, 1)}}
	assert.Equal(t, int64(3000), c.Totals(DefaultShippingPolicy()).Shipping)

	c.UpdateQuantity("a", 2)
	got := c.Totals(DefaultShippingPolicy())
	assert.Equal(t, int64(6000), got.Subtotal)
	assert.Equal(t, int64(0), got.Shipping)
	assert.Equal(t, 2, got.ItemCount)
}

func TestShippingPolicy_Custom(t *testing.T) {
	p := ShippingPolicy{FreeThreshold: 10000, FlatFee: 499}
	assert.Equal(t, int64(499), p.Shipping(10000))
	assert.Equal(t, int64(0), p.Shipping(10001))
}
