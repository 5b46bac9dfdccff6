package domain

// Default shipping policy: free delivery above 50.00, otherwise a flat 30.00.
const (
	DefaultFreeShippingThreshold int64 = 5000
	DefaultFlatShippingFee       int64 = 3000
)

// ShippingPolicy decides the delivery charge for a subtotal. All amounts
// are in cents.
type ShippingPolicy struct {
	FreeThreshold int64 `json:"free_threshold"`
	FlatFee       int64 `json:"flat_fee"`
}

// DefaultShippingPolicy returns the storefront's standard policy.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: DefaultFreeShippingThreshold,
		FlatFee:       DefaultFlatShippingFee,
	}
}

// Shipping returns 0 when subtotal is strictly above the threshold and the
// flat fee otherwise, including for an empty cart.
func (p ShippingPolicy) Shipping(subtotal int64) int64 {
	if subtotal > p.FreeThreshold {
		return 0
	}
	return p.FlatFee
}

// Totals is derived from a cart on every read and never persisted with it.
type Totals struct {
	Subtotal  int64 `json:"subtotal"`
	Shipping  int64 `json:"shipping"`
	Total     int64 `json:"total"`
	ItemCount int   `json:"item_count"`
}

// Subtotal sums unit price times quantity over all items (in cents).
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}
	return subtotal
}

// Totals computes subtotal, shipping and total under the given policy.
func (c *Cart) Totals(policy ShippingPolicy) Totals {
	subtotal := c.Subtotal()
	shipping := policy.Shipping(subtotal)
	return Totals{
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal + shipping,
		ItemCount: c.ItemCount(),
	}
}
