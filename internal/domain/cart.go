package domain

import (
	"errors"
	"time"
)

// ErrInvalidQuantity is returned when an item is added with a quantity below 1.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Cart is the shopping cart owned by a single session. Items keep the order
// in which their id was first added and ids are unique.
type Cart struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// CartItem is one food line in the cart. UnitPrice is in cents.
type CartItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Add appends item, or accumulates its quantity onto an existing entry with
// the same id. The existing entry's name, price and image are kept.
func (c *Cart) Add(item CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if idx := c.FindItemIndex(item.ID); idx >= 0 {
		c.Items[idx].Quantity += item.Quantity
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

// Remove deletes the entry with the given id. It reports whether anything
// was removed; an absent id is not an error.
func (c *Cart) Remove(id string) bool {
	idx := c.FindItemIndex(id)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// UpdateQuantity sets the quantity of an existing entry. Non-positive
// quantities and absent ids leave the cart unchanged. It reports whether the
// cart was modified.
func (c *Cart) UpdateQuantity(id string, quantity int) bool {
	if quantity <= 0 {
		return false
	}
	idx := c.FindItemIndex(id)
	if idx < 0 || c.Items[idx].Quantity == quantity {
		return false
	}
	c.Items[idx].Quantity = quantity
	return true
}

// Clear empties the cart without discarding it.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// ItemIDs returns the ids of the cart entries in cart order.
func (c *Cart) ItemIDs() []string {
	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ID
	}
	return ids
}

// FindItemIndex returns the index of the entry with the given id, or -1.
func (c *Cart) FindItemIndex(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot returns a deep copy of the cart. Later mutations of c do not
// affect the copy.
func (c *Cart) Snapshot() Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return cp
}
