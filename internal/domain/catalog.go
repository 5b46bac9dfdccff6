package domain

// Catalog record types held by the content store.
const (
	TypeFood  = "food"
	TypeChef  = "chef"
	TypeOrder = "order"
)

// DefaultMenuPrice is shown for menu entries that have no price set (19.99).
const DefaultMenuPrice int64 = 1999

// FoodSummary is the projection used by listings and search.
type FoodSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// Food is the full food record shown on the detail page. Prices are in cents.
type Food struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         int64    `json:"price"`
	OriginalPrice *int64   `json:"original_price,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags"`
	Available     bool     `json:"available"`
}

// CartItem converts the food into a cart line of the given quantity.
func (f *Food) CartItem(quantity int) CartItem {
	return CartItem{
		ID:        f.ID,
		Name:      f.Name,
		UnitPrice: f.Price,
		ImageURL:  f.ImageURL,
		Quantity:  quantity,
	}
}

// Chef is a member of the kitchen team.
type Chef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
