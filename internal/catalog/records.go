package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/foodtuck/storefront/internal/domain"
	"github.com/foodtuck/storefront/pkg/validator"
)

var hundred = decimal.NewFromInt(100)

// foodRecord is a food document as projected by our queries. Prices arrive
// as JSON numbers in currency units.
type foodRecord struct {
	ID            string              `json:"_id" validate:"required,catalogid"`
	Name          string              `json:"name" validate:"required"`
	Price         decimal.NullDecimal `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	ImageURL      string              `json:"imageUrl"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Tags          []string            `json:"tags"`
	Available     *bool               `json:"available"`
}

type chefRecord struct {
	ID       string `json:"_id" validate:"required,catalogid"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role"`
	ImageURL string `json:"imageUrl"`
}

// toCents converts a currency amount to integer cents, rounding half away
// from zero. Negative amounts are rejected.
func toCents(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", d.String())
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// fromCents renders cents as a JSON number in currency units, e.g. 5500 as 55.00.
func fromCents(cents int64) json.Number {
	return json.Number(decimal.New(cents, -2).StringFixed(2))
}

func (r *foodRecord) validate() error {
	if err := validator.Validate(r); err != nil {
		return fmt.Errorf("food record %q: %w", r.ID, err)
	}
	return nil
}

// summary converts the record, substituting defaultPrice when the document
// has no price. A zero defaultPrice makes a missing price an error.
func (r *foodRecord) summary(defaultPrice int64) (domain.FoodSummary, error) {
	if err := r.validate(); err != nil {
		return domain.FoodSummary{}, err
	}
	price, err := r.price(defaultPrice)
	if err != nil {
		return domain.FoodSummary{}, err
	}
	return domain.FoodSummary{
		ID:       r.ID,
		Name:     r.Name,
		Price:    price,
		ImageURL: r.ImageURL,
	}, nil
}

func (r *foodRecord) food() (*domain.Food, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	price, err := r.price(0)
	if err != nil {
		return nil, err
	}

	f := &domain.Food{
		ID:          r.ID,
		Name:        r.Name,
		Price:       price,
		ImageURL:    r.ImageURL,
		Description: r.Description,
		Category:    r.Category,
		Tags:        r.Tags,
		Available:   r.Available == nil || *r.Available,
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if r.OriginalPrice.Valid {
		original, err := toCents(r.OriginalPrice.Decimal)
		if err != nil {
			return nil, fmt.Errorf("food record %q original price: %w", r.ID, err)
		}
		f.OriginalPrice = &original
	}
	return f, nil
}

func (r *foodRecord) price(defaultPrice int64) (int64, error) {
	if !r.Price.Valid {
		if defaultPrice > 0 {
			return defaultPrice, nil
		}
		return 0, fmt.Errorf("food record %q has no price", r.ID)
	}
	cents, err := toCents(r.Price.Decimal)
	if err != nil {
		return 0, fmt.Errorf("food record %q price: %w", r.ID, err)
	}
	return cents, nil
}

func (r *chefRecord) chef() (domain.Chef, error) {
	if err := validator.Validate(r); err != nil {
		return domain.Chef{}, fmt.Errorf("chef record %q: %w", r.ID, err)
	}
	return domain.Chef{ID: r.ID, Name: r.Name, Role: r.Role, ImageURL: r.ImageURL}, nil
}

// reference points at another document. Array members need a _key unique
// within the array.
type reference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
	Key  string `json:"_key"`
}

// orderDocument is the order record created at checkout.
type orderDocument struct {
	Type          string      `json:"_type"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Address       string      `json:"address"`
	Phone         string      `json:"phone"`
	PaymentMethod string      `json:"paymentMethod"`
	Status        string      `json:"status"`
	Items         []reference `json:"items"`
	Subtotal      json.Number `json:"subtotal"`
	Shipping      json.Number `json:"shipping"`
	Total         json.Number `json:"total"`
}

func newOrderDocument(sub domain.OrderSubmission) orderDocument {
	items := make([]reference, len(sub.Items))
	for i, id := range sub.Items {
		items[i] = reference{Type: "reference", Ref: id, Key: fmt.Sprintf("item-%d", i)}
	}
	return orderDocument{
		Type:          domain.TypeOrder,
		Name:          sub.Name,
		Email:         sub.Email,
		Address:       sub.Address,
		Phone:         sub.Phone,
		PaymentMethod: sub.PaymentMethod,
		Status:        sub.Status,
		Items:         items,
		Subtotal:      fromCents(sub.Subtotal),
		Shipping:      fromCents(sub.Shipping),
		Total:         fromCents(sub.Total),
	}
}

// foodDocument is a food record as written by the seeding tool.
type foodDocument struct {
	Type          string       `json:"_type"`
	ID            string       `json:"_id,omitempty"`
	Name          string       `json:"name"`
	Price         json.Number  `json:"price"`
	OriginalPrice *json.Number `json:"originalPrice,omitempty"`
	Description   string       `json:"description,omitempty"`
	Category      string       `json:"category,omitempty"`
	Tags          []string     `json:"tags"`
	Available     bool         `json:"available"`
}

func newFoodDocument(f domain.Food) foodDocument {
	doc := foodDocument{
		Type:        domain.TypeFood,
		ID:          f.ID,
		Name:        f.Name,
		Price:       fromCents(f.Price),
		Description: f.Description,
		Category:    f.Category,
		Tags:        f.Tags,
		Available:   f.Available,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if f.OriginalPrice != nil {
		original := fromCents(*f.OriginalPrice)
		doc.OriginalPrice = &original
	}
	return doc
}

type chefDocument struct {
	Type string `json:"_type"`
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}
