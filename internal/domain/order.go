package domain

// Payment method labels stored with an order. No payment is processed.
const (
	PaymentCreditCard     = "creditCard"
	PaymentPayPal         = "paypal"
	PaymentCashOnDelivery = "cod"
)

// OrderStatusPending is the status every order is created with.
const OrderStatusPending = "pending"

// OrderForm is the customer data collected at checkout.
type OrderForm struct {
	Name          string `json:"name" validate:"required,max=200"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Address       string `json:"address" validate:"required,max=500"`
	Phone         string `json:"phone" validate:"required,max=40"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=creditCard paypal cod"`
}

// OrderSubmission is the order record handed to the catalog store. Items
// holds the catalog ids of the cart lines at submission time. Total
// includes shipping.
type OrderSubmission struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Address       string   `json:"address"`
	Phone         string   `json:"phone"`
	PaymentMethod string   `json:"payment_method"`
	Status        string   `json:"status"`
	Items         []string `json:"items"`
	Subtotal      int64    `json:"subtotal"`
	Shipping      int64    `json:"shipping"`
	Total         int64    `json:"total"`
}

// NewOrderSubmission builds a pending order from a cart snapshot.
func NewOrderSubmission(form OrderForm, cart Cart, policy ShippingPolicy) OrderSubmission {
	totals := cart.Totals(policy)
	return OrderSubmission{
		Name:          form.Name,
		Email:         form.Email,
		Address:       form.Address,
		Phone:         form.Phone,
		PaymentMethod: form.PaymentMethod,
		Status:        OrderStatusPending,
		Items:         cart.ItemIDs(),
		Subtotal:      totals.Subtotal,
		Shipping:      totals.Shipping,
		Total:         totals.Total,
	}
}

// CreatedOrder is the store's confirmation of a created order.
type CreatedOrder struct {
	ID string `json:"id"`
}
