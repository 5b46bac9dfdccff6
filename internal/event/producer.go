package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foodtuck/storefront/internal/domain"
	pkgkafka "github.com/foodtuck/storefront/pkg/kafka"
	"github.com/foodtuck/storefront/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated    = pkgkafka.Topic("cart", "updated")
	TopicCartCleared    = pkgkafka.Topic("cart", "cleared")
	TopicOrderSubmitted = pkgkafka.Topic("order", "submitted")
	TopicCheckoutFailed = pkgkafka.Topic("checkout", "failed")
)

// Aggregate types.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeCheckout = "checkout_attempt"
)

// SourceStorefront identifies events emitted by this service.
const SourceStorefront = "storefront"

// Publisher sends a single event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string         `json:"session_id"`
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
	Subtotal  int64          `json:"subtotal"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// OrderSubmittedData is the payload for an order.submitted event.
type OrderSubmittedData struct {
	AttemptID     string   `json:"attempt_id"`
	OrderID       string   `json:"order_id"`
	SessionID     string   `json:"session_id"`
	Items         []string `json:"items"`
	PaymentMethod string   `json:"payment_method"`
	Subtotal      int64    `json:"subtotal"`
	Shipping      int64    `json:"shipping"`
	Total         int64    `json:"total"`
}

// CheckoutFailedData is the payload for a checkout.failed event.
type CheckoutFailedData struct {
	AttemptID string `json:"attempt_id"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Total     int64  `json:"total"`
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. A nil publisher yields a
// producer that drops every event, for deployments without Kafka.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		SessionID: cart.SessionID,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	}
	return p.publish(ctx, TopicCartUpdated, cart.SessionID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID, reason string) error {
	data := CartClearedData{SessionID: sessionID, Reason: reason}
	return p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeCart, data)
}

// PublishOrderSubmitted publishes an order.submitted event for a
// successful checkout.
func (p *Producer) PublishOrderSubmitted(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	data := OrderSubmittedData{
		AttemptID:     attempt.ID,
		OrderID:       attempt.OrderID,
		SessionID:     attempt.SessionID,
		Items:         attempt.ItemIDs,
		PaymentMethod: attempt.PaymentMethod,
		Subtotal:      attempt.Subtotal,
		Shipping:      attempt.Shipping,
		Total:         attempt.Total,
	}
	return p.publish(ctx, TopicOrderSubmitted, attempt.ID, AggregateTypeCheckout, data)
}

// PublishCheckoutFailed publishes a checkout.failed event.
func (p *Producer) PublishCheckoutFailed(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	data := CheckoutFailedData{
		AttemptID: attempt.ID,
		SessionID: attempt.SessionID,
		Reason:    attempt.FailureReason,
		Total:     attempt.Total,
	}
	return p.publish(ctx, TopicCheckoutFailed, attempt.ID, AggregateTypeCheckout, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p.publisher == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	if id := logger.SessionIDFromContext(ctx); id != "" {
		evt.WithMetadata("session_id", id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
