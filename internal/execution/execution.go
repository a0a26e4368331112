// Package execution handles order lifecycle and interaction with the venue.
package execution

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "buy"
	// Sell indicates a short order.
	Sell Side = "sell"
)

// Order represents a placement request the dispatcher can process.
type Order struct {
	Symbol     string
	Side       Side
	Qty        int64
	LimitPrice decimal.Decimal
}

// EventType classifies order-update notifications from the venue.
type EventType string

const (
	EventFill        EventType = "fill"
	EventPartialFill EventType = "partial_fill"
	EventCanceled    EventType = "canceled"
	EventRejected    EventType = "rejected"
)

// OrderUpdate is a lifecycle notification for a previously submitted order.
// Delivery is not guaranteed exactly-once or ordered.
type OrderUpdate struct {
	OrderID   string
	Side      Side
	Event     EventType
	FilledQty int64
	Ts        time.Time
}

// Submitter is the abstract order-submission capability. Implementations own
// transport, auth, and wire protocol; the core only sees the order id or an
// error.
type Submitter interface {
	Submit(ctx context.Context, order Order) (orderID string, err error)
}
