package execution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaperBroker is an in-process Submitter that acknowledges every order with a
// generated id and replays a configurable fill script back through its update
// channel. It exists to exercise the full order lifecycle without a venue.
type PaperBroker struct {
	log          zerolog.Logger
	updates      chan OrderUpdate
	partialFills int
	fillDelay    time.Duration
}

// PaperOption configures PaperBroker construction.
type PaperOption func(*PaperBroker)

// WithPartialFills makes each order fill through n partial_fill updates before
// the terminal fill.
func WithPartialFills(n int) PaperOption {
	return func(b *PaperBroker) {
		if n >= 0 {
			b.partialFills = n
		}
	}
}

// WithFillDelay spaces out the emitted updates.
func WithFillDelay(d time.Duration) PaperOption {
	return func(b *PaperBroker) {
		if d >= 0 {
			b.fillDelay = d
		}
	}
}

// NewPaperBroker builds a broker with a buffered update stream.
func NewPaperBroker(log zerolog.Logger, opts ...PaperOption) *PaperBroker {
	b := &PaperBroker{
		log:     log,
		updates: make(chan OrderUpdate, 64),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Updates exposes the order-event stream for the engine to consume.
func (b *PaperBroker) Updates() <-chan OrderUpdate { return b.updates }

// Submit assigns an order id and schedules the fill script. It never rejects
// at submission time; rejections arrive as order events like on a real venue.
func (b *PaperBroker) Submit(ctx context.Context, order Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	orderID := uuid.NewString()
	b.log.Debug().Str("order_id", orderID).Str("side", string(order.Side)).Msg("paper submit")

	go b.playFills(ctx, orderID, order)
	return orderID, nil
}

func (b *PaperBroker) playFills(ctx context.Context, orderID string, order Order) {
	steps := int64(b.partialFills) + 1
	chunk := order.Qty / steps
	filled := int64(0)

	for i := 0; i < b.partialFills; i++ {
		filled += chunk
		if !b.emit(ctx, OrderUpdate{
			OrderID:   orderID,
			Side:      order.Side,
			Event:     EventPartialFill,
			FilledQty: filled,
			Ts:        time.Now(),
		}) {
			return
		}
	}
	b.emit(ctx, OrderUpdate{
		OrderID:   orderID,
		Side:      order.Side,
		Event:     EventFill,
		FilledQty: order.Qty,
		Ts:        time.Now(),
	})
}

func (b *PaperBroker) emit(ctx context.Context, update OrderUpdate) bool {
	if b.fillDelay > 0 {
		select {
		case <-time.After(b.fillDelay):
		case <-ctx.Done():
			return false
		}
	}
	select {
	case b.updates <- update:
		return true
	case <-ctx.Done():
		return false
	}
}
