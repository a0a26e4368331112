package execution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/metrics"
)

// PendingRegistrar is the slice of the position ledger the dispatcher needs:
// recording that an order is now out at the venue.
type PendingRegistrar interface {
	RegisterPendingOrder(orderID string, side Side, qty int64, limitPrice decimal.Decimal)
}

// Dispatcher bridges evaluator intents to the venue. A successful submission
// is registered in the ledger before the result is returned, so no later
// event can race ahead assuming stale capacity. Failures are returned to the
// caller and never retried here: the one-attempt-per-level policy upstream
// counts attempts, not confirmed submissions.
type Dispatcher struct {
	log       zerolog.Logger
	submitter Submitter
	ledger    PendingRegistrar
}

// NewDispatcher wires a submitter and ledger together.
func NewDispatcher(submitter Submitter, ledger PendingRegistrar, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{log: log, submitter: submitter, ledger: ledger}
}

// Dispatch submits the order and, on success, registers the pending exposure.
// On failure nothing is registered and the error is propagated for logging.
func (d *Dispatcher) Dispatch(ctx context.Context, order Order) (string, error) {
	orderID, err := d.submitter.Submit(ctx, order)
	if err != nil {
		metrics.SubmitFailuresTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
		return "", fmt.Errorf("submit %s %d @ %s: %w", order.Side, order.Qty, order.LimitPrice, err)
	}

	d.ledger.RegisterPendingOrder(orderID, order.Side, order.Qty, order.LimitPrice)
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	d.log.Info().
		Str("order_id", orderID).
		Str("side", string(order.Side)).
		Int64("qty", order.Qty).
		Str("px", order.LimitPrice.String()).
		Msg("order submitted")
	return orderID, nil
}
