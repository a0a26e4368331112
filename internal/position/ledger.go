// Package position is the authoritative record of filled and pending exposure.
//
// Order events arrive from the venue with no ordering or exactly-once
// guarantee, so every operation tolerates duplicates and unknown ids: they
// are logged and counted, never fatal.
package position

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/execution"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/metrics"
)

// ErrUnknownOrder marks an operation against an order id the ledger has no
// entry for: a duplicate terminal event or an out-of-order notification.
var ErrUnknownOrder = errors.New("stale or unknown order")

type openOrder struct {
	side       execution.Side
	qty        int64
	filled     int64
	limitPrice decimal.Decimal
}

// ClosedTrade is one realized round-trip, appended when a fill reduces the
// position. Consumed by the reporting side for win-rate metrics.
type ClosedTrade struct {
	OrderID string          `json:"order_id"`
	Side    execution.Side  `json:"side"`
	Qty     int64           `json:"qty"`
	Price   decimal.Decimal `json:"price"`
	PnL     decimal.Decimal `json:"pnl"`
	Ts      time.Time       `json:"ts"`
}

// TradeRecorder captures closed trades for later inspection.
type TradeRecorder interface {
	Record(ClosedTrade)
}

// Ledger tracks total filled shares, per-order pending amounts, and realized
// trade P&L. Safe for concurrent use, though the engine serializes all calls.
type Ledger struct {
	mu  sync.Mutex
	log zerolog.Logger

	totalShares  int64
	pendingBuy   int64
	pendingSell  int64
	open         map[string]*openOrder
	avgCost      decimal.Decimal // cost basis of the current (signed) position
	closedTrades []decimal.Decimal
	recorder     TradeRecorder
}

// NewLedger builds an empty ledger. The recorder may be nil.
func NewLedger(log zerolog.Logger, recorder TradeRecorder) *Ledger {
	return &Ledger{
		log:      log,
		open:     make(map[string]*openOrder),
		recorder: recorder,
	}
}

// RegisterPendingOrder inserts a fresh entry with zero filled shares and
// commits the order's full quantity to the side's pending counter. Total
// shares never move here; only confirmed fills touch them.
func (l *Ledger) RegisterPendingOrder(orderID string, side execution.Side, qty int64, limitPrice decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.open[orderID]; ok {
		l.log.Warn().Str("order_id", orderID).Msg("duplicate pending registration ignored")
		metrics.LedgerAnomaliesTotal.WithLabelValues("duplicate_register").Inc()
		return
	}
	l.open[orderID] = &openOrder{side: side, qty: qty, limitPrice: limitPrice}
	l.addPending(side, qty)
	l.publishGauges()
}

// ApplyPartialFill applies the cumulative filled quantity reported by the
// venue. Reports that do not exceed the stored amount are ignored, which
// makes duplicate and out-of-order partials harmless.
func (l *Ledger) ApplyPartialFill(orderID string, side execution.Side, newFilled int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.open[orderID]
	if !ok {
		return l.unknown(orderID, "partial_fill")
	}
	l.checkSide(orderID, order, side)
	if newFilled > order.qty {
		l.overfill(orderID, order, newFilled)
		newFilled = order.qty
	}
	if newFilled <= order.filled {
		l.log.Debug().Str("order_id", orderID).Int64("reported", newFilled).Int64("stored", order.filled).
			Msg("non-monotonic partial fill ignored")
		metrics.LedgerAnomaliesTotal.WithLabelValues("stale_partial").Inc()
		return nil
	}

	delta := newFilled - order.filled
	l.addPending(order.side, -delta)
	l.applyFillDelta(orderID, order.side, delta, order.limitPrice)
	order.filled = newFilled
	l.publishGauges()
	return nil
}

// ApplyFill consumes a terminal fill: any remaining unreported quantity is
// applied to total shares, the order's leftover pending allocation is
// released, and the entry is removed.
func (l *Ledger) ApplyFill(orderID string, side execution.Side, filledQty int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.open[orderID]
	if !ok {
		return l.unknown(orderID, "fill")
	}
	l.checkSide(orderID, order, side)
	if filledQty > order.qty {
		l.overfill(orderID, order, filledQty)
		filledQty = order.qty
	}
	if filledQty > order.filled {
		delta := filledQty - order.filled
		l.addPending(order.side, -delta)
		l.applyFillDelta(orderID, order.side, delta, order.limitPrice)
		order.filled = filledQty
	}
	l.release(orderID, order)
	l.publishGauges()
	return nil
}

// ApplyCancelOrReject releases the order's remaining pending allocation and
// removes the entry. Deltas already applied by partial fills stand: those
// shares really traded.
func (l *Ledger) ApplyCancelOrReject(orderID string, side execution.Side) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.open[orderID]
	if !ok {
		return l.unknown(orderID, "cancel_or_reject")
	}
	l.checkSide(orderID, order, side)
	l.release(orderID, order)
	l.publishGauges()
	return nil
}

// release clears whatever part of the order's quantity is still pending and
// drops the entry. Caller holds the lock.
func (l *Ledger) release(orderID string, order *openOrder) {
	l.addPending(order.side, -(order.qty - order.filled))
	delete(l.open, orderID)
}

// applyFillDelta moves total shares by the confirmed delta and realizes P&L
// for the part of the delta that reduces the current position. Caller holds
// the lock.
func (l *Ledger) applyFillDelta(orderID string, side execution.Side, delta int64, price decimal.Decimal) {
	signed := delta
	if side == execution.Sell {
		signed = -delta
	}

	reducing := (l.totalShares > 0 && signed < 0) || (l.totalShares < 0 && signed > 0)
	if reducing {
		closeQty := min64(delta, abs64(l.totalShares))
		pnl := price.Sub(l.avgCost).Mul(decimal.NewFromInt(closeQty))
		if l.totalShares < 0 {
			// Covering a short: profit when price is below basis.
			pnl = pnl.Neg()
		}
		l.appendClosedTrade(ClosedTrade{
			OrderID: orderID,
			Side:    side,
			Qty:     closeQty,
			Price:   price,
			PnL:     pnl,
			Ts:      time.Now(),
		})
		if opened := delta - closeQty; opened > 0 {
			// Delta flips the position; the remainder opens at this price.
			l.avgCost = price
		}
	} else {
		held := abs64(l.totalShares)
		newHeld := held + delta
		if newHeld > 0 {
			l.avgCost = l.avgCost.Mul(decimal.NewFromInt(held)).
				Add(price.Mul(decimal.NewFromInt(delta))).
				Div(decimal.NewFromInt(newHeld))
		} else {
			l.avgCost = price
		}
	}

	l.totalShares += signed
	if l.totalShares == 0 {
		l.avgCost = decimal.Zero
	}
}

func (l *Ledger) appendClosedTrade(trade ClosedTrade) {
	l.closedTrades = append(l.closedTrades, trade.PnL)
	if l.recorder != nil {
		l.recorder.Record(trade)
	}
	l.log.Info().
		Str("order_id", trade.OrderID).
		Str("pnl", trade.PnL.String()).
		Int64("qty", trade.Qty).
		Msg("closed trade")
}

func (l *Ledger) addPending(side execution.Side, delta int64) {
	if side == execution.Buy {
		l.pendingBuy += delta
	} else {
		l.pendingSell += delta
	}
}

// overfill flags a fill report above the order quantity. The applied amount
// is clamped to the quantity so filled stays in [0, qty] and the pending
// counters stay non-negative.
func (l *Ledger) overfill(orderID string, order *openOrder, reported int64) {
	metrics.LedgerAnomaliesTotal.WithLabelValues("overfill").Inc()
	l.log.Warn().Str("order_id", orderID).Int64("reported", reported).Int64("qty", order.qty).
		Msg("fill report exceeds order quantity, clamping")
}

// checkSide flags events whose side disagrees with the registered order. The
// registered side wins; the event is still applied.
func (l *Ledger) checkSide(orderID string, order *openOrder, side execution.Side) {
	if side != "" && side != order.side {
		metrics.LedgerAnomaliesTotal.WithLabelValues("side_mismatch").Inc()
		l.log.Warn().Str("order_id", orderID).Str("event_side", string(side)).
			Str("registered_side", string(order.side)).Msg("order event side mismatch")
	}
}

func (l *Ledger) unknown(orderID, op string) error {
	metrics.LedgerAnomaliesTotal.WithLabelValues("unknown_order").Inc()
	l.log.Warn().Str("order_id", orderID).Str("op", op).Msg("event for unknown order ignored")
	return fmt.Errorf("%s %q: %w", op, orderID, ErrUnknownOrder)
}

func (l *Ledger) publishGauges() {
	metrics.TotalShares.Set(float64(l.totalShares))
	metrics.PendingBuyShares.Set(float64(l.pendingBuy))
	metrics.PendingSellShares.Set(float64(l.pendingSell))
}

// TotalShares returns the confirmed signed position.
func (l *Ledger) TotalShares() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalShares
}

// PendingBuyShares returns shares committed to open buy orders.
func (l *Ledger) PendingBuyShares() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pendingBuy
}

// PendingSellShares returns shares committed to open sell orders.
func (l *Ledger) PendingSellShares() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pendingSell
}

// OpenOrderCount returns the number of live entries.
func (l *Ledger) OpenOrderCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.open)
}

// FilledAmount reports the filled-so-far quantity for an open order.
func (l *Ledger) FilledAmount(orderID string) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.open[orderID]
	if !ok {
		return 0, false
	}
	return order.filled, true
}

// ClosedTrades returns a copy of the realized P&L sequence.
func (l *Ledger) ClosedTrades() []decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]decimal.Decimal, len(l.closedTrades))
	copy(out, l.closedTrades)
	return out
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
