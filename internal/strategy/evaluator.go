// Package strategy correlates trade prints against the current quote level
// and decides when order-flow imbalance justifies an order.
package strategy

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/execution"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/metrics"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/quote"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/risk"
)

// Intent is a candidate order decision scoped to one quote level.
type Intent struct {
	Symbol     string
	Side       execution.Side
	Qty        int64
	LimitPrice decimal.Decimal
	LevelSeq   int64
}

// CapacityView is the slice of the position ledger the evaluator reads.
type CapacityView interface {
	TotalShares() int64
	PendingBuyShares() int64
	PendingSellShares() int64
}

// Params are the evaluator's tunable knobs.
type Params struct {
	LotSize        int64         // shares per intent
	MinPrintSize   int64         // smallest trade worth following
	QuietPeriod    time.Duration // trades inside this window after a level change belong to the prior level
	ImbalanceRatio int64         // resting size on one side must exceed ratio x the other
}

// DefaultParams returns the knobs the strategy was designed around.
func DefaultParams() Params {
	return Params{
		LotSize:        100,
		MinPrintSize:   100,
		QuietPeriod:    50 * time.Millisecond,
		ImbalanceRatio: 2,
	}
}

// Evaluator emits at most one intent per quote level.
type Evaluator struct {
	log      zerolog.Logger
	symbol   string
	params   Params
	limits   risk.Limits
	level    *quote.Level
	capacity CapacityView
}

// NewEvaluator wires the evaluator to its level and ledger views.
func NewEvaluator(symbol string, params Params, limits risk.Limits, level *quote.Level, capacity CapacityView, log zerolog.Logger) *Evaluator {
	if params.LotSize <= 0 {
		params.LotSize = 100
	}
	if params.ImbalanceRatio <= 0 {
		params.ImbalanceRatio = 2
	}
	return &Evaluator{
		log:      log.With().Str("symbol", symbol).Logger(),
		symbol:   symbol,
		params:   params,
		limits:   limits,
		level:    level,
		capacity: capacity,
	}
}

// OnTrade consumes one trade print and returns an intent when the level is
// armed, the print clears the timing and size gates, and the book imbalance
// points in the print's direction. Emitting an intent marks the level as
// traded: whether or not the submission downstream succeeds, no second
// attempt is made at this level.
func (e *Evaluator) OnTrade(t marketdata.Trade) *Intent {
	if e.level.Traded() {
		return nil
	}
	if !t.Ts.After(e.level.ChangedAt().Add(e.params.QuietPeriod)) {
		// The print came too close to the level change and may have been
		// for the previous level.
		return nil
	}
	if t.Size < e.params.MinPrintSize {
		return nil
	}

	if intent := e.tryBuy(t); intent != nil {
		return intent
	}
	return e.trySell(t)
}

func (e *Evaluator) tryBuy(t marketdata.Trade) *Intent {
	if !t.Price.Equal(e.level.Ask()) {
		return nil
	}
	if e.level.BidSize() <= e.params.ImbalanceRatio*e.level.AskSize() {
		return nil
	}
	if !e.limits.AllowBuy(e.capacity.TotalShares(), e.capacity.PendingBuyShares()) {
		return nil
	}
	return e.emit(execution.Buy, e.level.Ask())
}

func (e *Evaluator) trySell(t marketdata.Trade) *Intent {
	if !t.Price.Equal(e.level.Bid()) {
		return nil
	}
	if e.level.AskSize() <= e.params.ImbalanceRatio*e.level.BidSize() {
		return nil
	}
	if !e.limits.AllowSell(e.capacity.TotalShares(), e.capacity.PendingSellShares()) {
		return nil
	}
	return e.emit(execution.Sell, e.level.Bid())
}

func (e *Evaluator) emit(side execution.Side, price decimal.Decimal) *Intent {
	e.level.MarkTraded()
	metrics.IntentsTotal.WithLabelValues(e.symbol, string(side)).Inc()
	e.log.Info().
		Str("side", string(side)).
		Str("px", price.String()).
		Int64("seq", e.level.Sequence()).
		Msg("intent")
	return &Intent{
		Symbol:     e.symbol,
		Side:       side,
		Qty:        e.params.LotSize,
		LimitPrice: price,
		LevelSeq:   e.level.Sequence(),
	}
}
