// Package engine serializes the three event sources against the per-instrument
// trading state.
//
// Quote ticks, trade prints, and order updates each arrive on their own
// channel, but a single goroutine consumes all three: every event runs to
// completion before the next one touches the level or the ledger. Level
// detection and fill accounting are both read-modify-write sequences, so this
// single-writer discipline is what makes them atomic. The only suspension
// point is the order-submission call, and by the time Dispatch returns the
// pending exposure is already registered.
package engine

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/execution"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/metrics"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/position"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/quote"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/strategy"
)

// Engine owns one instrument's level, evaluator, ledger, and dispatcher.
// Another instrument would get its own Engine with independent state.
type Engine struct {
	log        zerolog.Logger
	symbol     string
	level      *quote.Level
	evaluator  *strategy.Evaluator
	ledger     *position.Ledger
	dispatcher *execution.Dispatcher

	quotes       <-chan marketdata.Quote
	trades       <-chan marketdata.Trade
	orderUpdates <-chan execution.OrderUpdate
}

// Sources bundles the three event streams feeding the engine.
type Sources struct {
	Quotes       <-chan marketdata.Quote
	Trades       <-chan marketdata.Trade
	OrderUpdates <-chan execution.OrderUpdate
}

// New assembles an engine around already-constructed components.
func New(symbol string, level *quote.Level, evaluator *strategy.Evaluator, ledger *position.Ledger, dispatcher *execution.Dispatcher, sources Sources, log zerolog.Logger) *Engine {
	return &Engine{
		log:          log.With().Str("symbol", symbol).Logger(),
		symbol:       symbol,
		level:        level,
		evaluator:    evaluator,
		ledger:       ledger,
		dispatcher:   dispatcher,
		quotes:       sources.Quotes,
		trades:       sources.Trades,
		orderUpdates: sources.OrderUpdates,
	}
}

// Run consumes events until the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Msg("engine started")
	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("engine stopped")
			return ctx.Err()
		case q := <-e.quotes:
			e.handleQuote(q)
		case t := <-e.trades:
			e.handleTrade(ctx, t)
		case u := <-e.orderUpdates:
			e.handleOrderUpdate(u)
		}
	}
}

func (e *Engine) handleQuote(q marketdata.Quote) {
	metrics.QuotesTotal.WithLabelValues(e.symbol).Inc()
	// Invalid ticks are logged and dropped inside the tracker; nothing to
	// unwind here.
	_ = e.level.Update(q)
}

func (e *Engine) handleTrade(ctx context.Context, t marketdata.Trade) {
	metrics.TradesTotal.WithLabelValues(e.symbol).Inc()
	if !t.Valid() {
		metrics.DroppedTicksTotal.WithLabelValues(e.symbol).Inc()
		e.log.Warn().Time("ts", t.Ts).Msg("dropping invalid trade print")
		return
	}

	intent := e.evaluator.OnTrade(t)
	if intent == nil {
		return
	}

	orderID, err := e.dispatcher.Dispatch(ctx, execution.Order{
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Qty:        intent.Qty,
		LimitPrice: intent.LimitPrice,
	})
	if err != nil {
		// The level stays consumed: one attempt per level counts failed
		// submissions too.
		e.log.Error().Err(err).Int64("seq", intent.LevelSeq).Msg("submission failed")
		return
	}
	e.log.Info().Str("order_id", orderID).Int64("seq", intent.LevelSeq).Msg("intent dispatched")
}

func (e *Engine) handleOrderUpdate(u execution.OrderUpdate) {
	var err error
	switch u.Event {
	case execution.EventFill:
		err = e.ledger.ApplyFill(u.OrderID, u.Side, u.FilledQty)
	case execution.EventPartialFill:
		err = e.ledger.ApplyPartialFill(u.OrderID, u.Side, u.FilledQty)
	case execution.EventCanceled, execution.EventRejected:
		err = e.ledger.ApplyCancelOrReject(u.OrderID, u.Side)
	default:
		e.log.Warn().Str("event", string(u.Event)).Str("order_id", u.OrderID).Msg("unknown order event")
		return
	}
	if err != nil && !errors.Is(err, position.ErrUnknownOrder) {
		e.log.Error().Err(err).Str("order_id", u.OrderID).Msg("order update failed")
	}
}
