// Package quote tracks the current one-cent bid/ask level for a single instrument.
//
// A "level change" is a move of the bid and the ask by exactly one penny
// together. Only those moves arm trading: larger moves could indicate some
// newsworthy event the strategy is not tuned to trade, so they update the
// stored prices without re-arming.
package quote

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/metrics"
)

// ErrInvalidQuote marks a malformed or out-of-order quote tick. The tick is
// dropped and level state is left untouched.
var ErrInvalidQuote = errors.New("invalid quote tick")

var oneCent = decimal.New(1, -2) // 0.01

// Level holds the bid/ask level state for one instrument. It is not safe for
// concurrent use; the engine serializes all access.
type Level struct {
	log    zerolog.Logger
	symbol string

	bid, ask         decimal.Decimal
	prevBid, prevAsk decimal.Decimal
	bidSize, askSize int64

	spread, prevSpread decimal.Decimal

	changedAt time.Time // time of the last accepted level change
	lastTick  time.Time // time of the last accepted quote tick, for ordering checks
	traded    bool
	seq       int64
}

// NewLevel returns a zeroed level. It starts as already traded so nothing is
// submitted before the first accepted level change.
func NewLevel(symbol string, log zerolog.Logger) *Level {
	return &Level{
		log:    log.With().Str("symbol", symbol).Logger(),
		symbol: symbol,
		traded: true,
		seq:    1,
	}
}

// Update consumes one quote tick. Bid/ask sizes are refreshed unconditionally;
// the stored prices shift only on an accepted level change.
func (l *Level) Update(q marketdata.Quote) error {
	if !q.Valid() || q.Ts.Before(l.lastTick) {
		metrics.DroppedTicksTotal.WithLabelValues(l.symbol).Inc()
		l.log.Warn().Time("ts", q.Ts).Msg("dropping invalid quote tick")
		return ErrInvalidQuote
	}
	l.lastTick = q.Ts

	l.bidSize = q.BidSize
	l.askSize = q.AskSize

	if l.bid.Equal(q.BidPrice) || l.ask.Equal(q.AskPrice) {
		return nil
	}
	if !q.AskPrice.Sub(q.BidPrice).Round(2).Equal(oneCent) {
		return nil
	}

	l.prevBid, l.prevAsk = l.bid, l.ask
	l.bid, l.ask = q.BidPrice, q.AskPrice
	l.changedAt = q.Ts
	l.prevSpread = l.prevAsk.Sub(l.prevBid).Round(3)
	l.spread = l.ask.Sub(l.bid).Round(3)

	metrics.LevelChangesTotal.WithLabelValues(l.symbol).Inc()
	l.log.Info().
		Str("bid", l.bid.String()).
		Str("ask", l.ask.String()).
		Int64("seq", l.seq).
		Msg("level change")

	// Only a clean penny-to-penny transition re-arms trading. Recovering
	// from a wider spread keeps the previous armed/traded state.
	if l.prevSpread.Equal(oneCent) {
		l.seq++
		l.traded = false
	}
	return nil
}

// MarkTraded records that an intent was emitted for the current level. Further
// intents are suppressed until the next clean level change, whether or not the
// submission downstream succeeds.
func (l *Level) MarkTraded() { l.traded = true }

// Traded reports whether an intent was already attempted at the current level.
func (l *Level) Traded() bool { return l.traded }

// Sequence returns the monotonically increasing level counter.
func (l *Level) Sequence() int64 { return l.seq }

// ChangedAt returns the timestamp of the last accepted level change.
func (l *Level) ChangedAt() time.Time { return l.changedAt }

func (l *Level) Bid() decimal.Decimal        { return l.bid }
func (l *Level) Ask() decimal.Decimal        { return l.ask }
func (l *Level) BidSize() int64              { return l.bidSize }
func (l *Level) AskSize() int64              { return l.askSize }
func (l *Level) Spread() decimal.Decimal     { return l.spread }
func (l *Level) PrevSpread() decimal.Decimal { return l.prevSpread }
