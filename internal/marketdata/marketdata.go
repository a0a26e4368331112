// Package marketdata standardizes the decoded records shared between the feed and the trading core.
package marketdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one top-of-book update for the tracked instrument.
type Quote struct {
	BidPrice decimal.Decimal
	AskPrice decimal.Decimal
	BidSize  int64
	AskSize  int64
	Ts       time.Time
}

// Trade is one trade print.
type Trade struct {
	Price decimal.Decimal
	Size  int64
	Ts    time.Time
}

// Valid reports whether the quote carries usable prices and sizes.
func (q Quote) Valid() bool {
	return q.BidPrice.IsPositive() && q.AskPrice.IsPositive() &&
		q.BidSize >= 0 && q.AskSize >= 0 && !q.Ts.IsZero()
}

// Valid reports whether the print carries a usable price and size.
func (t Trade) Valid() bool {
	return t.Price.IsPositive() && t.Size > 0 && !t.Ts.IsZero()
}
