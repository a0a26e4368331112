package feed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
)

var cent = decimal.New(1, -2)

// runStub walks the level up and down one cent at a time and follows each
// level change with a print at the pressured side of the book. The pattern is
// deterministic so offline runs and tests see the same sequence.
func (f *Feed) runStub(ctx context.Context, quotes chan<- marketdata.Quote, trades chan<- marketdata.Trade) error {
	ticker := time.NewTicker(f.stubInterval)
	defer ticker.Stop()

	bid := decimal.RequireFromString("100.00")
	step := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			step++
			up := step%4 < 2 // two steps up, two steps down
			if up {
				bid = bid.Add(cent)
			} else {
				bid = bid.Sub(cent)
			}

			q := marketdata.Quote{
				BidPrice: bid,
				AskPrice: bid.Add(cent),
				BidSize:  100,
				AskSize:  100,
				Ts:       ts,
			}
			// Skew the book in the direction of the walk so the
			// evaluator has something to act on.
			if up {
				q.BidSize = 300
			} else {
				q.AskSize = 300
			}
			if !f.send(ctx, quotes, q) {
				return ctx.Err()
			}

			// A print past the quiet window, at the pressured side.
			printPx := q.AskPrice
			if !up {
				printPx = q.BidPrice
			}
			t := marketdata.Trade{
				Price: printPx,
				Size:  150,
				Ts:    ts.Add(60 * time.Millisecond),
			}
			select {
			case trades <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (f *Feed) send(ctx context.Context, quotes chan<- marketdata.Quote, q marketdata.Quote) bool {
	select {
	case quotes <- q:
		return true
	case <-ctx.Done():
		return false
	}
}
