package integration

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/engine"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/execution"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/feed"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/position"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/quote"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/risk"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/strategy"
)

// countingSubmitter wraps the paper broker so the test can see how many
// orders actually went out.
type countingSubmitter struct {
	inner execution.Submitter
	count atomic.Int64
}

func (c *countingSubmitter) Submit(ctx context.Context, order execution.Order) (string, error) {
	id, err := c.inner.Submit(ctx, order)
	if err == nil {
		c.count.Add(1)
	}
	return id, err
}

// The full loop: stub feed drives level changes and prints, the evaluator
// emits intents, the paper broker acknowledges and fills, and the ledger's
// exposure settles back to confirmed shares only.
func TestStubFeedToFilledPosition(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := zerolog.Nop()
	symbol := "AAPL"

	level := quote.NewLevel(symbol, log)
	ledger := position.NewLedger(log, nil)
	limits := risk.Limits{MaxShares: 1000, LotSize: 100}
	eval := strategy.NewEvaluator(symbol, strategy.DefaultParams(), limits, level, ledger, log)

	broker := execution.NewPaperBroker(log, execution.WithPartialFills(1))
	submitter := &countingSubmitter{inner: broker}
	dispatcher := execution.NewDispatcher(submitter, ledger, log)

	quotes := make(chan marketdata.Quote, 64)
	trades := make(chan marketdata.Trade, 64)

	f := feed.NewFeed(feed.ProviderStub, symbol, log, feed.WithStubInterval(5*time.Millisecond))
	go func() { _ = f.Run(ctx, quotes, trades) }()

	eng := engine.New(symbol, level, eval, ledger, dispatcher, engine.Sources{
		Quotes:       quotes,
		Trades:       trades,
		OrderUpdates: broker.Updates(),
	}, log)
	go func() { _ = eng.Run(ctx) }()

	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		settled := submitter.count.Load() >= 2 && ledger.OpenOrderCount() == 0 &&
			ledger.PendingBuyShares() == 0 && ledger.PendingSellShares() == 0 &&
			(ledger.TotalShares() != 0 || len(ledger.ClosedTrades()) > 0)
		if settled {
			// Every submitted order ran its lifecycle to a terminal fill
			// and only confirmed shares remain.
			if ledger.TotalShares()%100 != 0 {
				t.Fatalf("position is not a whole number of lots: %d", ledger.TotalShares())
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("lifecycle did not settle: submitted=%d total=%d pendingBuy=%d pendingSell=%d open=%d",
		submitter.count.Load(), ledger.TotalShares(), ledger.PendingBuyShares(),
		ledger.PendingSellShares(), ledger.OpenOrderCount())
}
