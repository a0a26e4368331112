package position

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/execution"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRegisterPendingDoesNotMoveTotal(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)

	ledger.RegisterPendingOrder("o-1", execution.Buy, 100, dec("10.01"))
	if ledger.TotalShares() != 0 {
		t.Fatalf("registration must not move total shares")
	}
	if ledger.PendingBuyShares() != 100 {
		t.Fatalf("expected 100 pending buy shares, got %d", ledger.PendingBuyShares())
	}
	if filled, ok := ledger.FilledAmount("o-1"); !ok || filled != 0 {
		t.Fatalf("expected open entry with zero filled")
	}
}

func TestPartialFillThenTerminalFill(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)
	ledger.RegisterPendingOrder("o-1", execution.Buy, 100, dec("10.01"))

	if err := ledger.ApplyPartialFill("o-1", execution.Buy, 40); err != nil {
		t.Fatalf("partial fill: %v", err)
	}
	if ledger.TotalShares() != 40 || ledger.PendingBuyShares() != 60 {
		t.Fatalf("after partial: total=%d pending=%d", ledger.TotalShares(), ledger.PendingBuyShares())
	}

	if err := ledger.ApplyFill("o-1", execution.Buy, 100); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ledger.TotalShares() != 100 {
		t.Fatalf("terminal fill must apply only the unreported remainder, total=%d", ledger.TotalShares())
	}
	if ledger.PendingBuyShares() != 0 {
		t.Fatalf("pending not cleared: %d", ledger.PendingBuyShares())
	}
	if ledger.OpenOrderCount() != 0 {
		t.Fatalf("entry not removed")
	}
}

func TestTerminalFillReleasesPending(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)
	ledger.RegisterPendingOrder("o-1", execution.Buy, 100, dec("10.01"))

	if err := ledger.ApplyFill("o-1", execution.Buy, 100); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ledger.PendingBuyShares() != 0 {
		t.Fatalf("pending must return to zero once the order terminates, got %d", ledger.PendingBuyShares())
	}
	if ledger.TotalShares() != 100 {
		t.Fatalf("expected 100 confirmed shares, got %d", ledger.TotalShares())
	}
}

func TestFillReportAboveOrderQuantityClamped(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)
	ledger.RegisterPendingOrder("o-1", execution.Buy, 100, dec("10.01"))

	// Venue over-report: the applied amount is clamped to the order
	// quantity so pending never goes negative.
	if err := ledger.ApplyPartialFill("o-1", execution.Buy, 150); err != nil {
		t.Fatalf("partial fill: %v", err)
	}
	if ledger.TotalShares() != 100 || ledger.PendingBuyShares() != 0 {
		t.Fatalf("over-report not clamped: total=%d pending=%d", ledger.TotalShares(), ledger.PendingBuyShares())
	}
	if filled, ok := ledger.FilledAmount("o-1"); !ok || filled != 100 {
		t.Fatalf("stored filled amount must stay within the order quantity, got %d", filled)
	}

	if err := ledger.ApplyFill("o-1", execution.Buy, 160); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ledger.TotalShares() != 100 || ledger.PendingBuyShares() != 0 {
		t.Fatalf("terminal over-report mutated exposure: total=%d pending=%d", ledger.TotalShares(), ledger.PendingBuyShares())
	}
}

func TestPartialFillMonotonicityGuard(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)
	ledger.RegisterPendingOrder("o-1", execution.Buy, 100, dec("10.01"))

	if err := ledger.ApplyPartialFill("o-1", execution.Buy, 50); err != nil {
		t.Fatalf("partial fill: %v", err)
	}
	// A duplicate or late report at or below the stored amount is ignored.
	if err := ledger.ApplyPartialFill("o-1", execution.Buy, 50); err != nil {
		t.Fatalf("duplicate partial should be a no-op, got %v", err)
	}
	if err := ledger.ApplyPartialFill("o-1", execution.Buy, 30); err != nil {
		t.Fatalf("stale partial should be a no-op, got %v", err)
	}
	if ledger.TotalShares() != 50 || ledger.PendingBuyShares() != 50 {
		t.Fatalf("guard failed: total=%d pending=%d", ledger.TotalShares(), ledger.PendingBuyShares())
	}
}

func TestCancelAfterPartialFillKeepsFilledShares(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)
	ledger.RegisterPendingOrder("o-1", execution.Sell, 100, dec("10.00"))

	if err := ledger.ApplyPartialFill("o-1", execution.Sell, 30); err != nil {
		t.Fatalf("partial fill: %v", err)
	}
	if err := ledger.ApplyCancelOrReject("o-1", execution.Sell); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// The 30 sold shares already happened; only the remaining 70 pending clear.
	if ledger.TotalShares() != -30 {
		t.Fatalf("partial-fill delta must survive a cancel, total=%d", ledger.TotalShares())
	}
	if ledger.PendingSellShares() != 0 {
		t.Fatalf("pending sell not cleared: %d", ledger.PendingSellShares())
	}
}

func TestDuplicateTerminalEventIsNoOp(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)
	ledger.RegisterPendingOrder("o-1", execution.Buy, 100, dec("10.01"))

	if err := ledger.ApplyFill("o-1", execution.Buy, 100); err != nil {
		t.Fatalf("fill: %v", err)
	}
	err := ledger.ApplyCancelOrReject("o-1", execution.Buy)
	if !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}
	if ledger.TotalShares() != 100 || ledger.PendingBuyShares() != 0 {
		t.Fatalf("duplicate terminal event mutated state")
	}
}

func TestUnknownOrderIsSignaledNotFatal(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)
	if err := ledger.ApplyPartialFill("ghost", execution.Buy, 10); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}
	if err := ledger.ApplyFill("ghost", execution.Buy, 100); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}
}

func TestRoundTripRealizesPnL(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)

	ledger.RegisterPendingOrder("buy-1", execution.Buy, 100, dec("10.01"))
	if err := ledger.ApplyFill("buy-1", execution.Buy, 100); err != nil {
		t.Fatalf("buy fill: %v", err)
	}
	ledger.RegisterPendingOrder("sell-1", execution.Sell, 100, dec("10.05"))
	if err := ledger.ApplyFill("sell-1", execution.Sell, 100); err != nil {
		t.Fatalf("sell fill: %v", err)
	}

	if ledger.TotalShares() != 0 {
		t.Fatalf("round trip should flatten, total=%d", ledger.TotalShares())
	}
	trades := ledger.ClosedTrades()
	if len(trades) != 1 {
		t.Fatalf("expected one closed trade, got %d", len(trades))
	}
	// 100 shares * (10.05 - 10.01) = 4.00
	if !trades[0].Equal(dec("4.00")) {
		t.Fatalf("expected pnl 4.00, got %s", trades[0])
	}
}

func TestShortCoverRealizesPnL(t *testing.T) {
	ledger := NewLedger(zerolog.Nop(), nil)

	ledger.RegisterPendingOrder("sell-1", execution.Sell, 100, dec("10.10"))
	if err := ledger.ApplyFill("sell-1", execution.Sell, 100); err != nil {
		t.Fatalf("sell fill: %v", err)
	}
	ledger.RegisterPendingOrder("buy-1", execution.Buy, 100, dec("10.02"))
	if err := ledger.ApplyFill("buy-1", execution.Buy, 100); err != nil {
		t.Fatalf("cover fill: %v", err)
	}

	trades := ledger.ClosedTrades()
	if len(trades) != 1 {
		t.Fatalf("expected one closed trade, got %d", len(trades))
	}
	// Sold at 10.10, covered at 10.02: +8.00 on 100 shares.
	if !trades[0].Equal(dec("8.00")) {
		t.Fatalf("expected pnl 8.00, got %s", trades[0])
	}
}
