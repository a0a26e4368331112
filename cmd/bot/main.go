package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/analytics"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/config"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/engine"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/execution"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/feed"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/metrics"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/position"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/quote"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/risk"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/strategy"
	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	latestClose := cfg.Account.ReferenceClose
	if cfg.Account.ClosesPath != "" {
		closes, err := analytics.ReadCloseSeries(cfg.Account.ClosesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load close series")
		}
		latestClose = closes[len(closes)-1]
	}
	maxShares := analytics.MaxShares(cfg.Account.CashBalance, latestClose)
	if maxShares < cfg.Strategy.LotSize {
		log.Fatal().Int64("max_shares", maxShares).Msg("share budget below one lot, nothing to trade")
	}
	log.Info().Int64("max_shares", maxShares).Float64("latest_close", latestClose).Msg("share budget derived")

	symbol := cfg.Market.Symbol
	level := quote.NewLevel(symbol, log)

	var recorder position.TradeRecorder
	if cfg.Paper.TradesPath != "" {
		jsonl, err := position.NewJSONLRecorder(cfg.Paper.TradesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trade recorder")
		}
		defer jsonl.Close()
		recorder = jsonl
	}
	ledger := position.NewLedger(log, recorder)

	limits := risk.Limits{MaxShares: maxShares, LotSize: cfg.Strategy.LotSize}
	params := strategy.Params{
		LotSize:        cfg.Strategy.LotSize,
		MinPrintSize:   cfg.Strategy.MinPrintSize,
		QuietPeriod:    cfg.Strategy.QuietPeriod(),
		ImbalanceRatio: cfg.Strategy.ImbalanceRatio,
	}
	eval := strategy.NewEvaluator(symbol, params, limits, level, ledger, log)

	broker := execution.NewPaperBroker(log,
		execution.WithPartialFills(cfg.Paper.PartialFills),
		execution.WithFillDelay(time.Duration(cfg.Paper.FillDelayMs)*time.Millisecond),
	)
	dispatcher := execution.NewDispatcher(broker, ledger, log)

	quotes := make(chan marketdata.Quote, 1024)
	trades := make(chan marketdata.Trade, 1024)
	mdFeed := feed.NewFeed(cfg.Market.Provider, symbol, log,
		feed.WithWebsocket(cfg.Market.StreamURL, cfg.Market.DataKey, cfg.Market.DataSecret),
	)
	go func() {
		if err := mdFeed.Run(ctx, quotes, trades); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	eng := engine.New(symbol, level, eval, ledger, dispatcher, engine.Sources{
		Quotes:       quotes,
		Trades:       trades,
		OrderUpdates: broker.Updates(),
	}, log)

	log.Info().Str("symbol", symbol).Str("provider", cfg.Market.Provider).Msg("imbalance bot started")
	_ = eng.Run(ctx)

	wins, losses, rate := analytics.WinRate(ledger.ClosedTrades())
	log.Info().
		Int64("total_shares", ledger.TotalShares()).
		Int64("pending_buy", ledger.PendingBuyShares()).
		Int64("pending_sell", ledger.PendingSellShares()).
		Int("winning_trades", wins).
		Int("losing_trades", losses).
		Float64("win_rate", rate).
		Msg("shutdown summary")
}
