package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quotes_total", Help: "Count of quote ticks ingested"},
		[]string{"symbol"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Count of trade prints ingested"},
		[]string{"symbol"},
	)
	LevelChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "level_changes_total", Help: "Accepted one-cent level changes"},
		[]string{"symbol"},
	)
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "intents_total", Help: "Order intents emitted by the evaluator"},
		[]string{"symbol", "side"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	SubmitFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "submit_failures_total", Help: "Order submissions that errored"},
		[]string{"symbol", "side"},
	)
	LedgerAnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ledger_anomalies_total", Help: "Stale, unknown, or non-monotonic order events absorbed by the ledger"},
		[]string{"kind"},
	)
	DroppedTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dropped_ticks_total", Help: "Malformed or out-of-order ticks dropped before state mutation"},
		[]string{"symbol"},
	)

	TotalShares = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "position_total_shares", Help: "Confirmed filled shares, positive when long"},
	)
	PendingBuyShares = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "position_pending_buy_shares", Help: "Shares committed to open buy orders"},
	)
	PendingSellShares = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "position_pending_sell_shares", Help: "Shares committed to open sell orders"},
	)
)

func init() {
	prometheus.MustRegister(
		QuotesTotal, TradesTotal, LevelChangesTotal, IntentsTotal,
		OrdersTotal, SubmitFailuresTotal, LedgerAnomaliesTotal, DroppedTicksTotal,
		TotalShares, PendingBuyShares, PendingSellShares,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
