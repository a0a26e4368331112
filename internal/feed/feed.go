// Package feed hosts market-data providers for the tracked instrument. The
// trading core consumes already-decoded quote and trade records; everything
// about transport and wire format stays in here.
package feed

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
)

const (
	// ProviderStub emits a deterministic synthetic one-cent level walk
	// (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderWebsocket streams quotes and trades from an Alpaca-style
	// market-data websocket.
	ProviderWebsocket = "websocket"
)

// Feed represents a pluggable market data stream implementation.
type Feed struct {
	provider string
	symbol   string
	log      zerolog.Logger

	url    string
	key    string
	secret string

	stubInterval time.Duration
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithWebsocket injects the stream endpoint and credentials.
func WithWebsocket(url, key, secret string) Option {
	return func(f *Feed) {
		f.url = strings.TrimSuffix(url, "/")
		f.key = key
		f.secret = secret
	}
}

// WithStubInterval overrides the synthetic tick cadence.
func WithStubInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.stubInterval = d
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		symbol:       symbol,
		log:          log,
		stubInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run pushes records onto the provided channels until the context is canceled.
func (f *Feed) Run(ctx context.Context, quotes chan<- marketdata.Quote, trades chan<- marketdata.Trade) error {
	switch f.provider {
	case ProviderWebsocket:
		return f.runWebsocket(ctx, quotes, trades)
	default:
		return f.runStub(ctx, quotes, trades)
	}
}
