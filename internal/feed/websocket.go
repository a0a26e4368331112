package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/ashishquantcoder/Order-Imbalance-Strategy/internal/marketdata"
)

type authMsg struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type subscribeMsg struct {
	Action string   `json:"action"`
	Quotes []string `json:"quotes"`
	Trades []string `json:"trades"`
}

// streamMsg is one element of the JSON arrays the stream delivers. The T tag
// discriminates quotes ("q") from trades ("t").
type streamMsg struct {
	Type     string  `json:"T"`
	Symbol   string  `json:"S"`
	BidPrice float64 `json:"bp"`
	BidSize  int64   `json:"bs"`
	AskPrice float64 `json:"ap"`
	AskSize  int64   `json:"as"`
	Price    float64 `json:"p"`
	Size     int64   `json:"s"`
	Ts       string  `json:"t"`
}

func (f *Feed) runWebsocket(ctx context.Context, quotes chan<- marketdata.Quote, trades chan<- marketdata.Trade) error {
	if f.url == "" {
		return fmt.Errorf("websocket feed requires a stream url")
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeStream(ctx, quotes, trades); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("market data stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeStream(ctx context.Context, quotes chan<- marketdata.Quote, trades chan<- marketdata.Trade) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if f.key != "" {
		if err := conn.WriteJSON(authMsg{Action: "auth", Key: f.key, Secret: f.secret}); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	sub := subscribeMsg{Action: "subscribe", Quotes: []string{f.symbol}, Trades: []string{f.symbol}}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	f.log.Info().Str("provider", ProviderWebsocket).Str("symbol", f.symbol).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msgs []streamMsg
		if err := json.Unmarshal(payload, &msgs); err != nil {
			f.log.Warn().Err(err).Msg("undecodable stream payload dropped")
			continue
		}
		for _, m := range msgs {
			if m.Symbol != "" && m.Symbol != f.symbol {
				continue
			}
			switch m.Type {
			case "q":
				q, err := m.toQuote()
				if err != nil {
					f.log.Warn().Err(err).Msg("bad quote message dropped")
					continue
				}
				if !f.send(ctx, quotes, q) {
					return ctx.Err()
				}
			case "t":
				tr, err := m.toTrade()
				if err != nil {
					f.log.Warn().Err(err).Msg("bad trade message dropped")
					continue
				}
				select {
				case trades <- tr:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (m streamMsg) toQuote() (marketdata.Quote, error) {
	ts, err := time.Parse(time.RFC3339Nano, m.Ts)
	if err != nil {
		return marketdata.Quote{}, fmt.Errorf("quote timestamp: %w", err)
	}
	return marketdata.Quote{
		BidPrice: decimal.NewFromFloat(m.BidPrice).Round(2),
		AskPrice: decimal.NewFromFloat(m.AskPrice).Round(2),
		BidSize:  m.BidSize,
		AskSize:  m.AskSize,
		Ts:       ts,
	}, nil
}

func (m streamMsg) toTrade() (marketdata.Trade, error) {
	ts, err := time.Parse(time.RFC3339Nano, m.Ts)
	if err != nil {
		return marketdata.Trade{}, fmt.Errorf("trade timestamp: %w", err)
	}
	return marketdata.Trade{
		Price: decimal.NewFromFloat(m.Price).Round(2),
		Size:  m.Size,
		Ts:    ts,
	}, nil
}
