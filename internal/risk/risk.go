// Package risk holds the exposure guard-rails applied before an intent is emitted.
package risk

// Limits caps exposure at a fixed share budget. MaxShares is supplied by the
// analytics side (cash balance over latest close) and treated as immutable.
type Limits struct {
	MaxShares int64
	LotSize   int64
}

// AllowBuy reports whether a buy of one lot fits under the cap, counting
// shares already pending a buy. The boundary is strict: a position that would
// land exactly on the cap is rejected.
func (l Limits) AllowBuy(totalShares, pendingBuyShares int64) bool {
	return totalShares+pendingBuyShares < l.MaxShares-l.LotSize
}

// AllowSell reports whether a sell of one lot keeps the short side within the
// cap, counting shares already pending a sell.
func (l Limits) AllowSell(totalShares, pendingSellShares int64) bool {
	return totalShares-pendingSellShares >= l.LotSize-l.MaxShares
}
