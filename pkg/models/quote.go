package models

import (
	"sort"
	"time"
)

// OptionQuote is a single option-chain record as supplied by the
// market-data layer.
type OptionQuote struct {
	Strike          float64
	Side            LegKind // LegCall or LegPut
	Bid             float64
	Ask             float64
	Mid             float64
	Last            float64
	ImpliedVol      float64 // 0 when the feed does not supply one
	UnderlyingPrice float64
}

// OptionChain holds all quotes for one symbol and expiration
type OptionChain struct {
	Symbol     string
	Expiration time.Time
	Spot       float64
	Quotes     []OptionQuote
}

// Strikes returns the distinct strikes in the chain, ascending
func (c OptionChain) Strikes() []float64 {
	seen := make(map[float64]struct{}, len(c.Quotes))
	strikes := make([]float64, 0, len(c.Quotes))
	for _, q := range c.Quotes {
		if _, ok := seen[q.Strike]; ok {
			continue
		}
		seen[q.Strike] = struct{}{}
		strikes = append(strikes, q.Strike)
	}
	sort.Float64s(strikes)
	return strikes
}

// Mid returns the mid price quoted at the given strike and side. The
// second return value is false when that contract is not quoted or its
// mid is non-positive.
func (c OptionChain) Mid(strike float64, side LegKind) (float64, bool) {
	for _, q := range c.Quotes {
		if q.Strike == strike && q.Side == side {
			mid := q.Mid
			if mid <= 0 && q.Bid > 0 && q.Ask > 0 {
				mid = (q.Bid + q.Ask) / 2
			}
			if mid > 0 {
				return mid, true
			}
			return 0, false
		}
	}
	return 0, false
}
