package models

import (
	"time"
)

// Defines the kind of instrument a leg holds
type LegKind int

const (
	LegCall LegKind = iota
	LegPut
	LegStock
)

// String returns the lowercase name of the leg kind
func (k LegKind) String() string {
	switch k {
	case LegCall:
		return "call"
	case LegPut:
		return "put"
	case LegStock:
		return "stock"
	}
	return "unknown"
}

// IsOption reports whether the kind is a call or put
func (k LegKind) IsOption() bool {
	return k == LegCall || k == LegPut
}

// Multiplier returns the contract multiplier: 100 per option contract,
// 1 per share of stock.
func (k LegKind) Multiplier() float64 {
	if k.IsOption() {
		return 100
	}
	return 1
}

// Defines the direction of a position
type Direction int

const (
	Long Direction = iota
	Short
)

// Sign returns +1 for long positions and -1 for short positions
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// String returns the lowercase name of the direction
func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// MinPremium is the floor applied to every stored premium. Premiums are
// never zero so downstream ratios stay defined.
const MinPremium = 0.01

// QuoteSnapshot holds the last market quote seen for a leg. It is
// advisory display data and is never used as a cost basis.
type QuoteSnapshot struct {
	Bid  float64
	Ask  float64
	Mark float64
	Last float64
}

// A single recorded partial close. The opening price and strike are
// captured at the moment of closing and never change afterwards, even if
// the leg itself is later repriced or re-struck.
type ClosingEntry struct {
	Quantity   float64
	ClosePrice float64
	OpenPrice  float64
	Strike     float64
	Excluded   bool
}

// The closing history of a leg
type ClosingTransaction struct {
	Enabled bool
	Entries []ClosingEntry
}

// ClosedQuantity returns the total quantity closed by non-excluded entries
func (ct ClosingTransaction) ClosedQuantity() float64 {
	if !ct.Enabled {
		return 0
	}
	var total float64
	for _, e := range ct.Entries {
		if !e.Excluded {
			total += e.Quantity
		}
	}
	return total
}

// clone copies the transaction so that an updated leg never aliases the
// entry slice of the leg it was derived from.
func (ct ClosingTransaction) clone() ClosingTransaction {
	out := ct
	out.Entries = make([]ClosingEntry, len(ct.Entries))
	copy(out.Entries, ct.Entries)
	return out
}

// Leg represents one position (option or stock) within a strategy.
// Legs are value types: every mutation helper returns a new Leg and
// copies nested closing entries, so stored history cannot be altered
// through a stale reference.
type Leg struct {
	ID              string
	Kind            LegKind
	Direction       Direction
	Strike          float64 // ignored for stock legs
	Quantity        float64 // contracts, or shares for stock
	Premium         float64 // entry price per unit
	Basis           CostBasis
	BasisLocked     bool
	DaysToExpiry    float64
	Expiration      time.Time
	EntryUnderlying float64
	EntryIV         float64 // 0 when unknown
	Snapshot        QuoteSnapshot
	Closing         ClosingTransaction
	Excluded        bool
	SortKey         int
}

// Valid reports whether the leg is structurally usable: positive
// quantity, a positive strike for options, and no over-closed quantity.
// Invalid legs are skipped by every aggregate rather than treated as an
// error.
func (l Leg) Valid() bool {
	if l.Quantity <= 0 {
		return false
	}
	if l.Kind.IsOption() && l.Strike <= 0 {
		return false
	}
	if l.Closing.ClosedQuantity() > l.Quantity {
		return false
	}
	return true
}

// OpenQuantity returns the quantity not yet closed
func (l Leg) OpenQuantity() float64 {
	open := l.Quantity - l.Closing.ClosedQuantity()
	if open < 0 {
		return 0
	}
	return open
}

// FullyClosed reports whether no open quantity remains
func (l Leg) FullyClosed() bool {
	return l.OpenQuantity() <= 0
}

// WithAutoPremium applies a premium produced by an automatic update path
// (a quote refresh or a theoretical reprice). It is a no-op while the
// cost basis is locked.
func (l Leg) WithAutoPremium(premium float64, basis CostBasis) Leg {
	if l.BasisLocked {
		return l
	}
	out := l
	out.Closing = l.Closing.clone()
	out.Premium = FloorPremium(premium)
	out.Basis = basis
	return out
}

// WithManualPremium applies an explicit user edit. Manual edits are the
// only path allowed to touch a locked basis, and doing so clears the
// lock.
func (l Leg) WithManualPremium(premium float64) Leg {
	out := l
	out.Closing = l.Closing.clone()
	out.Premium = FloorPremium(premium)
	out.Basis = ManualBasis{Value: out.Premium}
	out.BasisLocked = false
	return out
}

// WithLockedBasis freezes the current premium as the cost basis
func (l Leg) WithLockedBasis() Leg {
	out := l
	out.Closing = l.Closing.clone()
	out.BasisLocked = true
	return out
}

// WithSnapshot attaches the latest market quote without touching the
// cost basis.
func (l Leg) WithSnapshot(s QuoteSnapshot) Leg {
	out := l
	out.Closing = l.Closing.clone()
	out.Snapshot = s
	return out
}

// WithExcluded flips the exclusion flag
func (l Leg) WithExcluded(excluded bool) Leg {
	out := l
	out.Closing = l.Closing.clone()
	out.Excluded = excluded
	return out
}

// Close records a partial close of the given quantity at the given
// price, freezing the leg's current premium and strike into the entry.
func (l Leg) Close(quantity, price float64) Leg {
	out := l
	out.Closing = l.Closing.clone()
	out.Closing.Enabled = true
	out.Closing.Entries = append(out.Closing.Entries, ClosingEntry{
		Quantity:   quantity,
		ClosePrice: price,
		OpenPrice:  l.Premium,
		Strike:     l.Strike,
	})
	return out
}

// FloorPremium clamps a premium to the minimum allowed value
func FloorPremium(p float64) float64 {
	if p < MinPremium {
		return MinPremium
	}
	return p
}
