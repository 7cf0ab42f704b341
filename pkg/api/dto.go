package api

import (
	"strings"
	"time"

	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/errors"
)

// LegPayload is the wire form of a leg as sent by presentation or
// persistence layers. The engine itself only ever sees decoded
// models.Leg values.
type LegPayload struct {
	ID              string                `json:"id"`
	Kind            string                `json:"kind"`      // call | put | stock
	Direction       string                `json:"direction"` // long | short
	Strike          float64               `json:"strike,omitempty"`
	Quantity        float64               `json:"quantity"`
	Premium         float64               `json:"premium"`
	Basis           BasisPayload          `json:"basis"`
	BasisLocked     bool                  `json:"basisLocked,omitempty"`
	DaysToExpiry    float64               `json:"daysToExpiry,omitempty"`
	Expiration      time.Time             `json:"expiration,omitempty"`
	EntryUnderlying float64               `json:"entryUnderlying,omitempty"`
	EntryIV         float64               `json:"entryIV,omitempty"`
	Excluded        bool                  `json:"excluded,omitempty"`
	SortKey         int                   `json:"sortKey,omitempty"`
	Closing         *ClosingPayload       `json:"closing,omitempty"`
	Snapshot        *models.QuoteSnapshot `json:"snapshot,omitempty"`
}

// BasisPayload carries the premium provenance over the wire
type BasisPayload struct {
	Type       string  `json:"type"` // market | theoretical | manual | saved
	QuoteID    string  `json:"quoteId,omitempty"`
	StrategyID string  `json:"strategyId,omitempty"`
	Volatility float64 `json:"volatility,omitempty"`
}

// ClosingPayload mirrors models.ClosingTransaction
type ClosingPayload struct {
	Enabled bool                  `json:"enabled"`
	Entries []models.ClosingEntry `json:"entries"`
}

// ToLeg decodes the payload into an engine leg
func (p LegPayload) ToLeg() (models.Leg, error) {
	leg := models.Leg{
		ID:              p.ID,
		Strike:          p.Strike,
		Quantity:        p.Quantity,
		Premium:         models.FloorPremium(p.Premium),
		BasisLocked:     p.BasisLocked,
		DaysToExpiry:    p.DaysToExpiry,
		Expiration:      p.Expiration,
		EntryUnderlying: p.EntryUnderlying,
		EntryIV:         p.EntryIV,
		Excluded:        p.Excluded,
		SortKey:         p.SortKey,
	}

	switch strings.ToLower(p.Kind) {
	case "call":
		leg.Kind = models.LegCall
	case "put":
		leg.Kind = models.LegPut
	case "stock":
		leg.Kind = models.LegStock
	default:
		return models.Leg{}, errors.InvalidArgument("unknown leg kind: " + p.Kind)
	}

	switch strings.ToLower(p.Direction) {
	case "long", "":
		leg.Direction = models.Long
	case "short":
		leg.Direction = models.Short
	default:
		return models.Leg{}, errors.InvalidArgument("unknown leg direction: " + p.Direction)
	}

	switch strings.ToLower(p.Basis.Type) {
	case "market":
		leg.Basis = models.MarketBasis{QuoteID: p.Basis.QuoteID, Mid: leg.Premium}
	case "theoretical":
		leg.Basis = models.TheoreticalBasis{ModelPrice: leg.Premium, Volatility: p.Basis.Volatility}
	case "manual", "":
		leg.Basis = models.ManualBasis{Value: leg.Premium}
	case "saved":
		leg.Basis = models.SavedBasis{StrategyID: p.Basis.StrategyID, EntryPrice: leg.Premium}
	default:
		return models.Leg{}, errors.InvalidArgument("unknown basis type: " + p.Basis.Type)
	}

	if p.Closing != nil {
		leg.Closing = models.ClosingTransaction{
			Enabled: p.Closing.Enabled,
			Entries: append([]models.ClosingEntry(nil), p.Closing.Entries...),
		}
	}
	if p.Snapshot != nil {
		leg.Snapshot = *p.Snapshot
	}

	return leg, nil
}

// decodeLegs converts a payload slice, rejecting the request on the
// first malformed leg.
func decodeLegs(payloads []LegPayload) ([]models.Leg, error) {
	legs := make([]models.Leg, 0, len(payloads))
	for _, p := range payloads {
		leg, err := p.ToLeg()
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, nil
}
