package store

import (
	"sync"
	"time"

	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/errors"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// ChainStore is an in-memory snapshot of option chains and spot prices
// keyed by symbol, fed by the market-data ingest and read by the API and
// the expected-move calculator.
type ChainStore struct {
	chains map[string]map[int64]models.OptionChain
	spots  map[string]float64
	mu     sync.RWMutex
	log    *logger.Logger
}

// NewChainStore creates an empty chain store
func NewChainStore() *ChainStore {
	return &ChainStore{
		chains: make(map[string]map[int64]models.OptionChain),
		spots:  make(map[string]float64),
		log:    logger.GetLogger("store.chain"),
	}
}

// SaveChain stores or replaces the chain for its (symbol, expiration)
func (s *ChainStore) SaveChain(chain models.OptionChain) error {
	if chain.Symbol == "" {
		return errors.InvalidArgument("chain symbol cannot be empty")
	}
	if chain.Expiration.IsZero() {
		return errors.InvalidArgument("chain expiration cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byExpiry, ok := s.chains[chain.Symbol]
	if !ok {
		byExpiry = make(map[int64]models.OptionChain)
		s.chains[chain.Symbol] = byExpiry
	}
	byExpiry[chain.Expiration.Unix()] = chain
	if chain.Spot > 0 {
		s.spots[chain.Symbol] = chain.Spot
	}
	return nil
}

// GetChain retrieves the chain for an exact (symbol, expiration)
func (s *ChainStore) GetChain(symbol string, expiration time.Time) (models.OptionChain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain, ok := s.chains[symbol][expiration.Unix()]
	if !ok {
		return models.OptionChain{}, errors.NotFound("no chain for " + symbol)
	}
	return chain, nil
}

// NearestChain returns the chain with the earliest expiration at or
// after asOf, regardless of which expiration a strategy has selected.
func (s *ChainStore) NearestChain(symbol string, asOf time.Time) (models.OptionChain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byExpiry, ok := s.chains[symbol]
	if !ok || len(byExpiry) == 0 {
		return models.OptionChain{}, errors.NotFound("no chains for " + symbol)
	}

	cutoff := asOf.Unix()
	var best int64 = -1
	for expiry := range byExpiry {
		if expiry < cutoff {
			continue
		}
		if best == -1 || expiry < best {
			best = expiry
		}
	}
	if best == -1 {
		return models.OptionChain{}, errors.NotFound("no unexpired chain for " + symbol)
	}
	return byExpiry[best], nil
}

// SetSpot records the latest spot price for a symbol
func (s *ChainStore) SetSpot(symbol string, price float64) {
	if symbol == "" || price <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spots[symbol] = price
}

// Spot returns the latest known spot price for a symbol
func (s *ChainStore) Spot(symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.spots[symbol]
	if !ok {
		return 0, errors.NotFound("no spot price for " + symbol)
	}
	return price, nil
}

// Symbols lists every symbol with at least one stored chain
func (s *ChainStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.chains))
	for sym := range s.chains {
		symbols = append(symbols, sym)
	}
	return symbols
}
