package expmove

import (
	"math"
	"time"

	"github.com/optbench/options-workbench/pkg/models"
	"github.com/optbench/options-workbench/pkg/utils/logger"
)

// Calculator estimates the market-implied expected move to the nearest
// available expiration from raw chain quotes. It works straight off the
// chain and is independent of any strategy legs or user-adjusted
// volatility.
type Calculator struct {
	cache *Cache
	log   *logger.Logger
}

// NewCalculator creates a calculator backed by the given cache
func NewCalculator(cache *Cache) *Calculator {
	return &Calculator{
		cache: cache,
		log:   logger.GetLogger("expmove.calculator"),
	}
}

// Calculate returns the expected move for the chain's (symbol,
// expiration) key. The first successful computation for a key is frozen;
// later calls return the frozen value even if the quotes have moved.
//
// The estimate blends the ATM straddle with the strangles one and two
// strikes out: 60/30/10 when all three price, 70/30 without the outer
// strangle, 90/10 without the inner one, and 100% ATM otherwise.
func (c *Calculator) Calculate(chain models.OptionChain) models.ExpectedMove {
	if em, ok := c.cache.Get(chain.Symbol, chain.Expiration); ok {
		return em
	}

	em := c.compute(chain)
	if em.Move <= 0 {
		// Nothing priced; report the empty result but leave the key
		// unfrozen so a later, fuller chain can supply it.
		return em
	}
	return c.cache.PutIfAbsent(em)
}

// Cached returns the frozen value for a key without computing anything
func (c *Calculator) Cached(symbol string, expiration time.Time) (models.ExpectedMove, bool) {
	return c.cache.Get(symbol, expiration)
}

func (c *Calculator) compute(chain models.OptionChain) models.ExpectedMove {
	em := models.ExpectedMove{
		Symbol:     chain.Symbol,
		Expiration: chain.Expiration,
	}

	spot := chain.Spot
	strikes := chain.Strikes()
	if spot <= 0 || len(strikes) == 0 {
		return em
	}

	atm := nearestIndex(strikes, spot)
	em.Straddle = c.straddle(chain, strikes[atm])
	if em.Straddle <= 0 {
		c.log.Debugf("no ATM quotes for %s at %f", chain.Symbol, strikes[atm])
		return em
	}
	em.StrangleA = c.strangle(chain, strikes, atm, 1)
	em.StrangleB = c.strangle(chain, strikes, atm, 2)

	switch {
	case em.StrangleA > 0 && em.StrangleB > 0:
		em.Move = 0.6*em.Straddle + 0.3*em.StrangleA + 0.1*em.StrangleB
	case em.StrangleA > 0:
		em.Move = 0.7*em.Straddle + 0.3*em.StrangleA
	case em.StrangleB > 0:
		em.Move = 0.9*em.Straddle + 0.1*em.StrangleB
	default:
		em.Move = em.Straddle
	}

	em.Lower = spot - em.Move
	em.Upper = spot + em.Move
	em.Percent = em.Move / spot * 100
	return em
}

// straddle prices call+put at the ATM strike, doubling a lone side when
// only one is quoted.
func (c *Calculator) straddle(chain models.OptionChain, strike float64) float64 {
	call, callOK := chain.Mid(strike, models.LegCall)
	put, putOK := chain.Mid(strike, models.LegPut)
	switch {
	case callOK && putOK:
		return call + put
	case callOK:
		return 2 * call
	case putOK:
		return 2 * put
	}
	return 0
}

// strangle prices the call `steps` strikes above ATM plus the put
// `steps` strikes below. Both legs are required.
func (c *Calculator) strangle(chain models.OptionChain, strikes []float64, atm, steps int) float64 {
	hi := atm + steps
	lo := atm - steps
	if hi >= len(strikes) || lo < 0 {
		return 0
	}
	call, callOK := chain.Mid(strikes[hi], models.LegCall)
	put, putOK := chain.Mid(strikes[lo], models.LegPut)
	if !callOK || !putOK {
		return 0
	}
	return call + put
}

func nearestIndex(strikes []float64, spot float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, k := range strikes {
		if d := math.Abs(k - spot); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
