// Package clearing implements uniform-price merit-order
// clearing: given a closed supply book and a closed demand book for one
// TimeStamp, find the clearing price and quantity and award every item.
//
// Grounded on optimizeDP discretisation idiom (explicit
// index/grid bookkeeping, negative-infinity sentinels for "unreachable")
// applied to cumulative-power bookkeeping instead of a SOC grid, and on
// other_examples's BidHeap/AskHeap order book shape, adapted from
// continuous double-auction matching to a sort-once-then-award uniform
// price auction.
package clearing

import (
	"math"
	"math/rand"
	"sort"

	"wholesale-dispatch/internal/model"
)

// DistributionMethod selects how the residual at the clearing price is
// split among price-setting bids, step 4.
type DistributionMethod int

const (
	FirstComeFirstServe DistributionMethod = iota
	SameShares
	Randomize
)

func (m DistributionMethod) String() string {
	switch m {
	case FirstComeFirstServe:
		return "FirstComeFirstServe"
	case SameShares:
		return "SameShares"
	case Randomize:
		return "Randomize"
	default:
		return "unknown"
	}
}

// quantityEpsilon absorbs floating-point noise in cumulative-power
// comparisons, mirroring the price epsilon model.OrderBookItem uses.
const quantityEpsilon = 1e-9

// Result is the scalar outcome of one clearing event; the books themselves
// carry the per-item AwardedPower.
type Result struct {
	AwardedPrice           float64
	AwardedCumulativePower float64
	Crossed                bool
}

// Prices is the pair of extreme legal prices a clearing event needs for its
// virtual tail bids and its failure-mode fallback: scarcity price is what
// supply will accept rather than go unserved, minimal price is demand's
// symmetric floor.
type Prices struct {
	ScarcityPrice float64
	MinimalPrice  float64
}

// Clear runs the algorithm against two already-unsorted books,
// closing them itself so callers never have to remember the sort step.
// rng is only consulted for DistributionMethod Randomize; pass a
// deterministically seeded instance so repeated runs are reproducible.
func Clear(supply, demand *model.UnsortedBook, prices Prices, method DistributionMethod, rng *rand.Rand) (*model.SortedBook, *model.SortedBook, Result) {
	supplyBook := supply.Close(prices.ScarcityPrice)
	demandBook := demand.Close(prices.MinimalPrice)

	if !supplyBook.HasRealBids() || !demandBook.HasRealBids() {
		return supplyBook, demandBook, fallback(supplyBook, demandBook, prices)
	}

	pStar, crossed := findClearingPrice(supplyBook, demandBook)
	if !crossed {
		return supplyBook, demandBook, fallback(supplyBook, demandBook, prices)
	}

	qStar := math.Min(supplyBook.CumulativeAt(pStar), demandBook.CumulativeAt(pStar))

	awardSide(supplyBook, qStar, pStar, method, rng)
	awardSide(demandBook, qStar, pStar, method, rng)

	supplyBook.AwardedPrice, demandBook.AwardedPrice = pStar, pStar
	supplyBook.AwardedCumulativePower, demandBook.AwardedCumulativePower = qStar, qStar

	return supplyBook, demandBook, Result{AwardedPrice: pStar, AwardedCumulativePower: qStar, Crossed: true}
}

// fallback implements the failure modes: an empty side or a
// non-crossing pair of curves clears at zero quantity, at the scarcity
// price if supply was the short side, the minimal price if demand was.
func fallback(supplyBook, demandBook *model.SortedBook, prices Prices) Result {
	var price float64
	switch {
	case !demandBook.HasRealBids():
		// No demand at all: supply is the surplus side, demand is short.
		price = prices.MinimalPrice
	case !supplyBook.HasRealBids():
		// No supply at all: demand is the surplus side, supply is short.
		price = prices.ScarcityPrice
	case supplyBook.TotalPower() >= demandBook.TotalPower():
		// Curves never crossed but supply could in principle cover all of
		// demand's volume: demand is the constrained/short side.
		price = prices.MinimalPrice
	default:
		price = prices.ScarcityPrice
	}
	supplyBook.AwardedPrice, demandBook.AwardedPrice = price, price
	supplyBook.AwardedCumulativePower, demandBook.AwardedCumulativePower = 0, 0
	return Result{AwardedPrice: price, AwardedCumulativePower: 0, Crossed: false}
}

// findClearingPrice returns the lowest price at which supply's cumulative
// curve meets or exceeds demand's, scanning the union of both books'
// distinct bid prices ascending.
func findClearingPrice(supply, demand *model.SortedBook) (float64, bool) {
	candidates := make([]float64, 0, len(supply.Items)+len(demand.Items))
	for _, it := range supply.Items {
		candidates = append(candidates, it.PriceInEURperMWH)
	}
	for _, it := range demand.Items {
		candidates = append(candidates, it.PriceInEURperMWH)
	}
	sort.Float64s(candidates)

	for _, p := range candidates {
		if supply.CumulativeAt(p)+quantityEpsilon >= demand.CumulativeAt(p) {
			return p, true
		}
	}
	return 0, false
}

// awardSide applies steps 3-4 to one side of the book: every
// fully in-the-money item is awarded its full energy, then the residual at
// the clearing price is distributed among price-setting items.
func awardSide(book *model.SortedBook, qStar, pStar float64, method DistributionMethod, rng *rand.Rand) {
	fullyAwarded := 0.0
	for i := range book.Items {
		it := &book.Items[i]
		switch {
		case it.IsPriceSetting(pStar) && it.EnergyInMWH > 0:
			// Left for distributeResidual below.
		case it.CumulatedPowerUpper <= qStar+quantityEpsilon:
			it.AwardedPower = it.EnergyInMWH
			fullyAwarded += it.EnergyInMWH
		default:
			it.AwardedPower = 0
		}
	}

	residual := qStar - fullyAwarded
	idx := book.PriceSettingItems(pStar)
	distributeResidual(book, idx, residual, method, rng)
}

// distributeResidual splits residual among the items at idx per method,
// step 4.
func distributeResidual(book *model.SortedBook, idx []int, residual float64, method DistributionMethod, rng *rand.Rand) {
	if residual <= quantityEpsilon || len(idx) == 0 {
		return
	}

	switch method {
	case SameShares:
		total := 0.0
		for _, i := range idx {
			total += book.Items[i].EnergyInMWH
		}
		if total <= 0 {
			return
		}
		for _, i := range idx {
			book.Items[i].AwardedPower = book.Items[i].EnergyInMWH * (residual / total)
		}

	case FirstComeFirstServe, Randomize:
		order := append([]int(nil), idx...)
		if method == Randomize {
			if rng == nil {
				rng = rand.New(rand.NewSource(1))
			}
			rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		}
		remaining := residual
		for _, i := range order {
			if remaining <= quantityEpsilon {
				break
			}
			give := math.Min(book.Items[i].EnergyInMWH, remaining)
			book.Items[i].AwardedPower = give
			remaining -= give
		}
	}
}
