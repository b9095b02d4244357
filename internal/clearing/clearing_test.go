package clearing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-dispatch/internal/model"
)

var defaultPrices = Prices{ScarcityPrice: 3000, MinimalPrice: -500}

// single-hour clearing, no ties.
func TestClear_S1_NoTies(t *testing.T) {
	supply := model.NewUnsortedBook(model.Supply)
	require.NoError(t, supply.Add(model.Bid{EnergyInMWH: 10, PriceInEURperMWH: 20, Side: model.Supply, TraderID: "gen-1"}))
	require.NoError(t, supply.Add(model.Bid{EnergyInMWH: 5, PriceInEURperMWH: 50, Side: model.Supply, TraderID: "gen-2"}))

	demand := model.NewUnsortedBook(model.Demand)
	require.NoError(t, demand.Add(model.Bid{EnergyInMWH: 12, PriceInEURperMWH: 100, Side: model.Demand, TraderID: "load-1"}))

	sb, db, result := Clear(supply, demand, defaultPrices, FirstComeFirstServe, nil)

	assert.True(t, result.Crossed)
	assert.InDelta(t, 50, result.AwardedPrice, 1e-9)
	assert.InDelta(t, 12, result.AwardedCumulativePower, 1e-9)

	assert.InDelta(t, 10, sb.Items[0].AwardedPower, 1e-9, "gen-1 fully awarded")
	assert.InDelta(t, 2, sb.Items[1].AwardedPower, 1e-9, "gen-2 partially awarded")
	assert.InDelta(t, 12, db.Items[0].AwardedPower, 1e-9, "load-1 fully awarded")
}

// price-setting tie under SameShares.
func TestClear_S2_SameSharesTie(t *testing.T) {
	supply := model.NewUnsortedBook(model.Supply)
	require.NoError(t, supply.Add(model.Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: model.Supply, TraderID: "gen-1"}))
	require.NoError(t, supply.Add(model.Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: model.Supply, TraderID: "gen-2"}))

	demand := model.NewUnsortedBook(model.Demand)
	require.NoError(t, demand.Add(model.Bid{EnergyInMWH: 6, PriceInEURperMWH: 100, Side: model.Demand, TraderID: "load-1"}))

	sb, _, result := Clear(supply, demand, defaultPrices, SameShares, nil)

	assert.InDelta(t, 30, result.AwardedPrice, 1e-9)
	assert.InDelta(t, 6, result.AwardedCumulativePower, 1e-9)
	assert.InDelta(t, 3, sb.Items[0].AwardedPower, 1e-9)
	assert.InDelta(t, 3, sb.Items[1].AwardedPower, 1e-9)
}

func TestClear_FirstComeFirstServeTie(t *testing.T) {
	supply := model.NewUnsortedBook(model.Supply)
	require.NoError(t, supply.Add(model.Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: model.Supply, TraderID: "first"}))
	require.NoError(t, supply.Add(model.Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: model.Supply, TraderID: "second"}))

	demand := model.NewUnsortedBook(model.Demand)
	require.NoError(t, demand.Add(model.Bid{EnergyInMWH: 6, PriceInEURperMWH: 100, Side: model.Demand, TraderID: "load-1"}))

	sb, _, _ := Clear(supply, demand, defaultPrices, FirstComeFirstServe, nil)

	assert.InDelta(t, 4, sb.Items[0].AwardedPower, 1e-9, "first bid exhausted before second")
	assert.InDelta(t, 2, sb.Items[1].AwardedPower, 1e-9)
}

func TestClear_RandomizeIsDeterministicForAGivenSeed(t *testing.T) {
	build := func() (*model.UnsortedBook, *model.UnsortedBook) {
		supply := model.NewUnsortedBook(model.Supply)
		_ = supply.Add(model.Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: model.Supply, TraderID: "a"})
		_ = supply.Add(model.Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: model.Supply, TraderID: "b"})
		demand := model.NewUnsortedBook(model.Demand)
		_ = demand.Add(model.Bid{EnergyInMWH: 6, PriceInEURperMWH: 100, Side: model.Demand, TraderID: "load-1"})
		return supply, demand
	}

	s1, d1 := build()
	sb1, _, _ := Clear(s1, d1, defaultPrices, Randomize, rand.New(rand.NewSource(42)))

	s2, d2 := build()
	sb2, _, _ := Clear(s2, d2, defaultPrices, Randomize, rand.New(rand.NewSource(42)))

	assert.InDelta(t, sb1.Items[0].AwardedPower, sb2.Items[0].AwardedPower, 1e-9)
	assert.InDelta(t, sb1.Items[1].AwardedPower, sb2.Items[1].AwardedPower, 1e-9)
}

func TestClear_EmptyDemandFallsBackToMinimalPrice(t *testing.T) {
	supply := model.NewUnsortedBook(model.Supply)
	require.NoError(t, supply.Add(model.Bid{EnergyInMWH: 10, PriceInEURperMWH: 20, Side: model.Supply}))
	demand := model.NewUnsortedBook(model.Demand)

	_, _, result := Clear(supply, demand, defaultPrices, FirstComeFirstServe, nil)

	assert.False(t, result.Crossed)
	assert.InDelta(t, 0, result.AwardedCumulativePower, 1e-9)
	assert.InDelta(t, defaultPrices.MinimalPrice, result.AwardedPrice, 1e-9)
}

func TestClear_EmptySupplyFallsBackToScarcityPrice(t *testing.T) {
	supply := model.NewUnsortedBook(model.Supply)
	demand := model.NewUnsortedBook(model.Demand)
	require.NoError(t, demand.Add(model.Bid{EnergyInMWH: 10, PriceInEURperMWH: 100, Side: model.Demand}))

	_, _, result := Clear(supply, demand, defaultPrices, FirstComeFirstServe, nil)

	assert.False(t, result.Crossed)
	assert.InDelta(t, defaultPrices.ScarcityPrice, result.AwardedPrice, 1e-9)
}

func TestClear_RejectsNegativeEnergyBeforeSorting(t *testing.T) {
	supply := model.NewUnsortedBook(model.Supply)
	err := supply.Add(model.Bid{EnergyInMWH: -3, PriceInEURperMWH: 20, Side: model.Supply})
	assert.Error(t, err)
}
