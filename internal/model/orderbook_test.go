package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsortedBook_RejectsNegativeEnergy(t *testing.T) {
	b := NewUnsortedBook(Supply)
	err := b.Add(Bid{EnergyInMWH: -1, PriceInEURperMWH: 10, Side: Supply})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Equal(t, 0, b.Len())
}

func TestUnsortedBook_RejectsWrongSide(t *testing.T) {
	b := NewUnsortedBook(Supply)
	err := b.Add(Bid{EnergyInMWH: 1, PriceInEURperMWH: 10, Side: Demand})
	assert.Error(t, err)
}

func TestSortedBook_SupplyAscendingWithVirtualTail(t *testing.T) {
	b := NewUnsortedBook(Supply)
	require.NoError(t, b.Add(Bid{EnergyInMWH: 5, PriceInEURperMWH: 50, Side: Supply}))
	require.NoError(t, b.Add(Bid{EnergyInMWH: 10, PriceInEURperMWH: 20, Side: Supply}))

	sorted := b.Close(3000)

	require.Len(t, sorted.Items, 3) // 2 real + virtual tail
	assert.InDelta(t, 20, sorted.Items[0].PriceInEURperMWH, 1e-9)
	assert.InDelta(t, 50, sorted.Items[1].PriceInEURperMWH, 1e-9)
	assert.InDelta(t, 3000, sorted.Items[2].PriceInEURperMWH, 1e-9)

	assert.InDelta(t, 0, sorted.Items[0].CumulatedPowerLower, 1e-9)
	assert.InDelta(t, 10, sorted.Items[0].CumulatedPowerUpper, 1e-9)
	assert.InDelta(t, 10, sorted.Items[1].CumulatedPowerLower, 1e-9)
	assert.InDelta(t, 15, sorted.Items[1].CumulatedPowerUpper, 1e-9)
	assert.InDelta(t, 15, sorted.Items[2].CumulatedPowerLower, 1e-9)
	assert.InDelta(t, 15, sorted.Items[2].CumulatedPowerUpper, 1e-9)

	// monotone non-decreasing cumulative power upper bound
	for i := 1; i < len(sorted.Items); i++ {
		assert.GreaterOrEqual(t, sorted.Items[i].CumulatedPowerUpper, sorted.Items[i-1].CumulatedPowerUpper)
	}
}

func TestSortedBook_DemandDescending(t *testing.T) {
	b := NewUnsortedBook(Demand)
	require.NoError(t, b.Add(Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: Demand}))
	require.NoError(t, b.Add(Bid{EnergyInMWH: 6, PriceInEURperMWH: 100, Side: Demand}))

	sorted := b.Close(-500)

	require.Len(t, sorted.Items, 3)
	assert.InDelta(t, 100, sorted.Items[0].PriceInEURperMWH, 1e-9)
	assert.InDelta(t, 30, sorted.Items[1].PriceInEURperMWH, 1e-9)
	assert.InDelta(t, -500, sorted.Items[2].PriceInEURperMWH, 1e-9)
}

func TestSortedBook_ReopenDropsVirtualTailAndAwards(t *testing.T) {
	b := NewUnsortedBook(Supply)
	require.NoError(t, b.Add(Bid{EnergyInMWH: 5, PriceInEURperMWH: 50, Side: Supply, TraderID: "gen-1"}))
	sorted := b.Close(3000)
	sorted.Items[0].AwardedPower = 5

	reopened := sorted.Reopen()
	assert.Equal(t, 1, reopened.Len())

	resorted := reopened.Close(3000)
	assert.InDelta(t, 0, resorted.Items[0].AwardedPower, 1e-9, "awards do not survive reopening")
}

func TestSortedBook_PriceSettingItemsExcludesZeroEnergy(t *testing.T) {
	b := NewUnsortedBook(Supply)
	require.NoError(t, b.Add(Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: Supply}))
	require.NoError(t, b.Add(Bid{EnergyInMWH: 4, PriceInEURperMWH: 30, Side: Supply}))
	sorted := b.Close(3000)

	idx := sorted.PriceSettingItems(30)
	assert.Len(t, idx, 2)
}
