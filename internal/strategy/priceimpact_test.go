package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/sensitivity"
)

func flatSensitivityForecast(prices []float64, maxPowerMW float64) []*sensitivity.MeritOrderSensitivity {
	out := make([]*sensitivity.MeritOrderSensitivity, len(prices))
	for i, p := range prices {
		out[i] = sensitivity.NewPriceNoSensitivity(p, maxPowerMW, maxPowerMW)
	}
	return out
}

func TestPriceImpactStrategist_S4_ArbitragePattern(t *testing.T) {
	disc := s4Discretisation()
	forecast := flatSensitivityForecast([]float64{20, 80, 20, 80}, 1)

	s, err := NewPriceImpactStrategist(disc, 4, forecast, 3000, -500)
	require.NoError(t, err)

	schedule, err := s.BuildSchedule(model.NewTimePeriod(0, 4), 0)
	require.NoError(t, err)
	require.Len(t, schedule.Periods, 4)

	assert.Greater(t, schedule.Periods[0].RequestedEnergyMWh, 0.0, "charges at t=0 (cheap)")
	assert.Less(t, schedule.Periods[1].RequestedEnergyMWh, 0.0, "discharges at t=1 (expensive)")
	assert.Greater(t, schedule.Periods[2].RequestedEnergyMWh, 0.0, "charges at t=2 (cheap)")
	assert.Less(t, schedule.Periods[3].RequestedEnergyMWh, 0.0, "discharges at t=3 (expensive)")

	assert.InDelta(t, 20, schedule.Periods[0].BidPriceEURperMWh, 1e-9, "bid sits at the sensitivity's own local value")
}

func TestPriceImpactStrategist_RejectsShortForecast(t *testing.T) {
	disc := s4Discretisation()
	_, err := NewPriceImpactStrategist(disc, 4, flatSensitivityForecast([]float64{20, 80}, 1), 3000, -500)
	assert.ErrorIs(t, err, model.ErrForecastUnavailable)
}

// The cost minimiser takes the same arbitrage pattern as the profit
// maximiser here, since spending the least on net purchases and earning
// the most on net sales coincide for a single price-taking device.
func TestCostMinimiserStrategist_PrefersCheaperPath(t *testing.T) {
	disc := s4Discretisation()
	forecast := flatSensitivityForecast([]float64{20, 80, 20, 80}, 1)

	s, err := NewCostMinimiserStrategist(disc, 4, forecast, 3000, -500)
	require.NoError(t, err)

	schedule, err := s.BuildSchedule(model.NewTimePeriod(0, 4), 0)
	require.NoError(t, err)
	require.Len(t, schedule.Periods, 4)

	assert.Greater(t, schedule.Periods[0].RequestedEnergyMWh, 0.0, "charges at t=0 (cheap)")
	assert.Less(t, schedule.Periods[1].RequestedEnergyMWh, 0.0, "discharges at t=1 (expensive)")
}

func TestCostMinimiserStrategist_RejectsShortForecast(t *testing.T) {
	disc := s4Discretisation()
	_, err := NewCostMinimiserStrategist(disc, 4, flatSensitivityForecast([]float64{20, 80}, 1), 3000, -500)
	assert.ErrorIs(t, err, model.ErrForecastUnavailable)
}
