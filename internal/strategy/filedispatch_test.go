package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-dispatch/internal/model"
)

func idealStrategistParams() model.DeviceParams {
	return model.DeviceParams{
		ChargeEff: 1,
		DischargeEff: 1,
		E2PHours: 5,
		InstalledPowerMW: 2,
	}
}

// file dispatcher below tolerance.
func TestFileDispatcherStrategist_S5_ClipsBelowEmptyDevice(t *testing.T) {
	params := idealStrategistParams()
	s := NewFileDispatcherStrategist(params, 1, 3000, -500, 1e-6, 0)

	schedule, warnings, err := s.BuildSchedule(model.NewTimePeriod(0, 1), []float64{-1.0}, 0)
	require.NoError(t, err)

	assert.Len(t, warnings, 1)
	assert.InDelta(t, 0, schedule.Periods[0].RequestedEnergyMWh, 1e-9)
}

func TestFileDispatcherStrategist_NormalSampleNoWarning(t *testing.T) {
	params := idealStrategistParams()
	s := NewFileDispatcherStrategist(params, 1, 3000, -500, 1e-6, 0)

	schedule, warnings, err := s.BuildSchedule(model.NewTimePeriod(0, 1), []float64{0.5}, 0)
	require.NoError(t, err)

	assert.Empty(t, warnings)
	assert.InDelta(t, 1, schedule.Periods[0].RequestedEnergyMWh, 1e-9, "0.5 * 2MW * 1h")
	assert.Equal(t, 3000.0, schedule.Periods[0].BidPriceEURperMWh)
}

func TestFileDispatcherStrategist_RejectsSampleOutsideUnitRange(t *testing.T) {
	params := idealStrategistParams()
	s := NewFileDispatcherStrategist(params, 1, 3000, -500, 1e-6, 0)

	_, _, err := s.BuildSchedule(model.NewTimePeriod(0, 1), []float64{1.5}, 0)
	assert.ErrorIs(t, err, model.ErrConstraintViolation)
}

func TestFileDispatcherStrategist_FirstDeviationSampleAlwaysZero(t *testing.T) {
	params := idealStrategistParams()
	s := NewFileDispatcherStrategist(params, 1, 3000, -500, 1e-6, 4)

	_, _, err := s.BuildSchedule(model.NewTimePeriod(0, 3), []float64{-1.0, 0.5, 0.5}, 0)
	require.NoError(t, err)

	samples := s.deviations.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, 0.0, samples[0], "first sample is always written as 0 regardless of the computed deviation")
}

func TestCalcBidPriceForceAward(t *testing.T) {
	assert.Equal(t, 3000.0, calcBidPriceForceAward(1, 3000, -500))
	assert.Equal(t, -500.0, calcBidPriceForceAward(-1, 3000, -500))
	assert.True(t, math.IsNaN(calcBidPriceForceAward(0, 3000, -500)))
}
