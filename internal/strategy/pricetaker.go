package strategy

import (
	"fmt"
	"math"

	"wholesale-dispatch/internal/model"
)

// PriceTakerStrategist is the profit-maximising price-taker variant of a
// dispatch strategist: it treats the forecast electricity price as
// exogenous, ignoring any price impact its own bid might have. Generalised
// from a per-day SOC optimisation to a rolling schedule-on-demand one.
type PriceTakerStrategist struct {
	Disc                    Discretisation
	ScheduleDurationPeriods int
	ForecastEURperMWh       []float64 // length >= ScheduleDurationPeriods
	ScarcityPrice           float64
	MinimalPrice            float64
	PeriodTicks             int64
}

// NewPriceTakerStrategist validates the forecast length against the
// configured horizon before any DP work starts, a "validate by
// constructing" idiom.
func NewPriceTakerStrategist(disc Discretisation, scheduleDurationPeriods int, forecast []float64, scarcityPrice, minimalPrice float64, periodTicks int64) (*PriceTakerStrategist, error) {
	if len(forecast) < scheduleDurationPeriods {
		return nil, fmt.Errorf("%w: forecast has %d hours, need at least %d", model.ErrForecastUnavailable, len(forecast), scheduleDurationPeriods)
	}
	return &PriceTakerStrategist{
		Disc:                    disc,
		ScheduleDurationPeriods: scheduleDurationPeriods,
		ForecastEURperMWh:       forecast,
		ScarcityPrice:           scarcityPrice,
		MinimalPrice:            minimalPrice,
		PeriodTicks:             periodTicks,
	}, nil
}

func (s *PriceTakerStrategist) transitionValue(_, _, t int, delta float64) float64 {
	return -delta * s.ForecastEURperMWh[t]
}

// calcBidPriceHardLimit prices a charging (demand) bid at minimalPrice and
// a discharging (supply) bid at scarcityPrice, NaN when there is no
// change. Such a bid is not guaranteed to clear: a demand bid at
// minimalPrice is awarded only at a clearing price of minimalPrice, a
// supply bid at scarcityPrice only at scarcityPrice.
func calcBidPriceHardLimit(delta, scarcityPrice, minimalPrice float64) float64 {
	switch {
	case delta > 1e-9:
		return minimalPrice
	case delta < -1e-9:
		return scarcityPrice
	default:
		return math.NaN()
	}
}

// BuildSchedule runs backward induction over the strategist's own forecast
// window and forward-walks it into a DispatchSchedule.
func (s *PriceTakerStrategist) BuildSchedule(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error) {
	result, err := BackwardInduction(s.Disc, s.ScheduleDurationPeriods, Maximise, ZeroTerminalValue, s.transitionValue)
	if err != nil {
		return model.DispatchSchedule{}, err
	}

	points := result.ForwardSimulate(currentEnergyMWh, s.ScheduleDurationPeriods)
	periods := make([]model.SchedulePeriod, len(points))
	for t, p := range points {
		periods[t] = model.SchedulePeriod{
			RequestedEnergyMWh:               p.DeltaExternalMW,
			BidPriceEURperMWh:                calcBidPriceHardLimit(p.DeltaExternalMW, s.ScarcityPrice, s.MinimalPrice),
			ExpectedInitialInternalEnergyMWh: p.ExpectedInitialEnergyMWh,
		}
	}
	return model.DispatchSchedule{Window: window, Periods: periods}, nil
}
