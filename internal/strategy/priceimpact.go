package strategy

import (
	"fmt"
	"math"

	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/sensitivity"
)

// PriceImpactStrategist is a profit-maximiser with price impact: instead
// of a flat forecast price, every hour carries a full
// MeritOrderSensitivity so the strategist's own bid's effect on the
// clearing price is internalised into the transition value.
type PriceImpactStrategist struct {
	Disc                    Discretisation
	ScheduleDurationPeriods int
	Forecast                []*sensitivity.MeritOrderSensitivity // length >= ScheduleDurationPeriods
	ScarcityPrice           float64
	MinimalPrice            float64
}

func NewPriceImpactStrategist(disc Discretisation, scheduleDurationPeriods int, forecast []*sensitivity.MeritOrderSensitivity, scarcityPrice, minimalPrice float64) (*PriceImpactStrategist, error) {
	if len(forecast) < scheduleDurationPeriods {
		return nil, fmt.Errorf("%w: sensitivity forecast has %d hours, need at least %d", model.ErrForecastUnavailable, len(forecast), scheduleDurationPeriods)
	}
	return &PriceImpactStrategist{
		Disc:                    disc,
		ScheduleDurationPeriods: scheduleDurationPeriods,
		Forecast:                forecast,
		ScarcityPrice:           scarcityPrice,
		MinimalPrice:            minimalPrice,
	}, nil
}

func (s *PriceImpactStrategist) transitionValue(_, _, t int, delta float64) float64 {
	return -s.Forecast[t].MonetaryValueAt(delta)
}

// BuildSchedule mirrors PriceTakerStrategist.BuildSchedule, but prices
// each hour's bid at the sensitivity's local marginal value instead of a
// hard limit, so the bid sits right at the strategist's own award
// boundary rather than always clearing.
func (s *PriceImpactStrategist) BuildSchedule(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error) {
	result, err := BackwardInduction(s.Disc, s.ScheduleDurationPeriods, Maximise, ZeroTerminalValue, s.transitionValue)
	if err != nil {
		return model.DispatchSchedule{}, err
	}

	points := result.ForwardSimulate(currentEnergyMWh, s.ScheduleDurationPeriods)
	periods := make([]model.SchedulePeriod, len(points))
	for t, p := range points {
		price := s.Forecast[t].ValueAtPower(p.DeltaExternalMW > 0, math.Abs(p.DeltaExternalMW))
		if p.DeltaExternalMW == 0 || math.IsNaN(price) {
			price = calcBidPriceHardLimit(p.DeltaExternalMW, s.ScarcityPrice, s.MinimalPrice)
		}
		periods[t] = model.SchedulePeriod{
			RequestedEnergyMWh:               p.DeltaExternalMW,
			BidPriceEURperMWh:                price,
			ExpectedInitialInternalEnergyMWh: p.ExpectedInitialEnergyMWh,
		}
	}
	return model.DispatchSchedule{Window: window, Periods: periods}, nil
}

// CostMinimiserStrategist is an analogous system-cost minimiser: the same
// sensitivity-driven transition value, but Objective is Minimise — the
// strategist prefers whichever path spends the least (or earns the most,
// since discharging contributes a negative cost).
type CostMinimiserStrategist struct {
	Disc                    Discretisation
	ScheduleDurationPeriods int
	Forecast                []*sensitivity.MeritOrderSensitivity
	ScarcityPrice           float64
	MinimalPrice            float64
}

func NewCostMinimiserStrategist(disc Discretisation, scheduleDurationPeriods int, forecast []*sensitivity.MeritOrderSensitivity, scarcityPrice, minimalPrice float64) (*CostMinimiserStrategist, error) {
	if len(forecast) < scheduleDurationPeriods {
		return nil, fmt.Errorf("%w: cost sensitivity forecast has %d hours, need at least %d", model.ErrForecastUnavailable, len(forecast), scheduleDurationPeriods)
	}
	return &CostMinimiserStrategist{
		Disc:                    disc,
		ScheduleDurationPeriods: scheduleDurationPeriods,
		Forecast:                forecast,
		ScarcityPrice:           scarcityPrice,
		MinimalPrice:            minimalPrice,
	}, nil
}

func (s *CostMinimiserStrategist) transitionValue(_, _, t int, delta float64) float64 {
	return s.Forecast[t].MonetaryValueAt(delta)
}

func (s *CostMinimiserStrategist) BuildSchedule(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error) {
	result, err := BackwardInduction(s.Disc, s.ScheduleDurationPeriods, Minimise, ZeroTerminalValue, s.transitionValue)
	if err != nil {
		return model.DispatchSchedule{}, err
	}

	points := result.ForwardSimulate(currentEnergyMWh, s.ScheduleDurationPeriods)
	periods := make([]model.SchedulePeriod, len(points))
	for t, p := range points {
		price := s.Forecast[t].ValueAtPower(p.DeltaExternalMW > 0, math.Abs(p.DeltaExternalMW))
		if p.DeltaExternalMW == 0 || math.IsNaN(price) {
			price = calcBidPriceHardLimit(p.DeltaExternalMW, s.ScarcityPrice, s.MinimalPrice)
		}
		periods[t] = model.SchedulePeriod{
			RequestedEnergyMWh:               p.DeltaExternalMW,
			BidPriceEURperMWh:                price,
			ExpectedInitialInternalEnergyMWh: p.ExpectedInitialEnergyMWh,
		}
	}
	return model.DispatchSchedule{Window: window, Periods: periods}, nil
}
