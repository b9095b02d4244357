package strategy

import (
	"fmt"

	"wholesale-dispatch/internal/model"
)

// ElectrolyzerParams describes the contracted PPA coupling.
type ElectrolyzerParams struct {
	RatedPowerMW             float64 // electrolyzer's own nameplate rating
	ConversionFactor         float64 // MWh hydrogen-equivalent revenue per MWh consumed
	OpportunityCostEURperMWh float64 // bid price for the demand leg
}

// ElectrolyzerHourlyPlan is one hour of the hourly-equivalence schedule: a
// forced consumption leg (bid as demand) and, when the contracted yield
// exceeds what the electrolyzer can use, a surplus leg offered to the
// market as supply at zero price. DispatchSchedule only carries one
// (energy, price) pair per period, so the surplus leg is carried alongside
// rather than forced into the same shape — see DESIGN.md's note on this
// strategist.
type ElectrolyzerHourlyPlan struct {
	Schedule         model.DispatchSchedule
	SurplusSupplyMWh []float64 // same length as Schedule.Periods
}

// ElectrolyzerHourlyStrategist enforces hourly equivalence between
// consumed electricity and a contracted producer's renewable yield. There
// is no DP here: consumption each hour is capped by both the
// electrolyzer's own rating and that hour's PPA yield, so the schedule is
// a direct per-hour calculation, not an optimisation.
type ElectrolyzerHourlyStrategist struct {
	Params ElectrolyzerParams
}

func NewElectrolyzerHourlyStrategist(params ElectrolyzerParams) *ElectrolyzerHourlyStrategist {
	return &ElectrolyzerHourlyStrategist{Params: params}
}

// BuildPlan computes maxConsumption[t] = min(RatedPowerMW,
// yieldPotential[t]) for every hour and the surplus yield left over.
func (s *ElectrolyzerHourlyStrategist) BuildPlan(window model.TimePeriod, yieldPotentialMWh []float64) ElectrolyzerHourlyPlan {
	periods := make([]model.SchedulePeriod, len(yieldPotentialMWh))
	surplus := make([]float64, len(yieldPotentialMWh))

	for t, yield := range yieldPotentialMWh {
		consumption := s.Params.RatedPowerMW
		if yield < consumption {
			consumption = yield
		}
		if consumption < 0 {
			consumption = 0
		}
		periods[t] = model.SchedulePeriod{
			RequestedEnergyMWh: consumption,
			BidPriceEURperMWh:  s.Params.OpportunityCostEURperMWh,
		}
		if yield > consumption {
			surplus[t] = yield - consumption
		}
	}

	return ElectrolyzerHourlyPlan{
		Schedule:         model.DispatchSchedule{Window: window, Periods: periods},
		SurplusSupplyMWh: surplus,
	}
}

// NewElectrolyzerMonthlyStrategist is an Open Question decision: monthly
// equivalence needs a multi-hour DP over an extra cumulative-production
// axis, which this repository does not implement. Construction fails
// immediately so a caller cannot silently get hourly behaviour instead of
// the monthly contract it configured.
func NewElectrolyzerMonthlyStrategist(ElectrolyzerParams) (*ElectrolyzerHourlyStrategist, error) {
	return nil, fmt.Errorf("%w", model.ErrMonthlyCorrelationNotImplemented)
}
