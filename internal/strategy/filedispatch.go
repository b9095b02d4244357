package strategy

import (
	"fmt"
	"math"

	"wholesale-dispatch/internal/model"
)

// FileDispatcherStrategist bypasses optimisation entirely: it reads a
// relative charging series x(t) in [-1, 1] and turns it directly into
// requested power, clamped to the device's bounds. Adapted from
// "charge/discharge by clock time" to "charge/discharge by a file series
// fraction".
type FileDispatcherStrategist struct {
	Params        model.DeviceParams
	PeriodHours   float64
	ScarcityPrice float64
	MinimalPrice  float64
	Tolerance     float64

	// deviations records, for each period BuildSchedule plans, the internal
	// self-discharge expected over that period from its starting energy —
	// kept only for diagnostic export; see the first-sample-zero note on
	// BuildSchedule.
	deviations *model.DeviationBuffer
}

// NewFileDispatcherStrategist constructs a file dispatcher. bufferLen
// sizes the internal self-discharge deviation ring buffer (0 disables
// it).
func NewFileDispatcherStrategist(params model.DeviceParams, periodHours, scarcityPrice, minimalPrice, tolerance float64, bufferLen int) *FileDispatcherStrategist {
	var buf *model.DeviationBuffer
	if bufferLen > 0 {
		buf = model.NewDeviationBuffer(bufferLen)
	}
	return &FileDispatcherStrategist{
		Params:        params,
		PeriodHours:   periodHours,
		ScarcityPrice: scarcityPrice,
		MinimalPrice:  minimalPrice,
		Tolerance:     tolerance,
		deviations:    buf,
	}
}

// BuildSchedule turns samples[0:len] (already the slice for this
// strategist's horizon, x(t) in [-1,1]) into a DispatchSchedule.
// currentEnergyMWh seeds the simulated trajectory used to check
// feasibility and to populate ExpectedInitialInternalEnergyMWh.
//
// The first recorded self-discharge deviation sample is always written as
// 0 rather than the computed value for that hour, even though every later
// sample gets the real computed figure — preserved verbatim per the Open
// Question decision in DESIGN.md, not "fixed".
func (s *FileDispatcherStrategist) BuildSchedule(window model.TimePeriod, samples []float64, currentEnergyMWh float64) (model.DispatchSchedule, []string, error) {
	capacity := s.Params.CapacityMWh()
	periods := make([]model.SchedulePeriod, len(samples))
	var warnings []string

	energy := currentEnergyMWh
	for t, x := range samples {
		if x < -1 || x > 1 {
			return model.DispatchSchedule{}, nil, fmt.Errorf("%w: sample %d out of [-1,1]: %v", model.ErrConstraintViolation, t, x)
		}

		var requested float64
		if x >= 0 {
			requested = s.Params.InstalledPowerMW * x * s.PeriodHours
		} else {
			requested = s.Params.InstalledPowerMW * x * s.PeriodHours * s.Params.DischargeEff
		}

		unclampedNext := energy + model.ExternalToInternalDelta(s.Params, requested)
		if unclampedNext < -s.Tolerance || unclampedNext > capacity+s.Tolerance {
			warnings = append(warnings, fmt.Sprintf("hour %d: unclamped trajectory %.6f MWh outside [0-%.6f, %.6f+%.6f]", t, unclampedNext, s.Tolerance, capacity, s.Tolerance))
		}

		clampedNext := clamp(unclampedNext, 0, capacity)
		clampedDeltaInternal := clampedNext - energy
		clampedRequested := model.InternalToExternalDelta(s.Params, clampedDeltaInternal)

		if s.deviations != nil {
			deviation := energy * s.Params.SelfDischargePerHour * s.PeriodHours
			if t == 0 {
				s.deviations.Record(0)
			} else {
				s.deviations.Record(deviation)
			}
		}

		price := calcBidPriceForceAward(clampedRequested, s.ScarcityPrice, s.MinimalPrice)
		periods[t] = model.SchedulePeriod{
			RequestedEnergyMWh:               clampedRequested,
			BidPriceEURperMWh:                price,
			ExpectedInitialInternalEnergyMWh: energy,
		}
		energy = clampedNext
	}

	return model.DispatchSchedule{Window: window, Periods: periods}, warnings, nil
}

// calcBidPriceForceAward is the pricing rule whose sign pairing mirrors
// calcBidPriceHardLimit's: charging forces scarcityPrice, discharging
// forces minimalPrice.
func calcBidPriceForceAward(requested, scarcityPrice, minimalPrice float64) float64 {
	switch {
	case requested > 1e-9:
		return scarcityPrice
	case requested < -1e-9:
		return minimalPrice
	default:
		return math.NaN()
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
