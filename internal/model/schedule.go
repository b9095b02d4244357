package model

import "math"

// SchedulePeriod is one hour's worth of a DispatchSchedule: what the
// strategist wants to bid for that hour, and what it expects the Device's
// internal energy to be at the start of that hour.
type SchedulePeriod struct {
	RequestedEnergyMWh               float64
	BidPriceEURperMWh                float64
	ExpectedInitialInternalEnergyMWh float64
}

// DispatchSchedule is a strategist's forward plan over a horizon of N
// periods, built up-front rather than decided one interval at a time; the
// schedule is immutable once built.
type DispatchSchedule struct {
	Window  TimePeriod // covers the whole horizon; DurationTicks = N * period
	Periods []SchedulePeriod
}

// PeriodAt returns the SchedulePeriod covering TimeStamp t and its index,
// or ok=false if t falls outside the schedule's window.
func (s *DispatchSchedule) PeriodAt(t TimeStamp, periodTicks int64) (SchedulePeriod, int, bool) {
	if !s.Window.Contains(t) || periodTicks <= 0 {
		return SchedulePeriod{}, -1, false
	}
	idx := int(t.Sub(s.Window.Start) / periodTicks)
	if idx < 0 || idx >= len(s.Periods) {
		return SchedulePeriod{}, -1, false
	}
	return s.Periods[idx], idx, true
}

// ApplicableAt reports whether this schedule is still valid to use at time
// t, given the Device's actual current internal energy: t must fall inside
// the covered window and the actual initial energy must match the
// schedule's expectation for that period within tolerance.
func (s *DispatchSchedule) ApplicableAt(t TimeStamp, periodTicks int64, actualEnergyMWh float64, tolerance float64) bool {
	period, _, ok := s.PeriodAt(t, periodTicks)
	if !ok {
		return false
	}
	return math.Abs(actualEnergyMWh-period.ExpectedInitialInternalEnergyMWh) <= tolerance
}
