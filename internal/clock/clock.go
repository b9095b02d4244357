// Package clock wraps the simulation's tick-based TimeStamp in a
// wall-clock frame: a simulation tick is opaque on its own, but every
// collaborator that logs, serialises, or reports results needs to turn it
// back into a time.Time.
package clock

import (
	"time"

	"wholesale-dispatch/internal/model"
)

// Clock advances a monotonic TimeStamp one operation period at a time and
// maps ticks back to wall-clock time for output.
type Clock struct {
	Epoch           time.Time
	OperationPeriod time.Duration

	now model.TimeStamp
}

// New constructs a Clock starting at TimeStamp 0, mapped to epoch in wall
// time, advancing operationPeriod per tick.
func New(epoch time.Time, operationPeriod time.Duration) *Clock {
	return &Clock{Epoch: epoch, OperationPeriod: operationPeriod}
}

// Now returns the current TimeStamp.
func (c *Clock) Now() model.TimeStamp { return c.now }

// Advance moves the clock forward n ticks (n may be negative to rewind in
// a replay) and returns the new TimeStamp.
func (c *Clock) Advance(n int64) model.TimeStamp {
	c.now = c.now.Add(n)
	return c.now
}

// At converts a TimeStamp to wall-clock time under this Clock's epoch and
// operation period.
func (c *Clock) At(t model.TimeStamp) time.Time {
	return c.Epoch.Add(time.Duration(t.Ticks()) * c.OperationPeriod)
}

// PeriodTicks returns how many ticks make up one OperationPeriod, the unit
// DispatchSchedule.PeriodAt and Device.Charge expect for their own period
// arguments (OperationPeriod / tick resolution). One tick always equals
// one OperationPeriod in this implementation (ticks are not subdivided),
// so this is always 1; kept as a method rather than a constant so callers
// that later subdivide the period do not need to change their call sites.
func (c *Clock) PeriodTicks() int64 { return 1 }

// PeriodHours returns OperationPeriod expressed in hours, the unit Device
// physics and strategist DP transitions are defined in.
func (c *Clock) PeriodHours() float64 {
	return c.OperationPeriod.Hours()
}
