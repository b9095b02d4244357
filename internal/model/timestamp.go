// Package model holds the market's core data types: the simulation clock's
// tick values, bids and order books, the storage Device, and the
// DispatchSchedule contract between a strategist and a trader.
package model

import "fmt"

// TimeStamp is an opaque, monotonically increasing tick count at a fixed
// base resolution (the resolution itself is owned by the Clock collaborator,
// see internal/clock). TimeStamp only supports tick-level arithmetic and
// comparison; it carries no notion of wall-clock time on its own.
type TimeStamp int64

// Ticks returns the raw tick count.
func (t TimeStamp) Ticks() int64 { return int64(t) }

// Add returns t shifted by n ticks (n may be negative).
func (t TimeStamp) Add(n int64) TimeStamp { return TimeStamp(int64(t) + n) }

// Sub returns the number of ticks between t and other (t - other).
func (t TimeStamp) Sub(other TimeStamp) int64 { return int64(t) - int64(other) }

// Before reports whether t occurs strictly before other.
func (t TimeStamp) Before(other TimeStamp) bool { return t < other }

// After reports whether t occurs strictly after other.
func (t TimeStamp) After(other TimeStamp) bool { return t > other }

func (t TimeStamp) String() string { return fmt.Sprintf("t%d", int64(t)) }

// TimePeriod is a half-open window [Start, Start+DurationTicks) expressed in
// ticks of the owning Clock.
type TimePeriod struct {
	Start TimeStamp
	DurationTicks int64
}

// NewTimePeriod constructs a period starting at start with the given duration.
func NewTimePeriod(start TimeStamp, durationTicks int64) TimePeriod {
	return TimePeriod{Start: start, DurationTicks: durationTicks}
}

// End returns the (exclusive) end of the period.
func (p TimePeriod) End() TimeStamp { return p.Start.Add(p.DurationTicks) }

// Contains reports whether t falls within [Start, End).
func (p TimePeriod) Contains(t TimeStamp) bool {
	return !t.Before(p.Start) && t.Before(p.End())
}

// ShiftByDuration returns a new period offset by k whole durations —
// k=1 yields the immediately following period of the same length.
func (p TimePeriod) ShiftByDuration(k int64) TimePeriod {
	return TimePeriod{
		Start: p.Start.Add(k * p.DurationTicks),
		DurationTicks: p.DurationTicks,
	}
}
