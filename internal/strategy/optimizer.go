package strategy

import (
	"fmt"
	"math"

	"wholesale-dispatch/internal/model"
)

// Objective selects whether BackwardInduction hunts for the extremum that
// maximises or minimises accumulated transitionValue: max for profit
// maximisers / value maximisers, min for cost minimisers.
type Objective int

const (
	Maximise Objective = iota
	Minimise
)

// TransitionValue computes the value of moving from state i to state j at
// period t, given the external power delta that transition implies. Each
// strategist variant supplies its own: a price-taker multiplies delta by a
// forecast price, a price-impact or cost-minimising variant consults a
// MeritOrderSensitivity, and an electrolyzer variant adds a
// hydrogen-revenue term on top of either.
type TransitionValue func(i, j, t int, deltaExternalMW float64) float64

// TerminalValue computes V[H][i], the terminal condition — typically
// zero, but price-taking variants may value final energy linearly in a
// forecast price.
type TerminalValue func(i int) float64

// ZeroTerminalValue is the typical terminal condition: no assigned value
// to whatever energy the device holds at the end of the horizon.
func ZeroTerminalValue(int) float64 { return 0 }

// Result is a solved backward-induction pass: the value array and the
// recorded best-next-state choice at every (t, i), V[t][i] and
// bestNext[t][i].
type Result struct {
	Disc     Discretisation
	V        [][]float64
	BestNext [][]int
}

// BackwardInduction solves the value recurrence over horizon H = len of
// the schedule plus any look-ahead the caller wants reflected in the
// terminal value. One value row and one best-next row are kept per
// timestep; an explicit sentinel for "unreachable" is unnecessary here since the idle
// (j=i) transition is always considered, keeping every state in [0, S)
// reachable at every t.
func BackwardInduction(disc Discretisation, horizon int, objective Objective, terminal TerminalValue, transition TransitionValue) (*Result, error) {
	if disc.NumberOfEnergyStates <= 0 {
		return nil, fmt.Errorf("%w: NumberOfEnergyStates must be > 0", model.ErrConfiguration)
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be > 0", model.ErrConfiguration)
	}
	if terminal == nil {
		terminal = ZeroTerminalValue
	}

	s := disc.NumberOfEnergyStates
	v := make([][]float64, horizon+1)
	bestNext := make([][]int, horizon)

	v[horizon] = make([]float64, s)
	for i := 0; i < s; i++ {
		v[horizon][i] = terminal(i)
	}

	better := func(candidate, best float64) bool {
		if objective == Minimise {
			return candidate < best
		}
		return candidate > best
	}
	worst := math.Inf(1)
	if objective == Maximise {
		worst = math.Inf(-1)
	}

	for t := horizon - 1; t >= 0; t-- {
		v[t] = make([]float64, s)
		bestNext[t] = make([]int, s)
		for i := 0; i < s; i++ {
			lo, hi := disc.LowerFinalState(i), disc.UpperFinalState(i)
			bestJ := -1
			bestVal := worst
			for j := lo; j <= hi; j++ {
				delta := disc.ExternalPowerStep(i, j)
				val := transition(i, j, t, delta) + v[t+1][j]
				if bestJ == -1 || better(val, bestVal) {
					bestVal = val
					bestJ = j
				}
			}
			if bestJ == -1 {
				return nil, fmt.Errorf("%w: state %d at t=%d", model.ErrNoValidStrategy, i, t)
			}
			v[t][i] = bestVal
			bestNext[t][i] = bestJ
		}
	}

	return &Result{Disc: disc, V: v, BestNext: bestNext}, nil
}

// SchedulePoint is one hour's worth of forward-walked plan: the external
// power delta to request and the internal energy the device is expected
// to hold at the start of that hour.
type SchedulePoint struct {
	DeltaExternalMW          float64
	ExpectedInitialEnergyMWh float64
}

// ForwardSimulate walks the solved policy forward: starting from the
// state nearest the device's current energy, follow bestNext for
// scheduleDurationPeriods hours.
func (r *Result) ForwardSimulate(initialEnergyMWh float64, scheduleDurationPeriods int) []SchedulePoint {
	i := r.Disc.NearestState(initialEnergyMWh)
	out := make([]SchedulePoint, scheduleDurationPeriods)
	for t := 0; t < scheduleDurationPeriods; t++ {
		j := r.BestNext[t][i]
		out[t] = SchedulePoint{
			DeltaExternalMW:          r.Disc.ExternalPowerStep(i, j),
			ExpectedInitialEnergyMWh: r.Disc.EnergyAtState(i),
		}
		i = j
	}
	return out
}

// WithHydrogenRevenue decorates a base TransitionValue with a
// hydrogen-revenue term, added whenever the transition charges
// (deltaExternalMW > 0, i.e. electricity is being consumed to produce
// hydrogen): value += delta * conversionFactor * (hydrogenPrice[t] +
// supportRate[t]).
func WithHydrogenRevenue(base TransitionValue, conversionFactor float64, hydrogenPrice, supportRate []float64) TransitionValue {
	return func(i, j, t int, delta float64) float64 {
		val := base(i, j, t, delta)
		if delta > 0 {
			val += delta * conversionFactor * (hydrogenPrice[t] + supportRate[t])
		}
		return val
	}
}
