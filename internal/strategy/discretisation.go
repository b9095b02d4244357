// Package strategy implements the dispatch strategist: the
// backward-induction optimizer over a discretised storage-energy grid, its
// forward-walk schedule construction, and the file-dispatcher and
// electrolyzer variants that bypass optimisation.
//
// Directly grounded on a backward-induction dynamic-programming optimizer
// over daily state-of-charge: the same explicit state-index grid,
// energy-to-index mapping, per-timestep value/choice array pair, and
// forward reconstruction from recorded choices. Generalised from a fixed
// SOC-delta action set re-optimised once per calendar day to a
// feasible-window [i-T, i+T] transition model re-built on schedule expiry,
// with the transition's own value computation factored out into a
// TransitionValue closure, replacing a deep strategy class hierarchy.
package strategy

import (
	"math"

	"wholesale-dispatch/internal/model"
)

// Discretisation is the fixed energy-state grid a backward-induction
// optimizer walks.
type Discretisation struct {
	Params                   model.DeviceParams
	NumberOfEnergyStates     int // S
	NumberOfTransitionStates int // T
	PeriodHours              float64
}

func (d Discretisation) capacityMWh() float64 { return d.Params.CapacityMWh() }

// stateWidth is the energy represented by one state index step.
func (d Discretisation) stateWidth() float64 {
	if d.NumberOfEnergyStates <= 1 {
		return 0
	}
	return d.capacityMWh() / float64(d.NumberOfEnergyStates-1)
}

// EnergyAtState returns the internal energy (MWh) state i represents.
func (d Discretisation) EnergyAtState(i int) float64 {
	return float64(i) * d.stateWidth()
}

// NearestState maps an internal energy level to its closest discrete state.
func (d Discretisation) NearestState(energyMWh float64) int {
	w := d.stateWidth()
	if w <= 0 {
		return 0
	}
	i := int(math.Round(energyMWh / w))
	return clampInt(i, 0, d.NumberOfEnergyStates-1)
}

// maxUpSteps/maxDownSteps are how many state steps a single period's
// installed power allows in each direction, after efficiency correction —
// the implied power is capped to stay within +/- installedPowerMW*h,
// computed directly rather than trusted to a correctly pre-capped T.
func (d Discretisation) maxUpSteps() int {
	w := d.stateWidth()
	if w <= 0 || d.Params.ChargeEff <= 0 {
		return 0
	}
	limit := d.Params.InstalledPowerMW * d.PeriodHours * d.Params.ChargeEff / w
	return int(math.Floor(limit + 1e-9))
}

func (d Discretisation) maxDownSteps() int {
	w := d.stateWidth()
	if w <= 0 || d.Params.DischargeEff <= 0 {
		return 0
	}
	limit := d.Params.InstalledPowerMW * d.PeriodHours / (w * d.Params.DischargeEff)
	return int(math.Floor(limit + 1e-9))
}

// LowerFinalState and UpperFinalState bound the feasible transitions from
// state i, tightened by the device's actual power limit.
func (d Discretisation) LowerFinalState(i int) int {
	down := d.NumberOfTransitionStates
	if maxDown := d.maxDownSteps(); maxDown < down {
		down = maxDown
	}
	return maxInt(0, i-down)
}

func (d Discretisation) UpperFinalState(i int) int {
	up := d.NumberOfTransitionStates
	if maxUp := d.maxUpSteps(); maxUp < up {
		up = maxUp
	}
	return minInt(d.NumberOfEnergyStates-1, i+up)
}

// ExternalPowerStep returns the external power delta (MW, positive =
// charging, negative = discharging) needed to move from state i to state
// j over one period.
func (d Discretisation) ExternalPowerStep(i, j int) float64 {
	if d.PeriodHours <= 0 {
		return 0
	}
	internalDelta := float64(j-i) * d.stateWidth()
	externalEnergy := model.InternalToExternalDelta(d.Params, internalDelta)
	return externalEnergy / d.PeriodHours
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
