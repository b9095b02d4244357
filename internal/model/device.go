package model

import (
	"fmt"
	"math"
)

// DeviceParams are the immutable physical design parameters of a storage
// device, expressed in energy/power-in-MWh/MW units with an explicit
// energy-to-power ratio instead of a bare capacity, since capacity is
// derived.
type DeviceParams struct {
	ChargeEff            float64 // (0,1]
	DischargeEff         float64 // (0,1]
	E2PHours             float64 // >= 0, energy-to-power ratio in hours
	SelfDischargePerHour float64 // [0,1], fraction of stored energy lost per hour
	InstalledPowerMW     float64 // >= 0
}

// Validate checks the DeviceParams invariants.
func (p DeviceParams) Validate() error {
	if p.ChargeEff <= 0 || p.ChargeEff > 1 {
		return fmt.Errorf("%w: ChargeEff must be in (0,1], got %v", ErrConfiguration, p.ChargeEff)
	}
	if p.DischargeEff <= 0 || p.DischargeEff > 1 {
		return fmt.Errorf("%w: DischargeEff must be in (0,1], got %v", ErrConfiguration, p.DischargeEff)
	}
	if p.E2PHours < 0 {
		return fmt.Errorf("%w: E2PHours must be >= 0, got %v", ErrConfiguration, p.E2PHours)
	}
	if p.SelfDischargePerHour < 0 || p.SelfDischargePerHour > 1 {
		return fmt.Errorf("%w: SelfDischargePerHour must be in [0,1], got %v", ErrConfiguration, p.SelfDischargePerHour)
	}
	if p.InstalledPowerMW < 0 {
		return fmt.Errorf("%w: InstalledPowerMW must be >= 0, got %v", ErrConfiguration, p.InstalledPowerMW)
	}
	return nil
}

// CapacityMWh is the derived internal (tank-side) energy capacity.
func (p DeviceParams) CapacityMWh() float64 {
	return p.InstalledPowerMW * p.E2PHours * p.ChargeEff
}

// Device is a storage device: its immutable design parameters plus the
// mutable energy level and lifetime counters. Generalised from an
// SOC-fraction representation to an absolute-energy one.
type Device struct {
	Params DeviceParams

	EnergyInStorageMWh float64
	CycleCount         float64
	FlowAccumMWh       float64
}

// NewDevice constructs a Device at the given initial energy level.
func NewDevice(params DeviceParams, initialEnergyMWh float64) (*Device, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	cap := params.CapacityMWh()
	if initialEnergyMWh < 0 || initialEnergyMWh > cap+capacityEpsilon {
		return nil, fmt.Errorf("%w: initial energy %.6f MWh outside [0, %.6f]", ErrConfiguration, initialEnergyMWh, cap)
	}
	return &Device{
		Params:             params,
		EnergyInStorageMWh: clamp(initialEnergyMWh, 0, cap),
	}, nil
}

const capacityEpsilon = 1e-6

// CapacityMWh is a convenience accessor for Params.CapacityMWh().
func (d *Device) CapacityMWh() float64 { return d.Params.CapacityMWh() }

// ExternalToInternalDelta maps a grid-side (external) energy delta to the
// internal (tank-side) delta it produces: charging applies ChargeEff,
// discharging divides by DischargeEff, branch chosen by sign. Positive =
// charging (energy flows into storage), negative = discharging. Exposed at
// the package level (not just on *Device) so a strategist can reason about
// a device's efficiency curve during planning without needing a live,
// mutable Device instance.
func ExternalToInternalDelta(params DeviceParams, x float64) float64 {
	if x >= 0 {
		return x * params.ChargeEff
	}
	return x / params.DischargeEff
}

// InternalToExternalDelta is the inverse mapping: given a tank-side delta,
// returns the grid-side energy it corresponds to. Round-trips with
// ExternalToInternalDelta.
func InternalToExternalDelta(params DeviceParams, x float64) float64 {
	if x >= 0 {
		return x / params.ChargeEff
	}
	return x * params.DischargeEff
}

// ExternalToInternal maps a grid-side (external) energy delta to the
// internal (tank-side) delta it produces, using this Device's own params.
func (d *Device) ExternalToInternal(x float64) float64 {
	return ExternalToInternalDelta(d.Params, x)
}

// InternalToExternal is the inverse mapping: given a tank-side delta,
// returns the grid-side energy it corresponds to. Round-trips with
// ExternalToInternal.
func (d *Device) InternalToExternal(x float64) float64 {
	return InternalToExternalDelta(d.Params, x)
}

// ChargeResult reports what actually happened when a requested external
// power was applied for one operation period.
type ChargeResult struct {
	RealizedExternalPowerMW float64
	EnergyBeforeMWh         float64
	EnergyAfterMWh          float64
}

// Charge applies a requested external power (MW, positive = charging,
// negative = discharging) over an operation period of length hours h,
// enforcing the device's power limit, self-discharge, and capacity bounds.
// Returns the power that was actually realized after all clipping,
// accounting for self-discharge mapped back through efficiency.
//
// The t parameter is accepted for interface symmetry with the rest of the
// core (strategists and the trader always pass the current TimeStamp) even
// though Device itself is stateless with respect to wall time.
func (d *Device) Charge(externalPowerMW float64, h float64, t TimeStamp) ChargeResult {
	_ = t
	capacity := d.CapacityMWh()
	before := d.EnergyInStorageMWh

	internalDelta := d.ExternalToInternal(externalPowerMW * h)

	maxChargeInternal := d.Params.InstalledPowerMW * h * d.Params.ChargeEff
	maxDischargeInternal := d.Params.InstalledPowerMW * h / d.Params.DischargeEff
	if internalDelta > maxChargeInternal {
		internalDelta = maxChargeInternal
	}
	if internalDelta < -maxDischargeInternal {
		internalDelta = -maxDischargeInternal
	}

	selfLoss := before * d.Params.SelfDischargePerHour * h

	nextRaw := before + internalDelta - selfLoss
	next := clamp(nextRaw, 0, capacity)

	// The portion of the applied delta attributable to the requested
	// charge/discharge action, excluding self-discharge, mapped back to an
	// external power so the caller learns what was actually awarded.
	appliedActionDelta := next - before + selfLoss
	realizedExternal := 0.0
	if h > 0 {
		realizedExternal = d.InternalToExternal(appliedActionDelta) / h
	}

	d.EnergyInStorageMWh = next
	d.FlowAccumMWh += math.Abs(next - before)
	if capacity > 0 {
		d.CycleCount += math.Abs(next-before) / (2 * capacity)
	}

	return ChargeResult{
		RealizedExternalPowerMW: realizedExternal,
		EnergyBeforeMWh:         before,
		EnergyAfterMWh:          next,
	}
}

// Reset clears mutable state, setting energy to the given level and
// zeroing the lifetime counters.
func (d *Device) Reset(energyMWh float64) {
	d.EnergyInStorageMWh = clamp(energyMWh, 0, d.CapacityMWh())
	d.CycleCount = 0
	d.FlowAccumMWh = 0
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
