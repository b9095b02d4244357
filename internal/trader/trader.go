// Package trader is the per-clearing-event glue between a strategist's
// DispatchSchedule and the market: it decides when a schedule needs
// rebuilding, turns the active period into a single bid, and settles an
// award back into the Device and a running ledger. Grounded on a
// decide -> apply -> record run loop, adapted from "iterate a whole
// series inline" to "one step per external clearing message".
package trader

import (
	"fmt"
	"math"

	"wholesale-dispatch/internal/model"
)

// ScheduleBuilder produces a fresh DispatchSchedule for the given window,
// seeded with the device's current energy. Each strategist variant is
// adapted to this shape at its call site: the DP-based strategists
// (PriceTakerStrategist, PriceImpactStrategist, CostMinimiserStrategist)
// already satisfy it directly; FileDispatcherStrategist is wrapped in a
// closure that captures the sample series for the window, since its
// BuildSchedule signature carries extra input the generic trader has no
// business knowing about. ElectrolyzerHourlyStrategist is not adapted to
// this shape; ElectrolyzerTrader drives it.
type ScheduleBuilder func(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error)

// SettlementRow is one clearing event's worth of outcome bookkeeping, keyed
// by TimeStamp rather than a wall-clock interval, and carrying awarded (not
// merely requested) energy and price since awards arrive asynchronously
// from a clearing message rather than being computed inline.
type SettlementRow struct {
	TimeStamp model.TimeStamp

	RequestedEnergyMWh float64
	RequestedSide      model.Side
	BidPriceEURperMWh  float64

	AwardedEnergyMWh       float64
	AwardedPriceEURperMWh  float64

	Action model.Action

	EnergyBeforeMWh float64
	EnergyAfterMWh  float64

	SettlementEUR    float64
	CumSettlementEUR float64
}

// Trader couples a Device to a ScheduleBuilder and keeps the active
// DispatchSchedule around across clearing events, rebuilding it only when
// it stops applying.
type Trader struct {
	ID          model.TraderID
	Device      *model.Device
	Build       ScheduleBuilder
	PeriodTicks int64
	Tolerance   float64

	schedule *model.DispatchSchedule
	cum      float64
}

// New constructs a Trader. periodTicks is the tick length of one schedule
// period (one hour in the reference configuration); tolerance is the
// energy-mismatch band ApplicableAt uses to decide whether a stale schedule
// still applies.
func New(id model.TraderID, device *model.Device, build ScheduleBuilder, periodTicks int64, tolerance float64) *Trader {
	return &Trader{
		ID:          id,
		Device:      device,
		Build:       build,
		PeriodTicks: periodTicks,
		Tolerance:   tolerance,
	}
}

// ensureSchedule rebuilds the active schedule if none exists yet or the
// current one no longer applies at t (DispatchSchedule.ApplicableAt).
func (tr *Trader) ensureSchedule(t model.TimeStamp, horizonPeriods int) error {
	if tr.schedule != nil && tr.schedule.ApplicableAt(t, tr.PeriodTicks, tr.Device.EnergyInStorageMWh, tr.Tolerance) {
		return nil
	}
	window := model.NewTimePeriod(t, int64(horizonPeriods)*tr.PeriodTicks)
	sched, err := tr.Build(window, tr.Device.EnergyInStorageMWh)
	if err != nil {
		return fmt.Errorf("trader %q: rebuild schedule at %s: %w", tr.ID, t, err)
	}
	tr.schedule = &sched
	return nil
}

// PlaceBid rebuilds the schedule if required and returns the single bid
// this trader wants to place for TimeStamp t. RequestedEnergyMWh's sign in
// the schedule carries the side: positive means charging (a Demand bid),
// negative means discharging (a Supply bid), matching the convention
// Device.Charge itself uses.
func (tr *Trader) PlaceBid(t model.TimeStamp, horizonPeriods int) (model.Bid, error) {
	if err := tr.ensureSchedule(t, horizonPeriods); err != nil {
		return model.Bid{}, err
	}
	period, _, ok := tr.schedule.PeriodAt(t, tr.PeriodTicks)
	if !ok {
		return model.Bid{}, fmt.Errorf("%w: trader %q has no schedule period covering %s", model.ErrConstraintViolation, tr.ID, t)
	}

	side := model.Demand
	energy := period.RequestedEnergyMWh
	if energy < 0 {
		side = model.Supply
		energy = -energy
	}

	bid := model.Bid{
		EnergyInMWH:      energy,
		PriceInEURperMWH: period.BidPriceEURperMWh,
		Side:             side,
		TraderID:         tr.ID,
	}
	if err := bid.Validate(); err != nil {
		return model.Bid{}, err
	}
	return bid, nil
}

// Settle applies an award message to the Device and records the resulting
// SettlementRow. awardedEnergyMWh is unsigned (as awarded by the clearing
// package); side disambiguates direction the same way PlaceBid's bid did.
func (tr *Trader) Settle(t model.TimeStamp, periodHours float64, side model.Side, awardedEnergyMWh, awardedPriceEURperMWh float64) SettlementRow {
	externalPowerMW := 0.0
	if periodHours > 0 {
		externalPowerMW = awardedEnergyMWh / periodHours
	}
	if side == model.Supply {
		externalPowerMW = -externalPowerMW
	}

	before := tr.Device.EnergyInStorageMWh
	result := tr.Device.Charge(externalPowerMW, periodHours, t)

	settlement := -result.RealizedExternalPowerMW * periodHours * awardedPriceEURperMWh
	tr.cum += settlement

	return SettlementRow{
		TimeStamp:             t,
		RequestedEnergyMWh:    awardedEnergyMWh,
		RequestedSide:         side,
		AwardedEnergyMWh:      math.Abs(result.RealizedExternalPowerMW * periodHours),
		AwardedPriceEURperMWh: awardedPriceEURperMWh,
		Action:                model.ActionFromPowerMW(result.RealizedExternalPowerMW),
		EnergyBeforeMWh:       before,
		EnergyAfterMWh:        result.EnergyAfterMWh,
		SettlementEUR:         settlement,
		CumSettlementEUR:      tr.cum,
	}
}
