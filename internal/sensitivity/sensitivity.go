// Package sensitivity implements Merit-Order Sensitivity (C3):
// a derived, monotone power-vs-value curve built from a just-cleared supply
// and demand book, used by price-impacting strategists to value an
// incremental charge or discharge without re-running the whole auction.
//
// Grounded on the clearing package's own post-clearing book bookkeeping and
// on internal/analysis/potential.go's running-sum/percentile style. This
// package replaces a subclass hierarchy (price sensitivity, cost
// sensitivity, no-sensitivity all extending one base) with one shared
// struct parameterised by a Kind and a closure.
package sensitivity

import (
	"math"
	"sort"

	"wholesale-dispatch/internal/model"
)

// Kind selects how a band's monetary contribution is computed and how a
// query power is resolved to a value within a band.
type Kind int

const (
	// PriceKind values a power level at the *local* marginal price of the
	// band covering it — used by price-taker/price-impact strategists to
	// find an award-boundary bid price.
	PriceKind Kind = iota
	// CostKind values a power level at the *cumulative average cost* of
	// supplying/consuming up to that power — used for system-cost
	// minimisation and reporting.
	CostKind
)

// SensitivityItem is one band of the charging or discharging curve: the
// bid it came from, the sort key used to place it (price or marginal
// cost), its power band, and the running cumulative monetary contribution
// up to and including this item.
type SensitivityItem struct {
	Bid                 model.Bid
	Key                 float64
	CumulatedLowerPower float64
	CumulatedUpperPower float64
	MonetaryOffset      float64
}

// PowerMW is this item's own band width.
func (it SensitivityItem) PowerMW() float64 {
	return it.CumulatedUpperPower - it.CumulatedLowerPower
}

// MeritOrderSensitivity is the charging-side and discharging-side curves
// derived from one cleared (supply, demand) pair, capped at the
// strategist's own power limits P_c (charging) and P_d (discharging).
type MeritOrderSensitivity struct {
	Kind           Kind
	Charging       []SensitivityItem
	Discharging    []SensitivityItem
	MaxChargeMW    float64
	MaxDischargeMW float64
}

func keyFor(kind Kind, it model.OrderBookItem) float64 {
	if kind == CostKind {
		return it.MarginalCostInEURperMWH
	}
	return it.PriceInEURperMWH
}

func monetaryValueFor(kind Kind, price, power float64) float64 {
	if kind == CostKind {
		return price * power
	}
	return price
}

// New builds a MeritOrderSensitivity from a cleared supply and demand book:
// charging items are unawarded supply plus awarded demand; discharging
// items are awarded supply plus unawarded demand.
func New(kind Kind, supply, demand *model.SortedBook, maxChargeMW, maxDischargeMW float64) *MeritOrderSensitivity {
	type raw struct {
		bid   model.Bid
		price float64
		power float64
	}

	var charging, discharging []raw

	for _, it := range supply.Items {
		if it.Bid.TraderID == model.VirtualTailTraderID {
			continue
		}
		unawarded := it.EnergyInMWH - it.AwardedPower
		if unawarded > 0 {
			charging = append(charging, raw{bid: it.Bid, price: keyFor(kind, it), power: unawarded})
		}
		if it.AwardedPower > 0 {
			discharging = append(discharging, raw{bid: it.Bid, price: keyFor(kind, it), power: it.AwardedPower})
		}
	}
	for _, it := range demand.Items {
		if it.Bid.TraderID == model.VirtualTailTraderID {
			continue
		}
		if it.AwardedPower > 0 {
			charging = append(charging, raw{bid: it.Bid, price: keyFor(kind, it), power: it.AwardedPower})
		}
		unawarded := it.EnergyInMWH - it.AwardedPower
		if unawarded > 0 {
			discharging = append(discharging, raw{bid: it.Bid, price: keyFor(kind, it), power: unawarded})
		}
	}

	sort.SliceStable(charging, func(i, j int) bool { return charging[i].price < charging[j].price })
	sort.SliceStable(discharging, func(i, j int) bool { return discharging[i].price > discharging[j].price })

	build := func(items []raw, cap float64) []SensitivityItem {
		out := make([]SensitivityItem, 0, len(items))
		cum := 0.0
		offset := 0.0
		for _, r := range items {
			if cum >= cap-1e-9 {
				break
			}
			lower := cum
			upper := cum + r.power
			offset += monetaryValueFor(kind, r.price, r.power)
			out = append(out, SensitivityItem{
				Bid:                 r.bid,
				Key:                 r.price,
				CumulatedLowerPower: lower,
				CumulatedUpperPower: upper,
				MonetaryOffset:      offset,
			})
			cum = upper
		}
		return out
	}

	return &MeritOrderSensitivity{
		Kind:           kind,
		Charging:       build(charging, maxChargeMW),
		Discharging:    build(discharging, maxDischargeMW),
		MaxChargeMW:    maxChargeMW,
		MaxDischargeMW: maxDischargeMW,
	}
}

// NewPriceNoSensitivity builds a degenerate sensitivity that ignores the
// books entirely and reports a flat price for any power — price-taker
// strategists need this shape when no order book exists yet (e.g. the
// very first hour of a simulation, or a pure-forecast strategy).
func NewPriceNoSensitivity(flatPriceEURperMWh, maxChargeMW, maxDischargeMW float64) *MeritOrderSensitivity {
	flat := SensitivityItem{
		Key:                 flatPriceEURperMWh,
		CumulatedLowerPower: 0,
		CumulatedUpperPower: math.Inf(1),
		MonetaryOffset:      flatPriceEURperMWh,
	}
	return &MeritOrderSensitivity{
		Kind:           PriceKind,
		Charging:       []SensitivityItem{flat},
		Discharging:    []SensitivityItem{flat},
		MaxChargeMW:    maxChargeMW,
		MaxDischargeMW: maxDischargeMW,
	}
}

// ValueAtPower returns the charging- or discharging-side value at external
// power magnitude p (p >= 0): for PriceKind, the local marginal price of
// the band covering p; for CostKind, the cumulative average cost of
// supplying/consuming up to p. Returns NaN if p falls beyond the curve's
// covered power.
func (m *MeritOrderSensitivity) ValueAtPower(charging bool, p float64) float64 {
	if p <= 0 {
		return 0
	}
	items := m.Discharging
	if charging {
		items = m.Charging
	}
	if len(items) == 0 {
		return math.NaN()
	}

	for i, it := range items {
		if p > it.CumulatedUpperPower+1e-9 {
			continue
		}
		switch m.Kind {
		case CostKind:
			prevOffset := 0.0
			if i > 0 {
				prevOffset = items[i-1].MonetaryOffset
			}
			frac := 0.0
			if width := it.CumulatedUpperPower - it.CumulatedLowerPower; width > 0 {
				frac = (p - it.CumulatedLowerPower) / width
			}
			cumulative := prevOffset + frac*(it.MonetaryOffset-prevOffset)
			return cumulative / p
		default:
			return it.Key
		}
	}
	return math.NaN()
}

// MonetaryValueAt returns the total (extensive) monetary value of a
// transition with external power delta deltaExternalMW: positive delta
// (charging) costs money, negative (discharging) earns it, sign baked in
// so callers can use it directly as a strategist's transitionValue term.
func (m *MeritOrderSensitivity) MonetaryValueAt(deltaExternalMW float64) float64 {
	if deltaExternalMW == 0 {
		return 0
	}
	avg := m.ValueAtPower(deltaExternalMW > 0, math.Abs(deltaExternalMW))
	if math.IsNaN(avg) {
		return math.NaN()
	}
	return deltaExternalMW * avg
}

// ValuesInSteps returns a length-2N+1 vector centred on zero power,
// charging steps ascending above the centre, discharging steps ascending
// (in magnitude) below it.
func (m *MeritOrderSensitivity) ValuesInSteps(n int) []float64 {
	out := make([]float64, 2*n+1)
	out[n] = 0
	for k := 1; k <= n; k++ {
		out[n+k] = m.ValueAtPower(true, float64(k)*m.MaxChargeMW/float64(n))
		out[n-k] = m.ValueAtPower(false, float64(k)*m.MaxDischargeMW/float64(n))
	}
	return out
}

// StepPower returns the external power (signed: positive charging,
// negative discharging) matching each index of ValuesInSteps(n).
func (m *MeritOrderSensitivity) StepPower(n int) []float64 {
	out := make([]float64, 2*n+1)
	for k := 1; k <= n; k++ {
		out[n+k] = float64(k) * m.MaxChargeMW / float64(n)
		out[n-k] = -float64(k) * m.MaxDischargeMW / float64(n)
	}
	return out
}
