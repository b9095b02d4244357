package trader

import (
	"fmt"

	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/strategy"
)

// ElectrolyzerTrader is the two-bids-per-hour glue shape: a forced Demand
// bid for the electrolyzer's own consumption plus, when the contracted
// yield exceeds what it can use that hour, a zero-priced Supply bid
// offering the surplus to the market. Kept separate from Trader rather
// than generalising PlaceBid/Settle to "0 or 2 bids", since no other
// strategist variant ever needs a second bid.
type ElectrolyzerTrader struct {
	ID         model.TraderID
	SurplusID  model.TraderID
	Strategist *strategy.ElectrolyzerHourlyStrategist

	plan      *strategy.ElectrolyzerHourlyPlan
	planStart model.TimeStamp
	cum       float64
}

// NewElectrolyzerTrader constructs an ElectrolyzerTrader. surplusID names
// the trader identity the surplus leg bids under (distinct from ID so a
// settlement message can tell the two legs apart).
func NewElectrolyzerTrader(id, surplusID model.TraderID, strategist *strategy.ElectrolyzerHourlyStrategist) *ElectrolyzerTrader {
	return &ElectrolyzerTrader{ID: id, SurplusID: surplusID, Strategist: strategist}
}

// BuildPlan replaces the active plan with one built from the given yield
// forecast; a caller re-invokes this whenever a new PPA yield forecast
// arrives, since (unlike the storage strategists) there is no internal
// energy state to check for staleness.
func (tr *ElectrolyzerTrader) BuildPlan(window model.TimePeriod, yieldPotentialMWh []float64) {
	plan := tr.Strategist.BuildPlan(window, yieldPotentialMWh)
	tr.plan = &plan
	tr.planStart = window.Start
}

// PlaceBids returns the consumption bid and, if the contracted yield left
// a surplus that hour, the surplus supply bid. The second return value is
// nil when there is no surplus to sell.
func (tr *ElectrolyzerTrader) PlaceBids(t model.TimeStamp, periodTicks int64) (model.Bid, *model.Bid, error) {
	if tr.plan == nil {
		return model.Bid{}, nil, fmt.Errorf("%w: electrolyzer trader %q has no plan built", model.ErrConstraintViolation, tr.ID)
	}
	period, idx, ok := tr.plan.Schedule.PeriodAt(t, periodTicks)
	if !ok {
		return model.Bid{}, nil, fmt.Errorf("%w: electrolyzer trader %q has no plan period covering %s", model.ErrConstraintViolation, tr.ID, t)
	}

	consumption := model.Bid{
		EnergyInMWH:      period.RequestedEnergyMWh,
		PriceInEURperMWH: period.BidPriceEURperMWh,
		Side:             model.Demand,
		TraderID:         tr.ID,
	}
	if err := consumption.Validate(); err != nil {
		return model.Bid{}, nil, err
	}

	surplus := tr.plan.SurplusSupplyMWh[idx]
	if surplus <= 0 {
		return consumption, nil, nil
	}
	surplusBid := model.Bid{
		EnergyInMWH:      surplus,
		PriceInEURperMWH: 0,
		Side:             model.Supply,
		TraderID:         tr.SurplusID,
	}
	return consumption, &surplusBid, nil
}

// Settle records the EUR outcome of both legs' awards: the consumption leg
// always costs money at its awarded price, the surplus leg (if awarded)
// earns the awarded clearing price.
func (tr *ElectrolyzerTrader) Settle(consumedMWh, consumedPrice, surplusAwardedMWh, surplusPrice float64) SettlementRow {
	settlement := surplusAwardedMWh*surplusPrice - consumedMWh*consumedPrice
	tr.cum += settlement
	return SettlementRow{
		RequestedEnergyMWh:    consumedMWh,
		RequestedSide:         model.Demand,
		AwardedEnergyMWh:      consumedMWh,
		AwardedPriceEURperMWh: consumedPrice,
		Action:                model.ActionCharging,
		SettlementEUR:         settlement,
		CumSettlementEUR:      tr.cum,
	}
}
