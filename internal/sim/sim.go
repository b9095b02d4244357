// Package sim is the single-node market loop: one Step collects a bid
// from every registered trader, clears the two resulting books, settles
// every award back into its trader, and records the outcome to a Ledger
// and a Bus. Grounded on a decide -> apply -> record run loop, generalised
// from one battery against a price series to any number of traders
// against each other through a two-sided clearing step applied once per
// TimeStamp.
package sim

import (
	"fmt"
	"math/rand"

	"wholesale-dispatch/internal/bus"
	"wholesale-dispatch/internal/clearing"
	"wholesale-dispatch/internal/clock"
	"wholesale-dispatch/internal/ledger"
	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/trader"
)

// Market owns the traders participating in a run plus the clearing
// constants and output collaborators (Ledger, Bus) every Step feeds.
type Market struct {
	Clock          *clock.Clock
	Prices         clearing.Prices
	Method         clearing.DistributionMethod
	RNG            *rand.Rand
	PeriodTicks    int64
	HorizonPeriods int

	Bus    *bus.Bus
	Ledger *ledger.Ledger

	traders map[model.TraderID]*trader.Trader
	order   []model.TraderID
}

// NewMarket constructs an empty Market. bus and ledger may be nil to skip
// publishing/recording, which test harnesses that only care about the
// clearing outcome can take advantage of.
func NewMarket(clk *clock.Clock, prices clearing.Prices, method clearing.DistributionMethod, rng *rand.Rand, periodTicks int64, horizonPeriods int, b *bus.Bus, l *ledger.Ledger) *Market {
	return &Market{
		Clock:          clk,
		Prices:         prices,
		Method:         method,
		RNG:            rng,
		PeriodTicks:    periodTicks,
		HorizonPeriods: horizonPeriods,
		Bus:            b,
		Ledger:         l,
		traders:        make(map[model.TraderID]*trader.Trader),
	}
}

// Register adds a trader to the market. Traders must be registered before
// the first Step that should include them.
func (m *Market) Register(tr *trader.Trader) {
	if _, exists := m.traders[tr.ID]; !exists {
		m.order = append(m.order, tr.ID)
	}
	m.traders[tr.ID] = tr
}

// Step runs one full clearing cycle at the market's current TimeStamp:
// collect bids, clear, settle awards, advance the clock by one period.
func (m *Market) Step() error {
	t := m.Clock.Now()
	supply := model.NewUnsortedBook(model.Supply)
	demand := model.NewUnsortedBook(model.Demand)

	for _, id := range m.order {
		tr := m.traders[id]
		bid, err := tr.PlaceBid(t, m.HorizonPeriods)
		if err != nil {
			return fmt.Errorf("sim: trader %q place bid at %s: %w", id, t, err)
		}

		var book *model.UnsortedBook
		if bid.Side == model.Supply {
			book = supply
		} else {
			book = demand
		}
		if err := book.Add(bid); err != nil {
			return fmt.Errorf("sim: trader %q bid rejected at %s: %w", id, t, err)
		}

		if m.Bus != nil {
			m.Bus.PublishBid(bus.BidEnvelope{
				TimeStamp:      t.Ticks(),
				TraderID:       string(id),
				EnergyMWh:      bid.EnergyInMWH,
				PriceEURperMWh: bid.PriceInEURperMWH,
				Side:           bid.Side.String(),
			})
		}
	}

	supplyBook, demandBook, _ := clearing.Clear(supply, demand, m.Prices, m.Method, m.RNG)
	periodHours := m.Clock.PeriodHours()

	m.settleSide(t, periodHours, supplyBook)
	m.settleSide(t, periodHours, demandBook)

	if m.Bus != nil {
		m.Bus.PublishClearingTimes(bus.ClearingTimesEnvelope{TimeStamp: t.Ticks()})
	}

	m.Clock.Advance(m.PeriodTicks)
	return nil
}

func (m *Market) settleSide(t model.TimeStamp, periodHours float64, book *model.SortedBook) {
	for _, item := range book.Items {
		if item.TraderID == model.VirtualTailTraderID || item.AwardedPower <= 0 {
			continue
		}
		tr, ok := m.traders[item.TraderID]
		if !ok {
			continue
		}
		row := tr.Settle(t, periodHours, book.Side, item.AwardedPower, book.AwardedPrice)
		if m.Ledger != nil {
			m.Ledger.Record(item.TraderID, row)
		}
		if m.Bus != nil {
			m.Bus.PublishAward(bus.AwardEnvelope{
				TimeStamp:             t.Ticks(),
				TraderID:              string(item.TraderID),
				Side:                  book.Side.String(),
				AwardedEnergyMWh:      item.AwardedPower,
				AwardedPriceEURperMWh: book.AwardedPrice,
			})
		}
	}
}
