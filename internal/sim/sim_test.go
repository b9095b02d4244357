package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-dispatch/internal/bus"
	"wholesale-dispatch/internal/clearing"
	"wholesale-dispatch/internal/clock"
	"wholesale-dispatch/internal/ledger"
	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/strategy"
	"wholesale-dispatch/internal/trader"
)

func disc(params model.DeviceParams) strategy.Discretisation {
	return strategy.Discretisation{Params: params, NumberOfEnergyStates: 11, NumberOfTransitionStates: 5, PeriodHours: 1}
}

func TestMarket_StepClearsAndSettlesBothSides(t *testing.T) {
	params := model.DeviceParams{ChargeEff: 0.95, DischargeEff: 0.95, E2PHours: 2, InstalledPowerMW: 5}

	chargerDevice, err := model.NewDevice(params, 0)
	require.NoError(t, err)
	dischargerDevice, err := model.NewDevice(params, params.CapacityMWh())
	require.NoError(t, err)

	// Fixed schedules whose bids cross: the charger bids to buy 2 MWh at
	// 300, the discharger offers 2 MWh at 10.
	fixed := func(requestedMWh, priceEURperMWh float64) trader.ScheduleBuilder {
		return func(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error) {
			p := model.SchedulePeriod{RequestedEnergyMWh: requestedMWh, BidPriceEURperMWh: priceEURperMWh, ExpectedInitialInternalEnergyMWh: currentEnergyMWh}
			return model.DispatchSchedule{Window: window, Periods: []model.SchedulePeriod{p, p}}, nil
		}
	}

	chargerTrader := trader.New("charger", chargerDevice, fixed(2, 300), 1, 1e-6)
	dischargerTrader := trader.New("discharger", dischargerDevice, fixed(-2, 10), 1, 1e-6)

	clk := clock.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)
	b := bus.New()
	l := ledger.New()

	bids := b.SubscribeBids(4)
	awards := b.SubscribeAwards(4)

	m := NewMarket(clk, clearing.Prices{ScarcityPrice: 500, MinimalPrice: -100}, clearing.FirstComeFirstServe, rand.New(rand.NewSource(1)), 1, 2, b, l)
	m.Register(chargerTrader)
	m.Register(dischargerTrader)

	require.NoError(t, m.Step())

	assert.Equal(t, model.TimeStamp(1), clk.Now(), "clock advances by one period")

	seenBidSides := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
			case e := <-bids:
				seenBidSides[e.TraderID] = true
				case <-time.After(time.Second):
					t.Fatal("timed out waiting for bid envelope")
				}
		}
	assert.True(t, seenBidSides["charger"])
	assert.True(t, seenBidSides["discharger"])

	rows := l.ByTrader()
	require.Contains(t, rows, "charger")
	require.Contains(t, rows, "discharger")

	chargerRow := rows["charger"][0]
	dischargerRow := rows["discharger"][0]

	assert.Greater(t, chargerRow.AwardedEnergyMWh, 0.0, "charger should have been awarded energy")
	assert.Greater(t, dischargerRow.AwardedEnergyMWh, 0.0, "discharger should have been awarded energy")
	assert.Less(t, chargerRow.SettlementEUR, 0.0, "charging costs money")
	assert.Greater(t, dischargerRow.SettlementEUR, 0.0, "discharging earns money")

	awardCount := 0
	for {
		select {
			case <-awards:
				awardCount++
				default:
					goto doneAwards
				}
		}
	doneAwards:
	assert.GreaterOrEqual(t, awardCount, 2, "both sides should have published an award")
}

func TestMarket_StepSkipsUnregisteredVirtualTail(t *testing.T) {
	params := model.DeviceParams{ChargeEff: 0.95, DischargeEff: 0.95, E2PHours: 2, InstalledPowerMW: 5}
	device, err := model.NewDevice(params, params.CapacityMWh()/2)
	require.NoError(t, err)

	flat, err := strategy.NewPriceTakerStrategist(disc(params), 2, []float64{50, 50}, 500, -100, 1)
	require.NoError(t, err)

	tr := trader.New("solo", device, flat.BuildSchedule, 1, 1e-6)

	clk := clock.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)
	m := NewMarket(clk, clearing.Prices{ScarcityPrice: 500, MinimalPrice: -100}, clearing.FirstComeFirstServe, rand.New(rand.NewSource(1)), 1, 2, nil, nil)
	m.Register(tr)

	require.NoError(t, m.Step())
	assert.Equal(t, model.TimeStamp(1), clk.Now())
}
