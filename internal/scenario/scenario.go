// Package scenario turns a loaded config.Config into a runnable
// sim.Market: it owns the strategist-kind switch cmd/cli
// buildStrategy does, adapted to return errors instead of panicking since
// both cmd/simulate and cmd/marketd's HTTP handlers need to report a bad
// scenario back to their caller rather than crash the process.
package scenario

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"wholesale-dispatch/internal/bus"
	"wholesale-dispatch/internal/clearing"
	"wholesale-dispatch/internal/clock"
	"wholesale-dispatch/internal/config"
	"wholesale-dispatch/internal/ledger"
	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/sensitivity"
	"wholesale-dispatch/internal/sim"
	"wholesale-dispatch/internal/strategy"
	"wholesale-dispatch/internal/timeseries"
	"wholesale-dispatch/internal/trader"
)

// Runtime is one scenario's live simulation state: the Market, its single
// registered Trader and Ledger, kept together so a caller can Step it
// repeatedly and read back the ledger without re-deriving any of this
// wiring.
type Runtime struct {
	Market *sim.Market
	Trader *trader.Trader
	Ledger *ledger.Ledger
	Device model.TraderID
}

// New builds a Runtime from a validated config.Config. b may be nil to
// skip publishing to a message bus (cmd/simulate's case).
func New(cfg *config.Config, b *bus.Bus) (*Runtime, error) {
	device, err := model.NewDevice(cfg.Device.ToModelParams(), cfg.Device.InitialEnergyMWh)
	if err != nil {
		return nil, err
	}

	build, horizonPeriods, err := BuildScheduleBuilder(cfg)
	if err != nil {
		return nil, err
	}

	periodTicks := int64(1)
	tolerance := mustNum(cfg.Strategist.Params, "tolerance_mwh", 1e-6)
	id := model.TraderID(cfg.Device.Name)
	tr := trader.New(id, device, build, periodTicks, tolerance)

	method, err := parseDistributionMethod(cfg.Market.DistributionMethod)
	if err != nil {
		return nil, err
	}

	clk := clock.New(time.Now().UTC().Truncate(time.Hour), durationFromHours(cfg.Market.PeriodHours))
	l := ledger.New()
	prices := clearing.Prices{ScarcityPrice: cfg.Market.ScarcityPriceEURperMWh, MinimalPrice: cfg.Market.MinimalPriceEURperMWh}
	rng := rand.New(rand.NewSource(cfg.Market.RandomSeed))

	m := sim.NewMarket(clk, prices, method, rng, periodTicks, horizonPeriods, b, l)
	m.Register(tr)

	return &Runtime{Market: m, Trader: tr, Ledger: l, Device: id}, nil
}

// BuildScheduleBuilder switches on strategist.kind ("price_taker",
// "file_dispatch", "price_impact", "min_system_cost"), returning a
// trader.ScheduleBuilder adapted to each strategist variant's own
// BuildSchedule shape plus the horizon (in periods) that strategist
// expects PlaceBid to request.
func BuildScheduleBuilder(cfg *config.Config) (trader.ScheduleBuilder, int, error) {
	params := cfg.Device.ToModelParams()
	periodHours := cfg.Market.PeriodHours
	scarcity := cfg.Market.ScarcityPriceEURperMWh
	minimal := cfg.Market.MinimalPriceEURperMWh
	horizon := int(mustNum(cfg.Strategist.Params, "schedule_duration_periods", 24))

	switch cfg.Strategist.Kind {
	case "price_taker":
		disc := strategy.Discretisation{
			Params:                   params,
			NumberOfEnergyStates:     int(mustNum(cfg.Strategist.Params, "number_of_energy_states", 51)),
			NumberOfTransitionStates: int(mustNum(cfg.Strategist.Params, "number_of_transition_states", 10)),
			PeriodHours:              periodHours,
		}
		forecastPath := mustStr(cfg.Strategist.Params, "forecast_file", "")
		if forecastPath == "" {
			return nil, 0, fmt.Errorf("%w: price_taker strategist requires strategist.params.forecast_file", model.ErrConfiguration)
		}
		series, err := timeseries.LoadFileSeries(forecastPath)
		if err != nil {
			return nil, 0, err
		}
		return priceTakerBuilder(disc, horizon, series, scarcity, minimal), horizon, nil

	case "file_dispatch":
		seriesPath := mustStr(cfg.Strategist.Params, "series_file", "")
		if seriesPath == "" {
			return nil, 0, fmt.Errorf("%w: file_dispatch strategist requires strategist.params.series_file", model.ErrConfiguration)
		}
		series, err := timeseries.LoadFileSeries(seriesPath)
		if err != nil {
			return nil, 0, err
		}
		tolerance := mustNum(cfg.Strategist.Params, "tolerance_mwh", 1e-6)
		bufferLen := int(mustNum(cfg.Strategist.Params, "deviation_buffer_len", 0))
		fd := strategy.NewFileDispatcherStrategist(params, periodHours, scarcity, minimal, tolerance, bufferLen)
		return fileDispatchBuilder(fd, horizon, series), horizon, nil

	case "price_impact", "min_system_cost":
		disc := strategy.Discretisation{
			Params:                   params,
			NumberOfEnergyStates:     int(mustNum(cfg.Strategist.Params, "number_of_energy_states", 51)),
			NumberOfTransitionStates: int(mustNum(cfg.Strategist.Params, "number_of_transition_states", 10)),
			PeriodHours:              periodHours,
		}
		forecastPath := mustStr(cfg.Strategist.Params, "forecast_file", "")
		if forecastPath == "" {
			return nil, 0, fmt.Errorf("%w: %s strategist requires strategist.params.forecast_file", model.ErrConfiguration, cfg.Strategist.Kind)
		}
		series, err := timeseries.LoadFileSeries(forecastPath)
		if err != nil {
			return nil, 0, err
		}
		maxPowerMW := params.InstalledPowerMW
		minimise := cfg.Strategist.Kind == "min_system_cost"
		return sensitivityBuilder(disc, horizon, series, scarcity, minimal, maxPowerMW, minimise), horizon, nil

	default:
		return nil, 0, fmt.Errorf("%w: unsupported strategist kind %q", model.ErrConfiguration, cfg.Strategist.Kind)
	}
}

// priceTakerBuilder wraps PriceTakerStrategist.BuildSchedule, re-slicing
// the global forecast series to the rebuild window's own offset each time
// a schedule goes stale, since PriceTakerStrategist.ForecastEURperMWh is
// indexed locally from 0 within one BuildSchedule call.
func priceTakerBuilder(disc strategy.Discretisation, horizon int, series *timeseries.TableSeries, scarcity, minimal float64) trader.ScheduleBuilder {
	return func(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error) {
		periodTicks := window.DurationTicks / int64(horizon)
		forecast := sampleSeries(series, window.Start, periodTicks, horizon)
		s, err := strategy.NewPriceTakerStrategist(disc, horizon, forecast, scarcity, minimal, periodTicks)
		if err != nil {
			return model.DispatchSchedule{}, err
		}
		return s.BuildSchedule(window, currentEnergyMWh)
	}
}

// fileDispatchBuilder wraps FileDispatcherStrategist.BuildSchedule, which
// takes an extra samples argument and returns warnings this package
// discards (callers that care can call BuildScheduleBuilder's pieces
// directly).
func fileDispatchBuilder(fd *strategy.FileDispatcherStrategist, horizon int, series *timeseries.TableSeries) trader.ScheduleBuilder {
	return func(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error) {
		periodTicks := window.DurationTicks / int64(horizon)
		samples := sampleSeries(series, window.Start, periodTicks, horizon)
		sched, _, err := fd.BuildSchedule(window, samples, currentEnergyMWh)
		return sched, err
	}
}

// sensitivityBuilder wraps PriceImpactStrategist.BuildSchedule or
// CostMinimiserStrategist.BuildSchedule (chosen by minimise), building
// each hour's MeritOrderSensitivity as a degenerate flat-price curve over
// the forecast series: this repository has no live order-book history to
// consult at schedule-build time, so the forecast carries no price impact
// of its own yet, but the strategist still walks the same sensitivity-
// driven backward induction a book-derived forecast would use.
func sensitivityBuilder(disc strategy.Discretisation, horizon int, series *timeseries.TableSeries, scarcity, minimal, maxPowerMW float64, minimise bool) trader.ScheduleBuilder {
	return func(window model.TimePeriod, currentEnergyMWh float64) (model.DispatchSchedule, error) {
		periodTicks := window.DurationTicks / int64(horizon)
		prices := sampleSeries(series, window.Start, periodTicks, horizon)
		forecast := make([]*sensitivity.MeritOrderSensitivity, len(prices))
		for i, price := range prices {
			forecast[i] = sensitivity.NewPriceNoSensitivity(price, maxPowerMW, maxPowerMW)
		}
		if minimise {
			s, err := strategy.NewCostMinimiserStrategist(disc, horizon, forecast, scarcity, minimal)
			if err != nil {
				return model.DispatchSchedule{}, err
			}
			return s.BuildSchedule(window, currentEnergyMWh)
		}
		s, err := strategy.NewPriceImpactStrategist(disc, horizon, forecast, scarcity, minimal)
		if err != nil {
			return model.DispatchSchedule{}, err
		}
		return s.BuildSchedule(window, currentEnergyMWh)
	}
}

func sampleSeries(series *timeseries.TableSeries, start model.TimeStamp, periodTicks int64, n int) []float64 {
	out := make([]float64, n)
	t := start
	for i := 0; i < n; i++ {
		v, ok := series.ValueEarlierEqual(t)
		if !ok {
			v, _ = series.ValueLinear(t)
		}
		out[i] = v
		t = t.Add(periodTicks)
	}
	return out
}

func parseDistributionMethod(s string) (clearing.DistributionMethod, error) {
	switch strings.ToLower(s) {
	case "", "first_come_first_serve":
		return clearing.FirstComeFirstServe, nil
	case "same_shares":
		return clearing.SameShares, nil
	case "randomize":
		return clearing.Randomize, nil
	default:
		return 0, fmt.Errorf("%w: unknown distribution_method %q", model.ErrConfiguration, s)
	}
}

func durationFromHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

func mustStr(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}
