package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-dispatch/internal/bus"
	"wholesale-dispatch/internal/config"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestNew_PriceTakerRunsAndSettles(t *testing.T) {
	dir := t.TempDir()
	forecastPath := writeFile(t, dir, "forecast.csv", "0,10\n1,300\n2,10\n")
	cfgPath := writeFile(t, dir, "scenario.yaml", `
device:
  name: battery-1
  charge_efficiency: 0.95
  discharge_efficiency: 0.95
  e2p_hours: 2
  installed_power_mw: 5
strategist:
  kind: price_taker
  params:
    schedule_duration_periods: 2
    number_of_energy_states: 11
    number_of_transition_states: 5
    forecast_file: `+forecastPath+`
market:
  scarcity_price_eur_per_mwh: 500
  minimal_price_eur_per_mwh: -100
  distribution_method: first_come_first_serve
  period_hours: 1
`)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	b := bus.New()
	bids := b.SubscribeBids(1)

	rt, err := New(cfg, b)
	require.NoError(t, err)

	require.NoError(t, rt.Market.Step())

	select {
	case e := <-bids:
		assert.Equal(t, "DEMAND", e.Side, "a cheap hour before an expensive one should make the price-taker want to charge")
		assert.Greater(t, e.EnergyMWh, 0.0)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a bid")
	}

	assert.Empty(t, rt.Ledger.Rows, "no counterparty registered, so nothing can clear")
}

func TestBuildScheduleBuilder_UnknownKindFails(t *testing.T) {
	cfg := &config.Config{Strategist: config.StrategistConfig{Kind: "nonexistent"}}
	_, _, err := BuildScheduleBuilder(cfg)
	assert.Error(t, err)
}
