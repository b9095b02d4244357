package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-dispatch/internal/api"
	"wholesale-dispatch/internal/api/models"
)

func newTestStore(t *testing.T) *api.ScenarioStore {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	forecastPath := filepath.Join(dir, "forecast.csv")
	require.NoError(t, os.WriteFile(forecastPath, []byte("0,10\n1,10\n2,10\n"), 0o644))

	scenarioYAML := `
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
    forecast_file: ` + forecastPath + `
market:
  scarcity_price_eur_per_mwh: 500
  minimal_price_eur_per_mwh: -100
  period_hours: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "battery-1.yaml"), []byte(scenarioYAML), 0o644))

	t.Setenv("SCENARIO_DIR", dir)
	return api.NewScenarioStore(nil)
}

func TestScenarioHandler_ClearAndLedger(t *testing.T) {
	store := newTestStore(t)
	h := NewScenarioHandler(store)

	router := gin.New()
	router.POST("/scenarios/:id/clear", h.Clear)
	router.GET("/scenarios/:id/ledger", h.Ledger)

	req := httptest.NewRequest(http.MethodPost, "/scenarios/battery-1/clear", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var clearResp models.ClearResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clearResp))
	assert.Equal(t, "battery-1", clearResp.ScenarioID)

	req = httptest.NewRequest(http.MethodGet, "/scenarios/battery-1/ledger", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var ledgerResp models.LedgerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ledgerResp))
	assert.Equal(t, "battery-1", ledgerResp.ScenarioID)
}

func TestScenarioHandler_ClearUnknownScenario(t *testing.T) {
	store := newTestStore(t)
	h := NewScenarioHandler(store)

	router := gin.New()
	router.POST("/scenarios/:id/clear", h.Clear)

	req := httptest.NewRequest(http.MethodPost, "/scenarios/nonexistent/clear", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
