package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceHandler_ListDevices(t *testing.T) {
	store := newTestStore(t)
	h := NewDeviceHandler(store)

	router := gin.New()
	router.GET("/devices", h.ListDevices)

	req := httptest.NewRequest(http.MethodGet, "/devices", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Devices []struct {
			ScenarioID     string  `json:"scenario_id"`
			Name           string  `json:"name"`
			StrategistKind string  `json:"strategist_kind"`
			CapacityMWh    float64 `json:"capacity_mwh"`
		} `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "battery-1", resp.Devices[0].ScenarioID)
	assert.Equal(t, "price_taker", resp.Devices[0].StrategistKind)
	assert.Greater(t, resp.Devices[0].CapacityMWh, 0.0)
}
