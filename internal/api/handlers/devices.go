package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wholesale-dispatch/internal/api"
	"wholesale-dispatch/internal/api/models"
)

// DeviceHandler serves GET /api/v1/devices.
type DeviceHandler struct {
	store *api.ScenarioStore
}

// NewDeviceHandler constructs a DeviceHandler over store.
func NewDeviceHandler(store *api.ScenarioStore) *DeviceHandler {
	return &DeviceHandler{store: store}
}

// ListDevices handles GET /api/v1/devices: every known scenario's device,
// including its live energy level if the scenario's runtime has already
// been built (by a clear or ledger request), else its configured initial
// energy.
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	ids, err := h.store.IDs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: models.ErrorDetail{Code: "SCENARIO_DIR_UNREADABLE", Message: err.Error()}})
		return
	}

	devices := make([]models.DeviceInfo, 0, len(ids))
	for _, id := range ids {
		cfg, err := h.store.Config(id)
		if err != nil {
			continue
		}
		params := cfg.Device.ToModelParams()
		info := models.DeviceInfo{
			ScenarioID:         id,
			Name:               cfg.Device.Name,
			StrategistKind:     cfg.Strategist.Kind,
			InstalledPowerMW:   params.InstalledPowerMW,
			CapacityMWh:        params.CapacityMWh(),
			EnergyInStorageMWh: cfg.Device.InitialEnergyMWh,
		}
		if rt, ok := h.store.RuntimeIfBuilt(id); ok {
			info.EnergyInStorageMWh = rt.Trader.Device.EnergyInStorageMWh
		}
		devices = append(devices, info)
	}

	c.JSON(http.StatusOK, gin.H{"devices": devices})
}
