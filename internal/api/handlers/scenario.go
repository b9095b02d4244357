package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wholesale-dispatch/internal/api"
	"wholesale-dispatch/internal/api/models"
	"wholesale-dispatch/internal/ledger"
)

// ScenarioHandler serves the clearing/ledger operations over a live,
// steppable scenario.Runtime.
type ScenarioHandler struct {
	store *api.ScenarioStore
}

// NewScenarioHandler constructs a ScenarioHandler over store.
func NewScenarioHandler(store *api.ScenarioStore) *ScenarioHandler {
	return &ScenarioHandler{store: store}
}

// Clear handles POST /api/v1/scenarios/:id/clear: runs one clearing step
// for the named scenario and returns the rows it settled.
func (h *ScenarioHandler) Clear(c *gin.Context) {
	id := c.Param("id")

	rt, err := h.store.Runtime(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: models.ErrorDetail{Code: "SCENARIO_NOT_FOUND", Message: err.Error()}})
		return
	}

	before := len(rt.Ledger.Rows)
	t := rt.Market.Clock.Now()
	if err := rt.Market.Step(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: models.ErrorDetail{Code: "CLEARING_FAILED", Message: err.Error()}})
		return
	}

	c.JSON(http.StatusOK, models.ClearResponse{
		ScenarioID:     id,
		TimeStampTicks: t.Ticks(),
		Rows:           toLedgerRows(rt.Ledger.Rows[before:]),
	})
}

// Ledger handles GET /api/v1/scenarios/:id/ledger: returns the full
// settlement history accumulated so far.
func (h *ScenarioHandler) Ledger(c *gin.Context) {
	id := c.Param("id")

	rt, err := h.store.Runtime(id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: models.ErrorDetail{Code: "SCENARIO_NOT_FOUND", Message: err.Error()}})
		return
	}

	c.JSON(http.StatusOK, models.LedgerResponse{ScenarioID: id, Rows: toLedgerRows(rt.Ledger.Rows)})
}

func toLedgerRows(rows []ledger.Row) []models.LedgerRow {
	out := make([]models.LedgerRow, len(rows))
	for i, r := range rows {
		out[i] = toLedgerRow(r)
	}
	return out
}

func toLedgerRow(r ledger.Row) models.LedgerRow {
	return models.LedgerRow{
		TimeStampTicks:        r.TimeStamp.Ticks(),
		TraderID:              string(r.TraderID),
		RequestedEnergyMWh:    r.RequestedEnergyMWh,
		RequestedSide:         r.RequestedSide.String(),
		BidPriceEURperMWh:     r.BidPriceEURperMWh,
		AwardedEnergyMWh:      r.AwardedEnergyMWh,
		AwardedPriceEURperMWh: r.AwardedPriceEURperMWh,
		Action:                string(r.Action),
		EnergyBeforeMWh:       r.EnergyBeforeMWh,
		EnergyAfterMWh:        r.EnergyAfterMWh,
		SettlementEUR:         r.SettlementEUR,
		CumSettlementEUR:      r.CumSettlementEUR,
	}
}
