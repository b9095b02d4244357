// Package ledger accumulates and persists per-trader settlement history.
// Row generalises a single battery's settlement record to any trader's
// SettlementRow, keyed by TimeStamp instead of a wall-clock interval since
// the clock is tick-based (internal/clock).
package ledger

import (
	"encoding/csv"
	"os"
	"strconv"

	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/trader"
)

// Row is one trader's settlement outcome for one clearing event, with its
// TraderID attached since a Ledger holds rows from every trader in a run.
type Row struct {
	TraderID model.TraderID
	trader.SettlementRow
}

// Ledger accumulates Rows across a run's clearing events, in arrival order.
type Ledger struct {
	Rows []Row
}

// New constructs an empty Ledger.
func New() *Ledger { return &Ledger{} }

// Record appends a settlement row under the given trader.
func (l *Ledger) Record(id model.TraderID, row trader.SettlementRow) {
	l.Rows = append(l.Rows, Row{TraderID: id, SettlementRow: row})
}

// ForTrader returns the settlement rows recorded under a single trader, in
// arrival order, for handing to internal/report.Summarize.
func (l *Ledger) ForTrader(id model.TraderID) []trader.SettlementRow {
	var out []trader.SettlementRow
	for _, r := range l.Rows {
		if r.TraderID == id {
			out = append(out, r.SettlementRow)
		}
	}
	return out
}

// ByTrader groups every recorded row by TraderID, for internal/report.RankByPnL.
func (l *Ledger) ByTrader() map[string][]trader.SettlementRow {
	out := map[string][]trader.SettlementRow{}
	for _, r := range l.Rows {
		key := string(r.TraderID)
		out[key] = append(out[key], r.SettlementRow)
	}
	return out
}

// WriteCSV dumps the ledger to path: one header row, one data row per
// settlement event.
func (l *Ledger) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"trader_id",
		"timestamp_ticks",
		"requested_energy_mwh",
		"requested_side",
		"bid_price_eur_per_mwh",
		"awarded_energy_mwh",
		"awarded_price_eur_per_mwh",
		"action",
		"energy_before_mwh",
		"energy_after_mwh",
		"settlement_eur",
		"cum_settlement_eur",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range l.Rows {
		row := []string{
			string(r.TraderID),
			strconv.FormatInt(r.TimeStamp.Ticks(), 10),
			fmtFloat(r.RequestedEnergyMWh),
			r.RequestedSide.String(),
			fmtFloat(r.BidPriceEURperMWh),
			fmtFloat(r.AwardedEnergyMWh),
			fmtFloat(r.AwardedPriceEURperMWh),
			string(r.Action),
			fmtFloat(r.EnergyBeforeMWh),
			fmtFloat(r.EnergyAfterMWh),
			fmtFloat(r.SettlementEUR),
			fmtFloat(r.CumSettlementEUR),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
