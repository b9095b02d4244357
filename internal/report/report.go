// Package report summarises a trader's settlement history for ranking and
// display, grounded on the percentile-interpolation helper over a sorted
// slice used to summarise LMP values, generalised from "LMP values for one
// grid location" to "awarded prices for one trader's settlement rows".
package report

import (
	"math"
	"sort"

	"wholesale-dispatch/internal/trader"
)

// TraderSummary is one trader's performance over a run: cleared volume,
// realised PnL, and the price-percentile spread of its awarded bids (a cheap signal for "did this trader capture the spread").
type TraderSummary struct {
	TraderID string

	ClearedVolumeMWh float64
	RealisedPnLEUR   float64

	P05AwardedPriceEURperMWh float64
	P95AwardedPriceEURperMWh float64
	SpreadP95P05             float64
}

// Summarize builds a TraderSummary from a trader's settlement rows,
// generalising a min/max/percentile pass over LMP values to a percentile
// pass over awarded prices.
func Summarize(traderID string, rows []trader.SettlementRow) TraderSummary {
	s := TraderSummary{TraderID: traderID}
	if len(rows) == 0 {
		return s
	}

	prices := make([]float64, 0, len(rows))
	for _, r := range rows {
		s.ClearedVolumeMWh += r.AwardedEnergyMWh
		s.RealisedPnLEUR += r.SettlementEUR
		if r.AwardedEnergyMWh > 0 {
			prices = append(prices, r.AwardedPriceEURperMWh)
		}
	}
	if len(prices) == 0 {
		return s
	}

	sort.Float64s(prices)
	s.P05AwardedPriceEURperMWh = percentileSorted(prices, 0.05)
	s.P95AwardedPriceEURperMWh = percentileSorted(prices, 0.95)
	s.SpreadP95P05 = s.P95AwardedPriceEURperMWh - s.P05AwardedPriceEURperMWh
	return s
}

// percentileSorted linearly interpolates the q-quantile of an
// already-sorted slice, q in [0,1].
func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// RankByPnL sorts a set of per-trader summaries descending by realised PnL.
func RankByPnL(summaries map[string][]trader.SettlementRow) []TraderSummary {
	out := make([]TraderSummary, 0, len(summaries))
	for id, rows := range summaries {
		out = append(out, Summarize(id, rows))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RealisedPnLEUR > out[j].RealisedPnLEUR
	})
	return out
}
