// Command simulate runs a scenario standalone, no network transport:
// load a YAML scenario, step the clock end-to-end, write a ledger CSV
// and print a summary.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"wholesale-dispatch/internal/config"
	"wholesale-dispatch/internal/report"
	"wholesale-dispatch/internal/scenario"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML scenario")
	steps := flag.Int("steps", 24, "Number of clearing steps to run")
	outCSV := flag.String("out", "results/ledger.csv", "Output ledger CSV path")
	flag.Parse()

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	rt, err := scenario.New(cfg, nil)
	if err != nil {
		panic(err)
	}

	for i := 0; i < *steps; i++ {
		if err := rt.Market.Step(); err != nil {
			panic(fmt.Errorf("step %d: %w", i, err))
		}
	}

	if err := os.MkdirAll(filepath.Dir(*outCSV), 0o755); err != nil {
		panic(err)
	}
	if err := rt.Ledger.WriteCSV(*outCSV); err != nil {
		panic(err)
	}

	summary := report.Summarize(string(rt.Device), rt.Ledger.ForTrader(rt.Device))
	fmt.Printf("Wrote %d rows to %s\n", len(rt.Ledger.Rows), *outCSV)
	fmt.Printf("ClearedVolumeMWh=%.3f RealisedPnLEUR=%.2f P05=%.2f P95=%.2f\n",
		summary.ClearedVolumeMWh, summary.RealisedPnLEUR, summary.P05AwardedPriceEURperMWh, summary.P95AwardedPriceEURperMWh)
}
