// Package config loads a YAML scenario description: a top-level Config
// with nested sections, an optional side-file include for reusable device
// presets (the BatteryFile pattern), a Merge helper that overlays
// non-zero override fields, and a Validate that constructs the real
// domain objects to surface configuration errors before a run starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"wholesale-dispatch/internal/model"
)

// Config is the on-disk scenario shape.
type Config struct {
	// DeviceFile optionally points at a side file holding a reusable
	// DeviceConfig preset. If both DeviceFile and Device are set,
	// Device's non-zero fields override the file.
	DeviceFile string           `yaml:"device_file"`
	Device     DeviceConfig     `yaml:"device"`
	Strategist StrategistConfig `yaml:"strategist"`
	Market     MarketConfig     `yaml:"market"`
}

// DeviceConfig mirrors model.DeviceParams plus the scenario's initial
// energy, which is a run parameter rather than a physical design one.
type DeviceConfig struct {
	Name                 string  `yaml:"name"`
	ChargeEfficiency     float64 `yaml:"charge_efficiency"`
	DischargeEfficiency  float64 `yaml:"discharge_efficiency"`
	E2PHours             float64 `yaml:"e2p_hours"`
	SelfDischargePerHour float64 `yaml:"self_discharge_per_hour"`
	InstalledPowerMW     float64 `yaml:"installed_power_mw"`
	InitialEnergyMWh     float64 `yaml:"initial_energy_mwh"`
}

// ToModelParams converts a DeviceConfig to model.DeviceParams.
func (d DeviceConfig) ToModelParams() model.DeviceParams {
	return model.DeviceParams{
		ChargeEff:            d.ChargeEfficiency,
		DischargeEff:         d.DischargeEfficiency,
		E2PHours:             d.E2PHours,
		SelfDischargePerHour: d.SelfDischargePerHour,
		InstalledPowerMW:     d.InstalledPowerMW,
	}
}

// StrategistConfig selects which dispatch strategist variant to build and
// carries its tunables as a free-form map.
type StrategistConfig struct {
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params"`
}

// MarketConfig carries the clearing constants and the seedable RNG seed.
type MarketConfig struct {
	ScarcityPriceEURperMWh float64 `yaml:"scarcity_price_eur_per_mwh"`
	MinimalPriceEURperMWh  float64 `yaml:"minimal_price_eur_per_mwh"`
	DistributionMethod     string  `yaml:"distribution_method"`
	RandomSeed             int64   `yaml:"random_seed"`
	PeriodHours            float64 `yaml:"period_hours"`
}

// Load reads, merges and validates a scenario at path.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads and merges a scenario but skips Validate, useful for
// debugging or printing a partially-filled config.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrConfiguration, path, err)
	}

	if c.DeviceFile != "" {
		devicePath := c.DeviceFile
		if !filepath.IsAbs(devicePath) {
			cand := filepath.Join(filepath.Dir(path), devicePath)
			if _, err := os.Stat(cand); err == nil {
				devicePath = cand
			}
		}
		loaded, err := loadDeviceFile(devicePath)
		if err != nil {
			return nil, err
		}
		c.Device = MergeDevice(loaded, c.Device)
	}
	return &c, nil
}

// Validate constructs the Device from this Config to surface device
// configuration errors (invalid efficiencies, initial energy outside
// capacity) before a simulation starts, a "validate by constructing"
// idiom, and checks that strategist.kind is set and market.period_hours is
// positive. Whether the strategist kind is a known one is not checked
// here; scenario.BuildScheduleBuilder rejects an unknown kind.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", model.ErrConfiguration)
	}
	if c.Strategist.Kind == "" {
		return fmt.Errorf("%w: strategist.kind is required", model.ErrConfiguration)
	}

	params := c.Device.ToModelParams()
	if _, err := model.NewDevice(params, c.Device.InitialEnergyMWh); err != nil {
		return fmt.Errorf("%w: device config invalid: %v", model.ErrConfiguration, err)
	}

	if c.Market.PeriodHours <= 0 {
		return fmt.Errorf("%w: market.period_hours must be > 0", model.ErrConfiguration)
	}
	return nil
}

type deviceFileWrapper struct {
	Device DeviceConfig `yaml:"device"`
}

func loadDeviceFile(path string) (DeviceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DeviceConfig{}, err
	}
	var w deviceFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return DeviceConfig{}, fmt.Errorf("%w: %s: %v", model.ErrConfiguration, path, err)
	}
	return w.Device, nil
}

// MergeDevice overlays override's non-zero fields onto base.
func MergeDevice(base, override DeviceConfig) DeviceConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.ChargeEfficiency != 0 {
		out.ChargeEfficiency = override.ChargeEfficiency
	}
	if override.DischargeEfficiency != 0 {
		out.DischargeEfficiency = override.DischargeEfficiency
	}
	if override.E2PHours != 0 {
		out.E2PHours = override.E2PHours
	}
	if override.SelfDischargePerHour != 0 {
		out.SelfDischargePerHour = override.SelfDischargePerHour
	}
	if override.InstalledPowerMW != 0 {
		out.InstalledPowerMW = override.InstalledPowerMW
	}
	if override.InitialEnergyMWh != 0 {
		out.InitialEnergyMWh = override.InitialEnergyMWh
	}
	return out
}
