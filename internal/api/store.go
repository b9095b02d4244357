// Package api wires the HTTP operations surface onto internal/scenario.
package api

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wholesale-dispatch/internal/bus"
	"wholesale-dispatch/internal/config"
	"wholesale-dispatch/internal/scenario"
)

// ScenarioStore discovers scenario YAML files from a directory and lazily
// builds a scenario.Runtime for each one, keyed by its filename stem.
type ScenarioStore struct {
	dir string
	bus *bus.Bus

	mu       sync.Mutex
	runtimes map[string]*scenario.Runtime
	configs  map[string]*config.Config
}

// NewScenarioStore resolves its scenario directory from the SCENARIO_DIR
// environment variable (default "./examples/scenarios").
func NewScenarioStore(b *bus.Bus) *ScenarioStore {
	dir := os.Getenv("SCENARIO_DIR")
	if dir == "" {
		dir = "./examples/scenarios"
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	log.Printf("api: scenario directory: %s", dir)

	return &ScenarioStore{
		dir:      dir,
		bus:      b,
		runtimes: make(map[string]*scenario.Runtime),
		configs:  make(map[string]*config.Config),
	}
}

// IDs lists every scenario YAML file's stem found in the store's
// directory, in filename order.
func (s *ScenarioStore) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("api: read scenario directory %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return ids, nil
}

// Config returns the parsed config.Config for id, loading and caching it
// on first use.
func (s *ScenarioStore) Config(id string) (*config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg, ok := s.configs[id]; ok {
		return cfg, nil
	}
	cfg, err := config.Load(filepath.Join(s.dir, id+".yaml"))
	if err != nil {
		return nil, err
	}
	s.configs[id] = cfg
	return cfg, nil
}

// RuntimeIfBuilt returns the already-built Runtime for id without
// triggering construction, so a listing endpoint can report live state
// for scenarios someone has already cleared without side-effecting the
// rest into existence.
func (s *ScenarioStore) RuntimeIfBuilt(id string) (*scenario.Runtime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.runtimes[id]
	return rt, ok
}

// Runtime returns the live scenario.Runtime for id, building it (and its
// Trader/Market/Ledger) on first use and reusing it for every later call,
// so repeated clearing steps accumulate in the same ledger.
func (s *ScenarioStore) Runtime(id string) (*scenario.Runtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rt, ok := s.runtimes[id]; ok {
		return rt, nil
	}

	cfg, ok := s.configs[id]
	if !ok {
		var err error
		cfg, err = config.Load(filepath.Join(s.dir, id+".yaml"))
		if err != nil {
			return nil, err
		}
		s.configs[id] = cfg
	}

	rt, err := scenario.New(cfg, s.bus)
	if err != nil {
		return nil, fmt.Errorf("api: build scenario %q: %w", id, err)
	}
	s.runtimes[id] = rt
	return rt, nil
}
