package sim

import (
	"reflect"
	"testing"

	"github.com/pthm-cable/gridhaul/config"
	"github.com/pthm-cable/gridhaul/network"
)

func testConfig(seed int64) *config.Config {
	return &config.Config{
		Grid: config.GridConfig{
			Width:              6,
			Height:             6,
			RoadDensity:        0.5,
			DestinationDensity: 0.5,
			ChargingDensity:    0.5,
		},
		Vehicle: config.VehicleConfig{
			Count:           5,
			MaxLoad:         3,
			MaxEnergy:       100,
			ChargingSpeed:   10,
			LowEnergy:       30,
			PerceptionRange: 2,
		},
		Cargo:  config.CargoConfig{Count: 5, MaxWeight: 3},
		Sim:    config.SimConfig{Seed: seed, CollectData: true},
		Screen: config.ScreenConfig{Width: 1280, Height: 720, TargetFPS: 60},
	}
}

// newTestWorld builds a world, walking the seed forward past the rare layout
// without destinations. The walk is deterministic, so two calls with the
// same base seed build identical worlds.
func newTestWorld(t *testing.T, mutate func(*config.Config), seed int64) *World {
	t.Helper()
	for s := seed; s < seed+16; s++ {
		cfg := testConfig(s)
		if mutate != nil {
			mutate(cfg)
		}
		w, err := NewWorld(cfg)
		if err == nil {
			return w
		}
	}
	t.Fatalf("no viable world near seed %d", seed)
	return nil
}

func TestRunsReproducible(t *testing.T) {
	a := newTestWorld(t, nil, 42)
	b := newTestWorld(t, nil, 42)

	for i := 0; i < 40; i++ {
		a.Step()
		b.Step()
	}

	sa, sb := a.Snapshot(), b.Snapshot()
	if !reflect.DeepEqual(sa.Vehicles, sb.Vehicles) {
		t.Error("same seed diverged in vehicle state")
	}
	if !reflect.DeepEqual(sa.Cargos, sb.Cargos) {
		t.Error("same seed diverged in cargo state")
	}
}

func TestVehiclesNeverShareNode(t *testing.T) {
	w := newTestWorld(t, nil, 7)

	for i := 0; i < 80; i++ {
		w.Step()
		byNode := make(map[network.Node]int)
		for _, v := range w.Vehicles() {
			byNode[w.Position(v)]++
		}
		for node, count := range byNode {
			if count > 1 {
				t.Fatalf("step %d: %d vehicles at %v", i, count, node)
			}
		}
	}
}

func TestEnergyStaysInBounds(t *testing.T) {
	w := newTestWorld(t, nil, 9)

	for i := 0; i < 80; i++ {
		w.Step()
		for _, v := range w.Vehicles() {
			b := w.batteryMap.Get(v)
			if b.Level < 0 || b.Level > b.Max {
				t.Fatalf("step %d: energy %d outside [0, %d]", i, b.Level, b.Max)
			}
		}
	}
}

func TestCarriedCargoFollowsCarrier(t *testing.T) {
	w := newTestWorld(t, nil, 11)

	for i := 0; i < 80; i++ {
		w.Step()
		for _, c := range w.Cargos() {
			ship := w.shipMap.Get(c)
			if ship.Carried && w.Position(c) != w.Position(ship.Carrier) {
				t.Fatalf("step %d: carried cargo at %v, carrier at %v",
					i, w.Position(c), w.Position(ship.Carrier))
			}
		}
	}
}

func TestSpawnInvariants(t *testing.T) {
	w := newTestWorld(t, nil, 3)
	cfg := w.cfg

	seen := make(map[network.Node]bool)
	for _, v := range w.Vehicles() {
		hold := w.holdMap.Get(v)
		if hold.Capacity < 1 || hold.Capacity > cfg.Vehicle.MaxLoad {
			t.Errorf("capacity %d outside [1, %d]", hold.Capacity, cfg.Vehicle.MaxLoad)
		}
		b := w.batteryMap.Get(v)
		if b.Level > b.Max || b.Level < b.Max/5 {
			t.Errorf("spawn energy %d outside [%d, %d]", b.Level, b.Max/5, b.Max)
		}
		pos := w.Position(v)
		if seen[pos] {
			t.Errorf("two vehicles spawned at %v", pos)
		}
		seen[pos] = true
		if w.plans[v] == nil {
			t.Error("vehicle spawned without a plan")
		}
	}

	for _, c := range w.Cargos() {
		pos := w.Position(c)
		if !w.net.IsDestination(pos) {
			t.Errorf("cargo spawned off a destination: %v", pos)
		}
		ship := w.shipMap.Get(c)
		if ship.Weight < 1 || ship.Weight > cfg.Cargo.MaxWeight {
			t.Errorf("cargo weight %d outside [1, %d]", ship.Weight, cfg.Cargo.MaxWeight)
		}
		if !w.net.IsDestination(ship.Destination) {
			t.Errorf("cargo destination %v is not a destination node", ship.Destination)
		}
	}
}

func TestPerceptionRadius(t *testing.T) {
	w := newTestWorld(t, nil, 5)
	v := w.Vehicles()[0]
	pos := w.Position(v)
	r := w.cfg.Vehicle.PerceptionRange

	for node := range w.perception[v] {
		dx, dy := node.X-pos.X, node.Y-pos.Y
		if dx < -r || dx > r || dy < -r || dy > r {
			t.Errorf("perceived node %v outside radius %d of %v", node, r, pos)
		}
	}

	far := network.Node{X: pos.X + r + 1, Y: pos.Y}
	if w.perceives(v, far) {
		t.Errorf("node %v beyond radius should not be perceived", far)
	}
}

func TestSnapshotShape(t *testing.T) {
	w := newTestWorld(t, nil, 13)
	w.Step()
	snap := w.Snapshot()

	if snap.Step != 1 {
		t.Errorf("snapshot step = %d, want 1", snap.Step)
	}
	if snap.Seed != w.Seed() {
		t.Errorf("snapshot seed = %d, want %d", snap.Seed, w.Seed())
	}
	if len(snap.Vehicles) != len(w.Vehicles()) {
		t.Errorf("snapshot has %d vehicles, want %d", len(snap.Vehicles), len(w.Vehicles()))
	}
	if len(snap.Cargos) != len(w.Cargos()) {
		t.Errorf("snapshot has %d cargos, want %d", len(snap.Cargos), len(w.Cargos()))
	}
	if len(snap.Nodes) != len(w.Net().Nodes(nil)) {
		t.Errorf("snapshot has %d nodes, want %d", len(snap.Nodes), len(w.Net().Nodes(nil)))
	}
	if snap.FineWidth != w.Net().FineWidth() || snap.FineHeight != w.Net().FineHeight() {
		t.Error("snapshot grid dimensions do not match the network")
	}
}

func TestValidationRejectedBeforeGeneration(t *testing.T) {
	cfg := testConfig(1)
	cfg.Vehicle.MaxLoad = 0
	if _, err := NewWorld(cfg); err == nil {
		t.Error("expected config validation error")
	}
}
