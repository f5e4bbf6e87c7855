package telemetry

import (
	"testing"

	"github.com/pthm-cable/gridhaul/sim"
)

func testSnapshot(step int) *sim.Snapshot {
	return &sim.Snapshot{
		Step:       step,
		Seed:       99,
		FineWidth:  8,
		FineHeight: 8,
		Vehicles: []sim.VehicleView{
			{ID: 1, X: 2, Y: 3, Heading: "E", Energy: 50, Capacity: 2, Cargos: 1},
			{ID: 2, X: 4, Y: 4, Heading: "N", Energy: 80, Capacity: 3, Cargos: 0},
		},
		Cargos: []sim.CargoView{
			{ID: 7, X: 2, Y: 3, Weight: 1, DestX: 6, DestY: 1, Carried: true},
		},
	}
}

func TestCollectorAccumulates(t *testing.T) {
	c := NewCollector()
	c.Collect(testSnapshot(0))
	c.Collect(testSnapshot(1))

	if got := len(c.VehicleRows()); got != 4 {
		t.Errorf("vehicle rows = %d, want 4", got)
	}
	if got := len(c.CargoRows()); got != 2 {
		t.Errorf("cargo rows = %d, want 2", got)
	}

	row := c.VehicleRows()[2]
	if row.Time != 1 || row.ID != 1 || row.Heading != "E" || row.Energy != 50 {
		t.Errorf("unexpected vehicle row: %+v", row)
	}
	cargo := c.CargoRows()[1]
	if cargo.Time != 1 || cargo.ID != 7 || !cargo.Carried || cargo.DestX != 6 {
		t.Errorf("unexpected cargo row: %+v", cargo)
	}
}
