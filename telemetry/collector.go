// Package telemetry collects per-step agent records and writes them out as
// CSV, either streamed to an output directory during the run or bundled into
// a zip archive afterwards.
package telemetry

import (
	"github.com/pthm-cable/gridhaul/sim"
)

// VehicleRow is one vehicle observation at one step.
type VehicleRow struct {
	Time     int    `csv:"time"`
	ID       uint32 `csv:"id"`
	X        int    `csv:"x"`
	Y        int    `csv:"y"`
	Heading  string `csv:"heading"`
	Energy   int    `csv:"energy"`
	Capacity int    `csv:"capacity"`
	Cargos   int    `csv:"cargos"`
}

// CargoRow is one cargo observation at one step.
type CargoRow struct {
	Time    int    `csv:"time"`
	ID      uint32 `csv:"id"`
	X       int    `csv:"x"`
	Y       int    `csv:"y"`
	Weight  int    `csv:"weight"`
	DestX   int    `csv:"dest_x"`
	DestY   int    `csv:"dest_y"`
	Carried bool   `csv:"carried"`
}

// Collector accumulates rows over a run. Rows are kept in memory so the full
// tables can be archived after the run ends.
type Collector struct {
	vehicles []VehicleRow
	cargos   []CargoRow
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect appends one row per agent from the snapshot.
func (c *Collector) Collect(snap *sim.Snapshot) {
	for _, v := range snap.Vehicles {
		c.vehicles = append(c.vehicles, VehicleRow{
			Time:     snap.Step,
			ID:       v.ID,
			X:        v.X,
			Y:        v.Y,
			Heading:  v.Heading,
			Energy:   v.Energy,
			Capacity: v.Capacity,
			Cargos:   v.Cargos,
		})
	}
	for _, cg := range snap.Cargos {
		c.cargos = append(c.cargos, CargoRow{
			Time:    snap.Step,
			ID:      cg.ID,
			X:       cg.X,
			Y:       cg.Y,
			Weight:  cg.Weight,
			DestX:   cg.DestX,
			DestY:   cg.DestY,
			Carried: cg.Carried,
		})
	}
}

// VehicleRows returns all collected vehicle rows.
func (c *Collector) VehicleRows() []VehicleRow { return c.vehicles }

// CargoRows returns all collected cargo rows.
func (c *Collector) CargoRows() []CargoRow { return c.cargos }
