package sim

import (
	"fmt"
	"math"

	"github.com/pthm-cable/gridhaul/components"
	"github.com/pthm-cable/gridhaul/network"
)

// spawnVehicles creates count vehicles on random unoccupied road nodes.
// Capacity is drawn in [1, max_load] and the initial energy in
// [0.2*max_energy, max_energy], so a fresh world already contains vehicles
// close to their charging detour. The initial heading follows an incoming
// road edge where one exists.
func (w *World) spawnVehicles(count int) error {
	for i := 0; i < count; i++ {
		free := w.net.Nodes(func(n network.Node) bool {
			return len(w.occupants[n]) == 0
		})
		if len(free) == 0 {
			return fmt.Errorf("sim: no free road node for vehicle %d of %d", i+1, count)
		}
		node := free[w.rng.Intn(len(free))]

		maxEnergy := w.cfg.Vehicle.MaxEnergy
		minEnergy := int(math.Round(0.2 * float64(maxEnergy)))
		pos := components.Position{Node: node}
		motion := components.Motion{Heading: w.spawnHeading(node)}
		battery := components.Battery{
			Level: minEnergy + w.rng.Intn(maxEnergy-minEnergy+1),
			Max:   maxEnergy,
		}
		hold := components.Hold{Capacity: w.rng.Intn(w.cfg.Vehicle.MaxLoad) + 1}

		v := w.vehicleMapper.NewEntity(&pos, &motion, &battery, &hold)
		w.vehicles = append(w.vehicles, v)
		w.plans[v] = &Plan{}
		w.occupants[node] = append(w.occupants[node], v)
		w.perceive(v)
	}
	return nil
}

// spawnHeading derives an initial heading from the first road edge entering
// the spawn node, falling back to north on nodes without one.
func (w *World) spawnHeading(node network.Node) network.Direction {
	for _, prev := range w.net.RoadsTo(node) {
		if d, ok := w.net.EdgeDirection(prev, node); ok {
			return d
		}
	}
	return network.North
}

// spawnCargos creates count cargos on random destination nodes, each with a
// weight in [1, max_weight] and a freshly selected destination.
func (w *World) spawnCargos(count int) error {
	dests := w.net.DestinationNodes(nil)
	if count > 0 && len(dests) == 0 {
		return fmt.Errorf("sim: network has no destination nodes to place %d cargos on", count)
	}
	for i := 0; i < count; i++ {
		node := dests[w.rng.Intn(len(dests))]

		pos := components.Position{Node: node}
		ship := components.Shipment{Weight: w.rng.Intn(w.cfg.Cargo.MaxWeight) + 1}

		c := w.cargoMapper.NewEntity(&pos, &ship)
		w.cargos = append(w.cargos, c)
		w.occupants[node] = append(w.occupants[node], c)
		w.selectDestination(c)
	}
	return nil
}
