// Package components defines ECS components for the simulation.
package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridhaul/network"
)

// Position holds an entity's node in the road network. Entities store only
// the coordinate; the occupant lists live in the world, keyed by node.
type Position struct {
	Node network.Node
}

// Motion holds a vehicle's heading, the direction of the last road edge it
// traveled.
type Motion struct {
	Heading network.Direction
}

// Battery holds a vehicle's energy budget. Level stays in [0, Max]; a move
// costs one unit, charging adds the charging speed per step up to Max.
type Battery struct {
	Level int
	Max   int
}

// Hold is a vehicle's cargo bay. Capacity is fixed at creation; the cargo
// list is the owning side of the vehicle/cargo relation and total carried
// weight never exceeds Capacity.
type Hold struct {
	Capacity int
	Cargo    []ecs.Entity
}

// Shipment holds cargo state. Carrier is a non-owning back-reference, only
// valid while Carried is true. Destination is re-selected after a delivered
// shipment is unloaded, keeping demand continuous.
type Shipment struct {
	Weight      int
	Destination network.Node
	Carrier     ecs.Entity
	Carried     bool
}
