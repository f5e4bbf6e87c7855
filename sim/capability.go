package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridhaul/network"
)

// Capability is one unit of intended agent behavior. The scheduler drives
// the lifecycle: Start once when the capability becomes the plan head,
// Precondition checked every decide stage, Act run when the precondition
// held, Postcondition checked every observe stage to pop completed
// capabilities. A false precondition is normal control flow, never an
// error; the agent is simply not ready that step.
type Capability interface {
	Start()
	Precondition() bool
	Act()
	Postcondition() bool

	// NextPos returns the node the capability intends to enter next.
	// ok is false for capabilities that do not move the agent.
	NextPos() (node network.Node, ok bool)
}

// FollowRoute moves a vehicle along a route of nodes, one road edge per
// step. The route is materialized lazily on Start so a queued capability
// plans from wherever the vehicle actually is by then, not from where it
// was when the plan was made.
type FollowRoute struct {
	w       *World
	agent   ecs.Entity
	routeFn func() []network.Node
	route   []network.Node
	started bool
}

func (w *World) newFollowRoute(agent ecs.Entity, routeFn func() []network.Node) *FollowRoute {
	return &FollowRoute{w: w, agent: agent, routeFn: routeFn}
}

// Start materializes the route. The scheduler calls it on the head
// capability every orient stage; a route that no longer connects to the
// vehicle's position (a charge detour moved it elsewhere in the meantime)
// is rematerialized from where the vehicle now stands.
func (f *FollowRoute) Start() {
	if !f.started {
		f.route = f.routeFn()
		f.started = true
		return
	}
	f.trim()
	if len(f.route) > 0 && !f.w.net.HasRoad(f.w.Position(f.agent), f.route[0]) {
		f.route = f.routeFn()
	}
}

// trim drops leading route nodes the vehicle has already reached, including
// the starting node routes from the navigator begin with.
func (f *FollowRoute) trim() {
	pos := f.w.Position(f.agent)
	for len(f.route) > 0 && f.route[0] == pos {
		f.route = f.route[1:]
	}
}

// NextPos returns the next route node still ahead of the vehicle.
func (f *FollowRoute) NextPos() (network.Node, bool) {
	f.trim()
	if len(f.route) == 0 {
		return network.Node{}, false
	}
	return f.route[0], true
}

// Precondition holds when a road edge leads to the next route node, the
// vehicle has energy left, and neither the target node nor any node with
// priority over the move is blocked by an occupant the vehicle cannot
// coexist with.
func (f *FollowRoute) Precondition() bool {
	target, ok := f.NextPos()
	if !ok {
		return false
	}
	pos := f.w.Position(f.agent)
	if !f.w.net.HasRoad(pos, target) {
		return false
	}
	if f.w.batteryMap.Get(f.agent).Level <= 0 {
		return false
	}
	if !f.w.canEnter(f.agent, target) {
		return false
	}
	for _, prio := range f.w.net.PriorityNodes(pos, target) {
		if !f.w.canEnter(f.agent, prio) {
			return false
		}
	}
	return true
}

// Act moves the vehicle (and its cargo) one edge along the route.
func (f *FollowRoute) Act() {
	target, ok := f.NextPos()
	if !ok {
		return
	}
	f.w.moveVehicle(f.agent, target)
}

// Postcondition holds once the route is exhausted.
func (f *FollowRoute) Postcondition() bool {
	if !f.started {
		return false
	}
	f.trim()
	return len(f.route) == 0
}

// LoadCargo attaches a co-located cargo to the vehicle.
type LoadCargo struct {
	w     *World
	agent ecs.Entity
	cargo ecs.Entity
}

func (l *LoadCargo) Start() {}

// Precondition holds when the cargo shares the vehicle's node, is not
// already carried, and fits the remaining capacity.
func (l *LoadCargo) Precondition() bool {
	ship := l.w.shipMap.Get(l.cargo)
	if ship.Carried {
		return false
	}
	if l.w.Position(l.cargo) != l.w.Position(l.agent) {
		return false
	}
	return ship.Weight <= l.w.remainingCapacity(l.agent)
}

func (l *LoadCargo) Act() {
	hold := l.w.holdMap.Get(l.agent)
	hold.Cargo = append(hold.Cargo, l.cargo)
	ship := l.w.shipMap.Get(l.cargo)
	ship.Carried = true
	ship.Carrier = l.agent
}

func (l *LoadCargo) Postcondition() bool {
	ship := l.w.shipMap.Get(l.cargo)
	return ship.Carried && ship.Carrier == l.agent
}

func (l *LoadCargo) NextPos() (network.Node, bool) { return network.Node{}, false }

// UnloadCargo detaches a carried cargo at a destination. A cargo dropped at
// its own destination immediately draws a new one, keeping demand alive.
type UnloadCargo struct {
	w     *World
	agent ecs.Entity
	cargo ecs.Entity
}

func (u *UnloadCargo) Start() {}

// Precondition holds when this vehicle carries the cargo and is parked at a
// destination node.
func (u *UnloadCargo) Precondition() bool {
	ship := u.w.shipMap.Get(u.cargo)
	if !ship.Carried || ship.Carrier != u.agent {
		return false
	}
	return u.w.net.IsDestination(u.w.Position(u.agent))
}

func (u *UnloadCargo) Act() {
	hold := u.w.holdMap.Get(u.agent)
	for i, c := range hold.Cargo {
		if c == u.cargo {
			hold.Cargo = append(hold.Cargo[:i], hold.Cargo[i+1:]...)
			break
		}
	}
	ship := u.w.shipMap.Get(u.cargo)
	ship.Carried = false
	ship.Carrier = ecs.Entity{}
	if u.w.Position(u.cargo) == ship.Destination {
		u.w.selectDestination(u.cargo)
	}
}

func (u *UnloadCargo) Postcondition() bool {
	ship := u.w.shipMap.Get(u.cargo)
	return !ship.Carried || ship.Carrier != u.agent
}

func (u *UnloadCargo) NextPos() (network.Node, bool) { return network.Node{}, false }

// ChargeEnergy refills a vehicle's battery at a charging point, one
// charging-speed increment per step, capped at the maximum.
type ChargeEnergy struct {
	w     *World
	agent ecs.Entity
}

func (c *ChargeEnergy) Start() {}

func (c *ChargeEnergy) Precondition() bool {
	return c.w.net.IsChargingPoint(c.w.Position(c.agent))
}

func (c *ChargeEnergy) Act() {
	battery := c.w.batteryMap.Get(c.agent)
	battery.Level += c.w.cfg.Vehicle.ChargingSpeed
	if battery.Level > battery.Max {
		battery.Level = battery.Max
	}
}

func (c *ChargeEnergy) Postcondition() bool {
	battery := c.w.batteryMap.Get(c.agent)
	return battery.Level >= battery.Max
}

func (c *ChargeEnergy) NextPos() (network.Node, bool) { return network.Node{}, false }

// Wait is the trivial no-op capability. The planner falls back to it when
// no legal move exists, keeping the agent scheduled without going anywhere.
type Wait struct{}

func (Wait) Start()                          {}
func (Wait) Precondition() bool              { return true }
func (Wait) Act()                            {}
func (Wait) Postcondition() bool             { return true }
func (Wait) NextPos() (network.Node, bool)   { return network.Node{}, false }
