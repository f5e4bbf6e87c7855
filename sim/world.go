// Package sim implements the transport world: vehicles and cargo as ECS
// entities on a generated road network, driven by a staged
// observe/orient/decide/act scheduler. One Step call is one full sweep over
// all agents; each stage completes for every agent before the next stage
// begins, so every decision is made against the same pre-step occupancy.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridhaul/components"
	"github.com/pthm-cable/gridhaul/config"
	"github.com/pthm-cable/gridhaul/network"
)

// Plan is an agent-owned queue of capabilities. Only the head is ever
// evaluated or activated; completed capabilities are popped from the front.
// Replanning replaces the queue wholesale.
type Plan struct {
	caps  []Capability
	ready bool
}

// Head returns the current head capability, or nil for an empty plan.
func (p *Plan) Head() Capability {
	if len(p.caps) == 0 {
		return nil
	}
	return p.caps[0]
}

// World holds the complete simulation state.
type World struct {
	cfg  *config.Config
	net  *network.Network
	rng  *rand.Rand
	seed int64
	log  *slog.Logger

	world         *ecs.World
	vehicleMapper *ecs.Map4[
		components.Position,
		components.Motion,
		components.Battery,
		components.Hold,
	]
	cargoMapper *ecs.Map2[
		components.Position,
		components.Shipment,
	]

	// Individual component mappers for lookups
	posMap     *ecs.Map[components.Position]
	motionMap  *ecs.Map[components.Motion]
	batteryMap *ecs.Map[components.Battery]
	holdMap    *ecs.Map[components.Hold]
	shipMap    *ecs.Map[components.Shipment]

	// Creation order doubles as scheduler order, keeping runs reproducible.
	vehicles []ecs.Entity
	cargos   []ecs.Entity

	// Plans and perceived node sets per vehicle (plain maps keyed by
	// entity; never iterated, so map order cannot leak into the run).
	plans      map[ecs.Entity]*Plan
	perception map[ecs.Entity]map[network.Node]bool

	// Occupant lists keyed by node. Entities hold only their node value;
	// this arena is the single owner of the position relation.
	occupants map[network.Node][]ecs.Entity

	step     int
	genStart time.Time
	genEnd   time.Time
}

// NewWorld generates a road network from the configuration and populates it
// with vehicles and cargo. Any impossibility (invalid parameters, a network
// too small or too sparse for the requested agents) is reported here, before
// any agent exists.
func NewWorld(cfg *config.Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Sim.Seed
	if seed == -1 {
		seed = time.Now().UnixNano()
	}

	world := ecs.NewWorld()
	w := &World{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
		log:  slog.Default(),

		world: world,
		vehicleMapper: ecs.NewMap4[
			components.Position,
			components.Motion,
			components.Battery,
			components.Hold,
		](world),
		cargoMapper: ecs.NewMap2[
			components.Position,
			components.Shipment,
		](world),
		posMap:     ecs.NewMap[components.Position](world),
		motionMap:  ecs.NewMap[components.Motion](world),
		batteryMap: ecs.NewMap[components.Battery](world),
		holdMap:    ecs.NewMap[components.Hold](world),
		shipMap:    ecs.NewMap[components.Shipment](world),

		plans:      make(map[ecs.Entity]*Plan),
		perception: make(map[ecs.Entity]map[network.Node]bool),
		occupants:  make(map[network.Node][]ecs.Entity),
	}

	w.genStart = time.Now().UTC()

	net, err := network.Generate(network.GenConfig{
		Width:              cfg.Grid.Width,
		Height:             cfg.Grid.Height,
		RoadDensity:        cfg.Grid.RoadDensity,
		DestinationDensity: cfg.Grid.DestinationDensity,
		ChargingDensity:    cfg.Grid.ChargingDensity,
	}, w.rng)
	if err != nil {
		return nil, err
	}
	w.net = net

	if err := w.spawnVehicles(cfg.Vehicle.Count); err != nil {
		return nil, err
	}
	if err := w.spawnCargos(cfg.Cargo.Count); err != nil {
		return nil, err
	}

	w.genEnd = time.Now().UTC()
	w.log.Info("world generated",
		"seed", seed,
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Width, cfg.Grid.Height),
		"road_nodes", len(net.Nodes(nil)),
		"destinations", len(net.DestinationNodes(nil)),
		"charging_points", len(net.ChargingPoints()),
		"vehicles", len(w.vehicles),
		"cargos", len(w.cargos),
	)
	return w, nil
}

// Step advances the simulation by one full scheduler sweep. Each stage runs
// for all agents before the next stage starts: decide reads occupancy
// without mutating it, and only act mutates, so the priority rule is checked
// against a consistent snapshot for every agent regardless of order.
func (w *World) Step() {
	for _, v := range w.vehicles {
		w.observe(v)
	}
	for _, v := range w.vehicles {
		w.orient(v)
	}
	for _, v := range w.vehicles {
		w.decide(v)
	}
	for _, v := range w.vehicles {
		w.act(v)
	}
	w.step++
}

// observe refreshes the vehicle's perceived surroundings and pops the head
// capability if its postcondition now holds.
func (w *World) observe(v ecs.Entity) {
	w.perceive(v)

	plan := w.plans[v]
	if head := plan.Head(); head != nil && head.Postcondition() {
		plan.caps = plan.caps[1:]
	}
}

// orient replans from current state and starts the head capability.
func (w *World) orient(v ecs.Entity) {
	w.updatePlan(v)
	if head := w.plans[v].Head(); head != nil {
		head.Start()
	}
}

// decide records whether the head capability may act this step. No state is
// mutated here.
func (w *World) decide(v ecs.Entity) {
	plan := w.plans[v]
	head := plan.Head()
	plan.ready = head != nil && head.Precondition()
}

// act executes the head capability if decide found it ready. Agents without
// a ready plan stay where they are.
func (w *World) act(v ecs.Entity) {
	plan := w.plans[v]
	if head := plan.Head(); head != nil && plan.ready {
		head.Act()
	}
}

// perceive rebuilds the vehicle's perceived node set: every network node
// within the configured Chebyshev radius, diagonals included.
func (w *World) perceive(v ecs.Entity) {
	r := w.cfg.Vehicle.PerceptionRange
	pos := w.posMap.Get(v).Node
	seen := make(map[network.Node]bool, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			node := network.Node{X: pos.X + dx, Y: pos.Y + dy}
			if w.net.Contains(node) {
				seen[node] = true
			}
		}
	}
	w.perception[v] = seen
}

func (w *World) perceives(v ecs.Entity, node network.Node) bool {
	return w.perception[v][node]
}

// Net returns the road network.
func (w *World) Net() *network.Network { return w.net }

// Time returns the number of completed steps.
func (w *World) Time() int { return w.step }

// Seed returns the effective random seed, after entropy resolution.
func (w *World) Seed() int64 { return w.seed }

// GenerationTimes returns when world generation started and finished.
func (w *World) GenerationTimes() (start, end time.Time) {
	return w.genStart, w.genEnd
}

// Vehicles returns the vehicle entities in scheduler order.
func (w *World) Vehicles() []ecs.Entity { return w.vehicles }

// Cargos returns the cargo entities in creation order.
func (w *World) Cargos() []ecs.Entity { return w.cargos }

// Occupants returns the entities currently at a node.
func (w *World) Occupants(node network.Node) []ecs.Entity {
	return w.occupants[node]
}

// Position returns an entity's current node.
func (w *World) Position(e ecs.Entity) network.Node {
	return w.posMap.Get(e).Node
}

func (w *World) isVehicle(e ecs.Entity) bool {
	return w.holdMap.Has(e)
}

// canCoexist reports whether two entities may share a node. Vehicles never
// coexist with other vehicles; everything else can share freely.
func (w *World) canCoexist(a, b ecs.Entity) bool {
	if a == b {
		return true
	}
	return !(w.isVehicle(a) && w.isVehicle(b))
}

// canEnter reports whether the entity can coexist with every occupant of
// the node.
func (w *World) canEnter(e ecs.Entity, node network.Node) bool {
	for _, other := range w.occupants[node] {
		if !w.canCoexist(e, other) {
			return false
		}
	}
	return true
}

// place puts an entity at a node, updating both the arena and the entity's
// position value.
func (w *World) place(e ecs.Entity, node network.Node) {
	w.occupants[node] = append(w.occupants[node], e)
	w.posMap.Get(e).Node = node
}

// relocate moves an entity from its current node to another.
func (w *World) relocate(e ecs.Entity, to network.Node) {
	from := w.posMap.Get(e).Node
	occ := w.occupants[from]
	for i, other := range occ {
		if other == e {
			w.occupants[from] = append(occ[:i], occ[i+1:]...)
			break
		}
	}
	w.place(e, to)
}

// moveVehicle advances a vehicle along a road edge, carrying its cargo
// along, turning its heading to the edge direction and spending one unit of
// energy.
func (w *World) moveVehicle(v ecs.Entity, to network.Node) {
	from := w.posMap.Get(v).Node
	if d, ok := w.net.EdgeDirection(from, to); ok {
		w.motionMap.Get(v).Heading = d
	}
	w.relocate(v, to)
	for _, cargo := range w.holdMap.Get(v).Cargo {
		w.relocate(cargo, to)
	}
	w.batteryMap.Get(v).Level--
}

// remainingCapacity returns how much weight the vehicle can still take on.
func (w *World) remainingCapacity(v ecs.Entity) int {
	hold := w.holdMap.Get(v)
	left := hold.Capacity
	for _, cargo := range hold.Cargo {
		left -= w.shipMap.Get(cargo).Weight
	}
	return left
}

// nextPos returns the node the vehicle's plan intends to enter next, if the
// head capability moves at all.
func (w *World) nextPos(v ecs.Entity) (network.Node, bool) {
	if head := w.plans[v].Head(); head != nil {
		return head.NextPos()
	}
	return network.Node{}, false
}

// selectDestination assigns the cargo a fresh random destination,
// preferring plain destinations over charging points so chargers stay
// available for vehicles.
func (w *World) selectDestination(cargo ecs.Entity) {
	targets := w.net.DestinationNodes(func(n network.Node) bool {
		return !w.net.IsChargingPoint(n)
	})
	if len(targets) == 0 {
		targets = w.net.DestinationNodes(nil)
	}
	if len(targets) == 0 {
		return
	}
	w.shipMap.Get(cargo).Destination = targets[w.rng.Intn(len(targets))]
}
