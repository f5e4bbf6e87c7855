package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridhaul/network"
)

// updatePlan is the vehicle planning policy, re-evaluated every orient
// stage. With an empty plan: deliver carried cargo, else load co-located
// cargo, else move toward adjacent cargo, else wander. On top of that, low
// energy diverts to the nearest charging point, and an intended move into a
// blocked destination abandons the plan to avoid deadlocking in front of it.
func (w *World) updatePlan(v ecs.Entity) {
	plan := w.plans[v]
	pos := w.Position(v)
	notDestination := func(n network.Node) bool { return !w.net.IsDestination(n) }

	if len(plan.caps) == 0 {
		hold := w.holdMap.Get(v)
		switch {
		case len(hold.Cargo) > 0:
			// Deliver the first carried cargo and unload it. The two
			// exploratory hops afterwards keep the vehicle from picking the
			// same cargo right back up.
			cargo := hold.Cargo[0]
			plan.caps = []Capability{
				w.newFollowRoute(v, func() []network.Node {
					dest := w.shipMap.Get(cargo).Destination
					route, _ := w.net.ShortestPath(w.Position(v), dest)
					return route
				}),
				&UnloadCargo{w: w, agent: v, cargo: cargo},
				w.newFollowRoute(v, w.randomRoute(v, notDestination)),
				w.newFollowRoute(v, w.randomRoute(v, notDestination)),
			}
		case len(w.availableCargo(v, pos)) > 0:
			cargo := w.availableCargo(v, pos)[0]
			plan.caps = []Capability{&LoadCargo{w: w, agent: v, cargo: cargo}}
		case w.cargoAdjacent(v, pos):
			plan.caps = []Capability{
				w.newFollowRoute(v, w.randomRoute(v, func(n network.Node) bool {
					return len(w.availableCargo(v, n)) > 0
				})),
			}
		default:
			plan.caps = w.wanderPlan(v, notDestination)
		}
	}

	// Low energy: reach the nearest charging point and charge before
	// continuing with whatever was planned.
	if w.batteryMap.Get(v).Level < w.cfg.Vehicle.LowEnergy && !planHasCharge(plan) {
		detour := []Capability{
			w.newFollowRoute(v, func() []network.Node {
				route, ok := w.net.PathToNearest(w.Position(v), w.net.ChargingPoints())
				if !ok {
					w.log.Warn("no reachable charging point",
						"vehicle", uint32(v.ID()),
						"energy", w.batteryMap.Get(v).Level,
					)
					return nil
				}
				return route
			}),
			&ChargeEnergy{w: w, agent: v},
		}
		plan.caps = append(detour, plan.caps...)
	}

	// The next intended node is a destination occupied by something the
	// vehicle cannot coexist with. Waiting it out invites deadlock, so the
	// plan is dropped for a single move elsewhere.
	if next, ok := w.nextPos(v); ok && w.net.IsDestination(next) && !w.canEnter(v, next) {
		plan.caps = w.wanderPlan(v, notDestination)
	}
}

// wanderPlan builds a single random hop to a neighbor satisfying the
// condition, or a no-op Wait when the vehicle has no legal neighbor at all
// (an isolated spur, for example). Exhaustion is logged and recovered, never
// fatal.
func (w *World) wanderPlan(v ecs.Entity, cond func(network.Node) bool) []Capability {
	pos := w.Position(v)
	if len(w.net.RoadsFrom(pos, cond)) == 0 {
		w.log.Debug("planning exhausted, waiting",
			"vehicle", uint32(v.ID()),
			"node", pos,
		)
		return []Capability{Wait{}}
	}
	return []Capability{w.newFollowRoute(v, w.randomRoute(v, cond))}
}

// randomRoute returns a route function choosing one random road neighbor of
// the vehicle's position that satisfies the condition. Evaluated lazily at
// capability start.
func (w *World) randomRoute(v ecs.Entity, cond func(network.Node) bool) func() []network.Node {
	return func() []network.Node {
		candidates := w.net.RoadsFrom(w.Position(v), cond)
		if len(candidates) == 0 {
			return nil
		}
		return []network.Node{candidates[w.rng.Intn(len(candidates))]}
	}
}

// availableCargo returns the loadable cargo at a node: perceived, at a
// destination, unattached, and within the vehicle's remaining capacity.
func (w *World) availableCargo(v ecs.Entity, node network.Node) []ecs.Entity {
	if !w.perceives(v, node) || !w.net.IsDestination(node) {
		return nil
	}
	left := w.remainingCapacity(v)
	var out []ecs.Entity
	for _, e := range w.occupants[node] {
		if !w.shipMap.Has(e) {
			continue
		}
		ship := w.shipMap.Get(e)
		if !ship.Carried && ship.Weight <= left {
			out = append(out, e)
		}
	}
	return out
}

// cargoAdjacent reports whether any directly reachable neighbor holds
// loadable cargo.
func (w *World) cargoAdjacent(v ecs.Entity, pos network.Node) bool {
	for _, n := range w.net.RoadsFrom(pos, nil) {
		if len(w.availableCargo(v, n)) > 0 {
			return true
		}
	}
	return false
}

func planHasCharge(plan *Plan) bool {
	for _, c := range plan.caps {
		if _, ok := c.(*ChargeEnergy); ok {
			return true
		}
	}
	return false
}
