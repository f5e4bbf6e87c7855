package network

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/graph/simple"
)

// ErrImpossible reports that the requested grid size and density combination
// cannot produce a connected road network.
var ErrImpossible = errors.New("network: impossible generation parameters")

// GenConfig holds the parameters of road network generation.
type GenConfig struct {
	Width, Height      int
	RoadDensity        float64
	DestinationDensity float64
	ChargingDensity    float64
}

// Generate produces a road network. Generation is a two step process: first
// a coarse undirected macro-cell graph is grown from the grid center with a
// weighted frontier heuristic, then each macro-cell expands into a 4x4 block
// of one-way lanes, with roundabouts at junctions, U-turns at dead ends, and
// probabilistic destination spurs.
//
// All randomness is drawn from rng, so equal configs and seeds produce
// identical networks.
func Generate(cfg GenConfig, rng *rand.Rand) (*Network, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrImpossible, cfg.Width, cfg.Height)
	}
	n := newNetwork(cfg.Width, cfg.Height)
	if err := n.growCoarse(cfg, rng); err != nil {
		return nil, err
	}
	n.expandLanes(cfg, rng)
	return n, nil
}

// growCoarse creates a connected undirected graph over a subset of the
// macro-cells. Starting from the center cell, a weighted frontier of
// candidate edges is sampled without replacement until the node count
// reaches the road density target. The weight prefers edges leading away
// from the center and into cells with few connections, giving organically
// branching layouts instead of a uniform mesh.
func (n *Network) growCoarse(cfg GenConfig, rng *rand.Rand) error {
	target := float64(cfg.Width*cfg.Height) * cfg.RoadDensity

	start := Node{cfg.Width / 2, cfg.Height / 2}
	var candidates [][2]Node
	for _, nb := range n.gridNeighbours(start) {
		candidates = append(candidates, [2]Node{start, nb})
	}

	for float64(len(n.coarseNodes)) < target {
		if len(candidates) == 0 {
			return fmt.Errorf("%w: frontier exhausted at %d of %.0f macro-cells (grid %dx%d, road density %v)",
				ErrImpossible, len(n.coarseNodes), math.Ceil(target), cfg.Width, cfg.Height, cfg.RoadDensity)
		}

		idx := n.sampleEdge(candidates, rng)
		edge := candidates[idx]
		candidates = append(candidates[:idx], candidates[idx+1:]...)

		// A new sink opens up its own neighbors as frontier candidates.
		sink := edge[1]
		if n.coarse.Node(sink.ID()) == nil {
			for _, nb := range n.gridNeighbours(sink) {
				candidates = append(candidates, [2]Node{sink, nb})
			}
		}
		n.addCoarseEdge(edge[0], edge[1])
	}
	return nil
}

// sampleEdge picks one candidate index, weighted by edgePreference.
func (n *Network) sampleEdge(candidates [][2]Node, rng *rand.Rand) int {
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, e := range candidates {
		weights[i] = n.edgePreference(e)
		total += weights[i]
	}
	if total <= 0 {
		return rng.Intn(len(candidates))
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(candidates) - 1
}

// edgePreference weighs a candidate coarse edge. Distance of the sink from
// the grid center is normalized against the half-diagonal; existing
// connections of source and sink push the weight down. The epsilon keeps
// weights positive for fresh nodes.
func (n *Network) edgePreference(e [2]Node) float64 {
	srcDeg := n.coarseDegree(e[0])
	sinkDeg := n.coarseDegree(e[1])

	distX := float64(e[1].X - n.width/2)
	distY := float64(e[1].Y - n.height/2)
	half := math.Sqrt(float64((n.width/2)*(n.width/2) + (n.height/2)*(n.height/2)))
	normDist := 0.0
	if half > 0 {
		normDist = math.Sqrt(distX*distX+distY*distY) / half
	}

	return 50 * normDist / (float64(srcDeg*srcDeg)+float64(sinkDeg)+1e-5)
}

func (n *Network) coarseDegree(node Node) int {
	if n.coarse.Node(node.ID()) == nil {
		return 0
	}
	return n.coarse.From(node.ID()).Len()
}

func (n *Network) addCoarseEdge(a, b Node) {
	if n.coarse.Node(a.ID()) == nil {
		n.coarse.AddNode(a)
		n.coarseNodes = append(n.coarseNodes, a)
	}
	if n.coarse.Node(b.ID()) == nil {
		n.coarse.AddNode(b)
		n.coarseNodes = append(n.coarseNodes, b)
	}
	n.coarse.SetEdge(simple.Edge{F: a, T: b})
}

// gridNeighbours returns the in-bounds macro-cell neighbors of a cell.
func (n *Network) gridNeighbours(node Node) []Node {
	var out []Node
	for _, d := range Directions {
		nb := node.Next(d)
		if nb.X >= 0 && nb.Y >= 0 && nb.X < n.width && nb.Y < n.height {
			out = append(out, nb)
		}
	}
	return out
}

func (n *Network) hasCoarseNeighbour(node Node, d Direction) bool {
	nb := node.Next(d)
	return n.coarse.HasEdgeBetween(node.ID(), nb.ID())
}

// expandLanes turns the coarse graph into the directed lane network. Each
// coarse edge becomes a three-segment one-way lane across the block
// boundary; each macro-cell is then wired internally according to its
// coarse degree: dead ends get a U-turn, two-neighbor cells get a
// through or turn pair, and junctions get a full roundabout ring.
// Destination spurs are attached along the way with probability
// DestinationDensity.
func (n *Network) expandLanes(cfg GenConfig, rng *rand.Rand) {
	// Boundary lanes plus the destination each lane admits.
	for _, node := range n.coarseNodes {
		if n.hasCoarseNeighbour(node, East) {
			n.addLane(node.Sub(2, 2), East, East, East)
			n.addDestination(node.Sub(3, 2), South, cfg, rng)
		}
		if n.hasCoarseNeighbour(node, West) {
			n.addLane(node.Sub(1, 1), West, West, West)
			n.addDestination(node.Sub(0, 1), North, cfg, rng)
		}
		if n.hasCoarseNeighbour(node, North) {
			n.addLane(node.Sub(2, 1), North, North, North)
			n.addDestination(node.Sub(2, 0), East, cfg, rng)
		}
		if n.hasCoarseNeighbour(node, South) {
			n.addLane(node.Sub(1, 2), South, South, South)
			n.addDestination(node.Sub(1, 3), West, cfg, rng)
		}
	}

	// Internal wiring per macro-cell.
	for _, node := range n.coarseNodes {
		switch deg := n.coarseDegree(node); {
		case deg == 1:
			n.wireDeadEnd(node, cfg, rng)
		case deg == 2:
			n.wireThrough(node, cfg, rng)
		case deg > 2:
			n.wireRoundabout(node, cfg, rng)
		}
	}
}

// wireDeadEnd adds the three edges that let traffic turn around in a cell
// with a single coarse neighbor, plus destinations along the unused sides
// and the incoming lane.
func (n *Network) wireDeadEnd(node Node, cfg GenConfig, rng *rand.Rand) {
	if !n.hasCoarseNeighbour(node, East) {
		n.addLane(node.Sub(2, 2), North)
		n.addDestination(node.Sub(2, 1), East, cfg, rng)
	}
	if !n.hasCoarseNeighbour(node, West) {
		n.addLane(node.Sub(1, 1), South)
		n.addDestination(node.Sub(1, 2), West, cfg, rng)
	}
	if !n.hasCoarseNeighbour(node, North) {
		n.addLane(node.Sub(2, 1), West)
		n.addDestination(node.Sub(1, 1), North, cfg, rng)
	}
	if !n.hasCoarseNeighbour(node, South) {
		n.addLane(node.Sub(1, 2), East)
		n.addDestination(node.Sub(2, 2), South, cfg, rng)
	}

	if n.hasCoarseNeighbour(node, East) {
		n.addDestination(node.Sub(3, 1), North, cfg, rng)
		n.addDestination(node.Sub(2, 1), North, cfg, rng)
	}
	if n.hasCoarseNeighbour(node, West) {
		n.addDestination(node.Sub(0, 2), South, cfg, rng)
		n.addDestination(node.Sub(1, 2), South, cfg, rng)
	}
	if n.hasCoarseNeighbour(node, North) {
		n.addDestination(node.Sub(1, 0), West, cfg, rng)
		n.addDestination(node.Sub(1, 1), West, cfg, rng)
	}
	if n.hasCoarseNeighbour(node, South) {
		n.addDestination(node.Sub(2, 3), East, cfg, rng)
		n.addDestination(node.Sub(2, 2), East, cfg, rng)
	}
}

// wireThrough connects a cell with exactly two coarse neighbors, either as
// a straight through road or as a turn, with destinations on the free sides.
func (n *Network) wireThrough(node Node, cfg GenConfig, rng *rand.Rand) {
	north := n.hasCoarseNeighbour(node, North)
	east := n.hasCoarseNeighbour(node, East)
	south := n.hasCoarseNeighbour(node, South)
	west := n.hasCoarseNeighbour(node, West)

	switch {
	case north && west:
		n.addLane(node.Sub(1, 2), East, North)
		n.addDestination(node.Sub(0, 2), South, cfg, rng)
		n.addDestination(node.Sub(1, 2), South, cfg, rng)
		n.addDestination(node.Sub(2, 2), South, cfg, rng)
		n.addDestination(node.Sub(2, 1), East, cfg, rng)
	case north && south:
		n.addLane(node.Sub(1, 1), South)
		n.addLane(node.Sub(2, 2), North)
		n.addDestination(node.Sub(1, 0), West, cfg, rng)
		n.addDestination(node.Sub(1, 1), West, cfg, rng)
		n.addDestination(node.Sub(1, 2), West, cfg, rng)
		n.addDestination(node.Sub(2, 3), East, cfg, rng)
		n.addDestination(node.Sub(2, 2), East, cfg, rng)
		n.addDestination(node.Sub(2, 1), East, cfg, rng)
	case north && east:
		n.addLane(node.Sub(1, 1), South, East)
		n.addDestination(node.Sub(1, 0), West, cfg, rng)
		n.addDestination(node.Sub(1, 1), West, cfg, rng)
		n.addDestination(node.Sub(1, 2), West, cfg, rng)
		n.addDestination(node.Sub(2, 2), South, cfg, rng)
	case west && south:
		n.addLane(node.Sub(2, 2), North, West)
		n.addDestination(node.Sub(2, 3), East, cfg, rng)
		n.addDestination(node.Sub(2, 2), East, cfg, rng)
		n.addDestination(node.Sub(2, 1), East, cfg, rng)
		n.addDestination(node.Sub(1, 1), North, cfg, rng)
	case west && east:
		n.addLane(node.Sub(2, 1), West)
		n.addLane(node.Sub(1, 2), East)
		n.addDestination(node.Sub(3, 1), North, cfg, rng)
		n.addDestination(node.Sub(2, 1), North, cfg, rng)
		n.addDestination(node.Sub(1, 1), North, cfg, rng)
		n.addDestination(node.Sub(0, 2), South, cfg, rng)
		n.addDestination(node.Sub(1, 2), South, cfg, rng)
		n.addDestination(node.Sub(2, 2), South, cfg, rng)
	case south && east:
		n.addLane(node.Sub(2, 1), West, South)
		n.addDestination(node.Sub(3, 1), North, cfg, rng)
		n.addDestination(node.Sub(2, 1), North, cfg, rng)
		n.addDestination(node.Sub(1, 1), North, cfg, rng)
		n.addDestination(node.Sub(1, 2), West, cfg, rng)
	}
}

// wireRoundabout gives three- and four-way junctions the full internal ring,
// so every turn is possible. Three-way junctions admit destinations on
// their unused side.
func (n *Network) wireRoundabout(node Node, cfg GenConfig, rng *rand.Rand) {
	n.addLane(node.Sub(1, 1), South, East, North, West)

	if !n.hasCoarseNeighbour(node, East) {
		n.addDestination(node.Sub(2, 3), East, cfg, rng)
		n.addDestination(node.Sub(2, 2), East, cfg, rng)
		n.addDestination(node.Sub(2, 1), East, cfg, rng)
	}
	if !n.hasCoarseNeighbour(node, West) {
		n.addDestination(node.Sub(1, 0), West, cfg, rng)
		n.addDestination(node.Sub(1, 1), West, cfg, rng)
		n.addDestination(node.Sub(1, 2), West, cfg, rng)
	}
	if !n.hasCoarseNeighbour(node, North) {
		n.addDestination(node.Sub(3, 1), North, cfg, rng)
		n.addDestination(node.Sub(2, 1), North, cfg, rng)
		n.addDestination(node.Sub(1, 1), North, cfg, rng)
	}
	if !n.hasCoarseNeighbour(node, South) {
		n.addDestination(node.Sub(0, 2), South, cfg, rng)
		n.addDestination(node.Sub(1, 2), South, cfg, rng)
		n.addDestination(node.Sub(2, 2), South, cfg, rng)
	}
}

// addLane adds a run of directed edges starting at node, one per direction
// in sequence.
func (n *Network) addLane(node Node, dirs ...Direction) {
	for _, d := range dirs {
		next := node.Next(d)
		n.addEdge(node, next, d)
		node = next
	}
}

// addDestination attaches, with probability DestinationDensity, a
// destination spur next to a lane node. The spur is connected in both
// directions so vehicles can enter and leave. Each attached destination is
// additionally a charging point with probability ChargingDensity.
//
// A spur is only attached where the neighboring cell is free; destinations
// are leaves off through-lanes, never part of a junction.
func (n *Network) addDestination(node Node, d Direction, cfg GenConfig, rng *rand.Rand) {
	if rng.Float64() >= cfg.DestinationDensity {
		return
	}
	spot := node.Next(d)
	if n.Contains(spot) {
		return
	}
	n.addEdge(node, spot, d)
	n.addEdge(spot, node, d.Opposite())
	n.dest[spot] = true
	if rng.Float64() < cfg.ChargingDensity {
		n.charging[spot] = true
	}
}
