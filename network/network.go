package network

import (
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Edge is a directed road segment between two adjacent nodes.
type Edge struct {
	From, To Node
	Dir      Direction
}

type edgeKey struct {
	from, to Node
}

// Network is the fine, lane-level directed road graph. Nodes are grid
// coordinates; every edge connects grid neighbors and carries the compass
// direction of travel. Destination nodes are leaf spurs off through-lanes
// where cargo is picked up and delivered; some of them are charging points.
//
// The network exposes connectivity queries only. Occupancy and all other
// simulation state live in the sim package.
type Network struct {
	width, height int // macro-cell grid dimensions

	roads  *simple.DirectedGraph
	coarse *simple.UndirectedGraph

	dest     map[Node]bool
	charging map[Node]bool
	dirs     map[edgeKey]Direction

	// Insertion-ordered views. Map iteration order is not reproducible, and
	// seeded placement draws from these slices, so order matters.
	nodes       []Node
	edges       []Edge
	coarseNodes []Node
}

func newNetwork(width, height int) *Network {
	return &Network{
		width:    width,
		height:   height,
		roads:    simple.NewDirectedGraph(),
		coarse:   simple.NewUndirectedGraph(),
		dest:     make(map[Node]bool),
		charging: make(map[Node]bool),
		dirs:     make(map[edgeKey]Direction),
	}
}

// Width returns the macro-cell grid width.
func (n *Network) Width() int { return n.width }

// Height returns the macro-cell grid height.
func (n *Network) Height() int { return n.height }

// FineWidth returns the width of the lane-level grid.
func (n *Network) FineWidth() int { return n.width * 4 }

// FineHeight returns the height of the lane-level grid.
func (n *Network) FineHeight() int { return n.height * 4 }

// Contains reports whether the node is part of the road network
// (through-lane or destination).
func (n *Network) Contains(node Node) bool {
	return n.roads.Node(node.ID()) != nil
}

// IsDestination reports whether the node is a destination spur.
func (n *Network) IsDestination(node Node) bool { return n.dest[node] }

// IsChargingPoint reports whether the node is a charging point.
func (n *Network) IsChargingPoint(node Node) bool { return n.charging[node] }

// HasRoad reports whether a directed road edge exists between two nodes.
func (n *Network) HasRoad(from, to Node) bool {
	return n.roads.HasEdgeFromTo(from.ID(), to.ID())
}

// EdgeDirection returns the compass direction of the road edge from -> to.
func (n *Network) EdgeDirection(from, to Node) (Direction, bool) {
	d, ok := n.dirs[edgeKey{from, to}]
	return d, ok
}

// RoadsFrom returns the nodes reachable from node by a single road edge, in
// a fixed N/E/S/W order. A nil filter accepts every node.
func (n *Network) RoadsFrom(node Node, filter func(Node) bool) []Node {
	var out []Node
	for _, d := range Directions {
		next := node.Next(d)
		if !n.HasRoad(node, next) {
			continue
		}
		if filter != nil && !filter(next) {
			continue
		}
		out = append(out, next)
	}
	return out
}

// RoadsTo returns the nodes with a road edge into node, in a fixed
// N/E/S/W order.
func (n *Network) RoadsTo(node Node) []Node {
	var out []Node
	for _, d := range Directions {
		prev := node.Next(d)
		if n.HasRoad(prev, node) {
			out = append(out, prev)
		}
	}
	return out
}

// Nodes returns all network nodes matching the filter, in insertion order.
// A nil filter accepts every node.
func (n *Network) Nodes(filter func(Node) bool) []Node {
	var out []Node
	for _, node := range n.nodes {
		if filter == nil || filter(node) {
			out = append(out, node)
		}
	}
	return out
}

// DestinationNodes returns all destination nodes matching the filter, in
// insertion order.
func (n *Network) DestinationNodes(filter func(Node) bool) []Node {
	return n.Nodes(func(node Node) bool {
		return n.dest[node] && (filter == nil || filter(node))
	})
}

// ChargingPoints returns all charging point nodes.
func (n *Network) ChargingPoints() []Node {
	return n.Nodes(func(node Node) bool { return n.charging[node] })
}

// Edges returns every directed road edge in insertion order.
func (n *Network) Edges() []Edge {
	out := make([]Edge, len(n.edges))
	copy(out, n.edges)
	return out
}

// PriorityNodes returns the nodes whose occupants must be assumed to have
// right of way over a vehicle moving from -> to.
//
// A vehicle leaving a destination is merging traffic and yields to every
// other approach into to. Otherwise the roundabout cycle picks a single
// candidate approach; it holds priority only if it actually has a road edge
// into to and is not itself a destination (parked traffic has no standing
// priority).
//
// Only the immediate approach is considered; two vehicles waiting on each
// other through a longer chain of nodes are not detected here. That matches
// the rule this generator was built around and is a known liveness
// limitation, not an invariant.
func (n *Network) PriorityNodes(from, to Node) []Node {
	if n.dest[from] {
		var out []Node
		for _, p := range n.RoadsTo(to) {
			if p != from {
				out = append(out, p)
			}
		}
		return out
	}

	travel, ok := from.DirectionTo(to)
	if !ok {
		return nil
	}
	prio := to.Next(travel.priorityApproach())
	if n.dest[prio] {
		return nil
	}
	if n.HasRoad(prio, to) {
		return []Node{prio}
	}
	return nil
}

// ShortestPath returns the shortest road path from one node to another,
// including both endpoints. ok is false when no road path exists.
func (n *Network) ShortestPath(from, to Node) ([]Node, bool) {
	src := n.roads.Node(from.ID())
	if src == nil || n.roads.Node(to.ID()) == nil {
		return nil, false
	}
	sp := path.DijkstraFrom(src, n.roads)
	p, w := sp.To(to.ID())
	if math.IsInf(w, 1) {
		return nil, false
	}
	out := make([]Node, len(p))
	for i, gn := range p {
		out[i] = gn.(Node)
	}
	return out, true
}

// PathToNearest returns the shortest path to the nearest of the target
// nodes. Ties are broken by target enumeration order. ok is false when no
// target is reachable.
func (n *Network) PathToNearest(from Node, targets []Node) ([]Node, bool) {
	src := n.roads.Node(from.ID())
	if src == nil || len(targets) == 0 {
		return nil, false
	}
	sp := path.DijkstraFrom(src, n.roads)

	var best []graph.Node
	bestW := math.Inf(1)
	for _, t := range targets {
		if n.roads.Node(t.ID()) == nil {
			continue
		}
		p, w := sp.To(t.ID())
		if w < bestW {
			bestW = w
			best = p
		}
	}
	if math.IsInf(bestW, 1) {
		return nil, false
	}
	out := make([]Node, len(best))
	for i, gn := range best {
		out[i] = gn.(Node)
	}
	return out, true
}

// addEdge inserts a directed edge, registering unseen nodes as it goes.
func (n *Network) addEdge(from, to Node, d Direction) {
	n.registerNode(from)
	n.registerNode(to)
	key := edgeKey{from, to}
	if _, exists := n.dirs[key]; !exists {
		n.edges = append(n.edges, Edge{From: from, To: to, Dir: d})
	}
	n.dirs[key] = d
	n.roads.SetEdge(simple.Edge{F: from, T: to})
}

func (n *Network) registerNode(node Node) {
	if n.roads.Node(node.ID()) == nil {
		n.roads.AddNode(node)
		n.nodes = append(n.nodes, node)
	}
}
