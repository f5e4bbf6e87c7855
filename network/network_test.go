package network

import (
	"reflect"
	"testing"
)

// crossroads builds a hand-wired junction at center with road edges from all
// four neighbors into the center and back out.
func crossroads() (*Network, Node) {
	n := newNetwork(3, 3)
	center := Node{5, 5}
	for _, d := range Directions {
		nb := center.Next(d)
		n.addEdge(nb, center, d.Opposite())
		n.addEdge(center, nb, d)
	}
	return n, center
}

func TestHasRoadAndEdgeDirection(t *testing.T) {
	n, center := crossroads()
	west := center.Next(West)

	if !n.HasRoad(west, center) {
		t.Fatal("expected road from west neighbor into center")
	}
	d, ok := n.EdgeDirection(west, center)
	if !ok || d != East {
		t.Errorf("EdgeDirection = %v, %v; want East", d, ok)
	}
	if n.HasRoad(center, Node{50, 50}) {
		t.Error("unexpected road to unrelated node")
	}
}

func TestRoadsFromFixedOrder(t *testing.T) {
	n, center := crossroads()
	got := n.RoadsFrom(center, nil)
	want := []Node{
		center.Next(North),
		center.Next(East),
		center.Next(South),
		center.Next(West),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RoadsFrom order = %v, want %v", got, want)
	}

	filtered := n.RoadsFrom(center, func(node Node) bool { return node.X > center.X })
	if len(filtered) != 1 || filtered[0] != center.Next(East) {
		t.Errorf("filtered RoadsFrom = %v", filtered)
	}
}

func TestPriorityNodesRoundaboutCycle(t *testing.T) {
	n, center := crossroads()
	west := center.Next(West)

	// Traveling East into the center, the North approach has right of way.
	got := n.PriorityNodes(west, center)
	want := []Node{center.Next(North)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PriorityNodes = %v, want %v", got, want)
	}
}

func TestPriorityNodesSkipsDestinationApproach(t *testing.T) {
	n, center := crossroads()
	west := center.Next(West)

	// A destination approach is parked traffic and holds no priority.
	n.dest[center.Next(North)] = true
	if got := n.PriorityNodes(west, center); got != nil {
		t.Errorf("PriorityNodes = %v, want nil for destination approach", got)
	}
}

func TestPriorityNodesFromDestinationYieldsToAll(t *testing.T) {
	n, center := crossroads()
	west := center.Next(West)
	n.dest[west] = true

	got := n.PriorityNodes(west, center)
	if len(got) != 3 {
		t.Fatalf("expected 3 priority approaches, got %v", got)
	}
	for _, p := range got {
		if p == west {
			t.Error("origin must not appear in its own priority set")
		}
	}
}

func TestPriorityNodesNoApproachRoad(t *testing.T) {
	n := newNetwork(3, 3)
	a := Node{5, 5}
	b := a.Next(East)
	n.addEdge(a, b, East)

	// The cycle candidate for eastbound travel is the North approach, which
	// has no road edge here.
	if got := n.PriorityNodes(a, b); got != nil {
		t.Errorf("PriorityNodes = %v, want nil without an approach road", got)
	}
}

func TestShortestPath(t *testing.T) {
	n := newNetwork(3, 3)
	// 4-node one-way loop.
	a := Node{0, 0}
	b := Node{1, 0}
	c := Node{1, 1}
	d := Node{0, 1}
	n.addEdge(a, b, East)
	n.addEdge(b, c, South)
	n.addEdge(c, d, West)
	n.addEdge(d, a, North)

	path, ok := n.ShortestPath(a, c)
	if !ok {
		t.Fatal("expected a path around the loop")
	}
	want := []Node{a, b, c}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("path = %v, want %v", path, want)
	}

	if _, ok := n.ShortestPath(a, Node{9, 9}); ok {
		t.Error("expected no path to a node outside the network")
	}
}

func TestPathToNearest(t *testing.T) {
	n := newNetwork(3, 3)
	a := Node{0, 0}
	b := Node{1, 0}
	c := Node{2, 0}
	n.addEdge(a, b, East)
	n.addEdge(b, c, East)

	path, ok := n.PathToNearest(a, []Node{c, b})
	if !ok {
		t.Fatal("expected a reachable target")
	}
	if path[len(path)-1] != b {
		t.Errorf("nearest target = %v, want %v", path[len(path)-1], b)
	}

	if _, ok := n.PathToNearest(a, nil); ok {
		t.Error("expected failure with no targets")
	}
}
