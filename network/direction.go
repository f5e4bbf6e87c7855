// Package network builds and queries the lane-level road network the
// simulation runs on. A coarse macro-cell graph is grown first, then each
// macro-cell expands into a 4x4 block of one-way lanes, roundabouts and
// destination spurs.
package network

import "fmt"

// Direction is a compass direction on the grid. The y axis grows downward,
// so North decreases y.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists all four directions in a fixed order. Iterating this
// instead of a map keeps neighbor enumeration deterministic.
var Directions = [4]Direction{North, East, South, West}

// Delta returns the coordinate change of one step in this direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	default:
		return East
	}
}

// priorityApproach returns the direction, seen from the node being entered,
// of the approach that holds right of way over traffic arriving with travel
// direction d. This encodes the roundabout cycle: traffic heading West
// yields to the South approach, South to East, East to North, North to West.
func (d Direction) priorityApproach() Direction {
	switch d {
	case West:
		return South
	case South:
		return East
	case East:
		return North
	default: // North
		return West
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Heading returns the direction as degrees clockwise from North.
func (d Direction) Heading() int {
	switch d {
	case North:
		return 0
	case East:
		return 90
	case South:
		return 180
	default:
		return 270
	}
}

// Node is a fine-grid coordinate. It implements gonum's graph.Node so it can
// be stored directly in the underlying graphs.
type Node struct {
	X, Y int
}

// ID packs the coordinate into a single int64, satisfying graph.Node.
// Coordinates are non-negative, so the packing is collision-free.
func (n Node) ID() int64 {
	return int64(n.Y)<<32 | int64(uint32(n.X))
}

// Next returns the neighboring node in the given direction.
func (n Node) Next(d Direction) Node {
	dx, dy := d.Delta()
	return Node{n.X + dx, n.Y + dy}
}

// Sub returns fine subnode (i, j) of a macro-cell coordinate.
func (n Node) Sub(i, j int) Node {
	return Node{n.X*4 + i, n.Y*4 + j}
}

// Super returns the macro-cell a fine node belongs to.
func (n Node) Super() Node {
	return Node{n.X / 4, n.Y / 4}
}

// DirectionTo returns the direction from n to an adjacent node m.
// ok is false if m is not a direct grid neighbor of n.
func (n Node) DirectionTo(m Node) (Direction, bool) {
	for _, d := range Directions {
		if n.Next(d) == m {
			return d, true
		}
	}
	return North, false
}

func (n Node) String() string {
	return fmt.Sprintf("(%d,%d)", n.X, n.Y)
}
