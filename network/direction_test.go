package network

import "testing"

func TestDeltaOppositeRoundtrip(t *testing.T) {
	for _, d := range Directions {
		dx, dy := d.Delta()
		ox, oy := d.Opposite().Delta()
		if dx+ox != 0 || dy+oy != 0 {
			t.Errorf("%s and %s deltas do not cancel", d, d.Opposite())
		}
	}
}

func TestNextAndDirectionTo(t *testing.T) {
	n := Node{5, 5}
	for _, d := range Directions {
		m := n.Next(d)
		got, ok := n.DirectionTo(m)
		if !ok || got != d {
			t.Errorf("DirectionTo(%v -> %v) = %v, %v; want %v", n, m, got, ok, d)
		}
	}
	if _, ok := n.DirectionTo(Node{8, 8}); ok {
		t.Error("DirectionTo should fail for non-neighbors")
	}
}

func TestNodeIDUnique(t *testing.T) {
	seen := make(map[int64]Node)
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			n := Node{x, y}
			if prev, dup := seen[n.ID()]; dup {
				t.Fatalf("ID collision between %v and %v", prev, n)
			}
			seen[n.ID()] = n
		}
	}
}

func TestSubSuper(t *testing.T) {
	macro := Node{3, 7}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			fine := macro.Sub(i, j)
			if fine.Super() != macro {
				t.Errorf("Sub(%d,%d).Super() = %v, want %v", i, j, fine.Super(), macro)
			}
		}
	}
}

func TestPriorityApproachCycle(t *testing.T) {
	// The roundabout cycle: W yields to S, S to E, E to N, N to W.
	cases := map[Direction]Direction{
		West:  South,
		South: East,
		East:  North,
		North: West,
	}
	for travel, want := range cases {
		if got := travel.priorityApproach(); got != want {
			t.Errorf("priorityApproach(%s) = %s, want %s", travel, got, want)
		}
	}
}

func TestHeading(t *testing.T) {
	want := map[Direction]int{North: 0, East: 90, South: 180, West: 270}
	for d, deg := range want {
		if d.Heading() != deg {
			t.Errorf("%s.Heading() = %d, want %d", d, d.Heading(), deg)
		}
	}
}
