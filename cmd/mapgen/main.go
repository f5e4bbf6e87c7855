// Command mapgen generates a road network from a configuration and dumps it
// as ASCII, for eyeballing generator output without starting the simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/pthm-cable/gridhaul/config"
	"github.com/pthm-cable/gridhaul/network"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed override (0 = use config)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	s := cfg.Sim.Seed
	if *seed != 0 {
		s = *seed
	}
	if s == -1 {
		s = time.Now().UnixNano()
	}

	net, err := network.Generate(network.GenConfig{
		Width:              cfg.Grid.Width,
		Height:             cfg.Grid.Height,
		RoadDensity:        cfg.Grid.RoadDensity,
		DestinationDensity: cfg.Grid.DestinationDensity,
		ChargingDensity:    cfg.Grid.ChargingDensity,
	}, rand.New(rand.NewSource(s)))
	if err != nil {
		slog.Error("generation failed", "error", err, "seed", s)
		os.Exit(1)
	}

	fmt.Println(render(net))
	fmt.Printf("seed %d: %d nodes, %d edges, %d destinations, %d charging points\n",
		s,
		len(net.Nodes(nil)),
		len(net.Edges()),
		len(net.DestinationNodes(nil)),
		len(net.ChargingPoints()),
	)
}

// render draws the fine grid: lane nodes as their outgoing direction (or '+'
// at junctions), destinations as 'D', charging points as 'C'.
func render(net *network.Network) string {
	var b strings.Builder
	for y := 0; y < net.FineHeight(); y++ {
		for x := 0; x < net.FineWidth(); x++ {
			b.WriteByte(glyph(net, network.Node{X: x, Y: y}))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func glyph(net *network.Network, n network.Node) byte {
	switch {
	case net.IsChargingPoint(n):
		return 'C'
	case net.IsDestination(n):
		return 'D'
	case !net.Contains(n):
		return ' '
	}
	out := net.RoadsFrom(n, nil)
	if len(out) != 1 {
		return '+'
	}
	d, ok := net.EdgeDirection(n, out[0])
	if !ok {
		return '+'
	}
	switch d {
	case network.North:
		return '^'
	case network.East:
		return '>'
	case network.South:
		return 'v'
	default:
		return '<'
	}
}
