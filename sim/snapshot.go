package sim

// Snapshot is an immutable copy of the observable world state at one step.
// Telemetry collection, the state server and the viewer all consume
// snapshots instead of reaching into live ECS storage.
type Snapshot struct {
	Step       int   `json:"step"`
	Seed       int64 `json:"seed"`
	FineWidth  int   `json:"fine_width"`
	FineHeight int   `json:"fine_height"`

	Nodes    []NodeView    `json:"nodes"`
	Edges    []EdgeView    `json:"edges"`
	Vehicles []VehicleView `json:"vehicles"`
	Cargos   []CargoView   `json:"cargos"`
}

// NodeView describes one road node.
type NodeView struct {
	X           int  `json:"x"`
	Y           int  `json:"y"`
	Destination bool `json:"destination,omitempty"`
	Charging    bool `json:"charging,omitempty"`
}

// EdgeView describes one directed road edge.
type EdgeView struct {
	FromX int `json:"from_x"`
	FromY int `json:"from_y"`
	ToX   int `json:"to_x"`
	ToY   int `json:"to_y"`
}

// VehicleView describes one vehicle's observable state.
type VehicleView struct {
	ID       uint32 `json:"id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Heading  string `json:"heading"`
	Energy   int    `json:"energy"`
	Capacity int    `json:"capacity"`
	Cargos   int    `json:"cargos"`
}

// CargoView describes one cargo's observable state.
type CargoView struct {
	ID      uint32 `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Weight  int    `json:"weight"`
	DestX   int    `json:"dest_x"`
	DestY   int    `json:"dest_y"`
	Carried bool   `json:"carried"`
}

// Snapshot captures the current world state.
func (w *World) Snapshot() *Snapshot {
	snap := &Snapshot{
		Step:       w.step,
		Seed:       w.seed,
		FineWidth:  w.net.FineWidth(),
		FineHeight: w.net.FineHeight(),
	}

	for _, n := range w.net.Nodes(nil) {
		snap.Nodes = append(snap.Nodes, NodeView{
			X:           n.X,
			Y:           n.Y,
			Destination: w.net.IsDestination(n),
			Charging:    w.net.IsChargingPoint(n),
		})
	}
	for _, e := range w.net.Edges() {
		snap.Edges = append(snap.Edges, EdgeView{
			FromX: e.From.X, FromY: e.From.Y,
			ToX: e.To.X, ToY: e.To.Y,
		})
	}
	for _, v := range w.vehicles {
		pos := w.Position(v)
		snap.Vehicles = append(snap.Vehicles, VehicleView{
			ID:       uint32(v.ID()),
			X:        pos.X,
			Y:        pos.Y,
			Heading:  w.motionMap.Get(v).Heading.String(),
			Energy:   w.batteryMap.Get(v).Level,
			Capacity: w.holdMap.Get(v).Capacity,
			Cargos:   len(w.holdMap.Get(v).Cargo),
		})
	}
	for _, c := range w.cargos {
		pos := w.Position(c)
		ship := w.shipMap.Get(c)
		snap.Cargos = append(snap.Cargos, CargoView{
			ID:      uint32(c.ID()),
			X:       pos.X,
			Y:       pos.Y,
			Weight:  ship.Weight,
			DestX:   ship.Destination.X,
			DestY:   ship.Destination.Y,
			Carried: ship.Carried,
		})
	}
	return snap
}
