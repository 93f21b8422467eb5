package model

import (
	"regexp"
	"strings"

	"gonum.org/v1/gonum/stat"
)

type railKey struct {
	port  string
	plant string
}

// Tables holds the validated, read-only lookup structures every pipeline
// stage reads from. It is built once per run and safe for concurrent reads.
type Tables struct {
	vessels map[string]Vessel
	ports   map[string]Port
	plants  map[string]Plant
	rail    map[railKey]RailLink

	vesselOrder []string
	portOrder   []string
	plantOrder  []string

	allowed      map[string][]string // vessel id -> allowed ports, primary first
	meanRailCost float64
}

var secondarySplit = regexp.MustCompile(`[|;,]+`)

// NewTables validates the input rows and builds the lookup structures.
// Duplicate ids and dangling references are DataErrors.
func NewTables(vessels []Vessel, ports []Port, plants []Plant, links []RailLink) (*Tables, error) {
	t := &Tables{
		vessels: make(map[string]Vessel, len(vessels)),
		ports:   make(map[string]Port, len(ports)),
		plants:  make(map[string]Plant, len(plants)),
		rail:    make(map[railKey]RailLink, len(links)),
		allowed: make(map[string][]string, len(vessels)),
	}

	for _, p := range ports {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.ports[p.ID]; dup {
			return nil, DataError{Entity: "port", ID: p.ID, Reason: "duplicate id"}
		}
		t.ports[p.ID] = p
		t.portOrder = append(t.portOrder, p.ID)
	}
	for _, pl := range plants {
		if err := pl.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.plants[pl.ID]; dup {
			return nil, DataError{Entity: "plant", ID: pl.ID, Reason: "duplicate id"}
		}
		t.plants[pl.ID] = pl
		t.plantOrder = append(t.plantOrder, pl.ID)
	}

	var costs []float64
	for _, l := range links {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if _, ok := t.ports[l.PortID]; !ok {
			return nil, DataError{Entity: "rail_link", ID: l.PortID, Reason: "references unknown port"}
		}
		if _, ok := t.plants[l.PlantID]; !ok {
			return nil, DataError{Entity: "rail_link", ID: l.PlantID, Reason: "references unknown plant"}
		}
		t.rail[railKey{l.PortID, l.PlantID}] = l
		costs = append(costs, l.CostPerMT)
	}
	if len(costs) > 0 {
		t.meanRailCost = stat.Mean(costs, nil)
	}

	for _, v := range vessels {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.vessels[v.ID]; dup {
			return nil, DataError{Entity: "vessel", ID: v.ID, Reason: "duplicate id"}
		}
		if _, ok := t.ports[v.PortID]; !ok {
			return nil, DataError{Entity: "vessel", ID: v.ID, Reason: "references unknown port " + v.PortID}
		}
		t.vessels[v.ID] = v
		t.vesselOrder = append(t.vesselOrder, v.ID)
		t.allowed[v.ID] = t.parseAllowedPorts(v)
	}

	return t, nil
}

// parseAllowedPorts builds the ordered allowed-port set for a vessel: the
// primary port first, then any known secondary ports from the delimited list.
func (t *Tables) parseAllowedPorts(v Vessel) []string {
	allowed := []string{v.PortID}
	if v.SecondaryPorts == "" {
		return allowed
	}
	for _, tok := range secondarySplit.Split(v.SecondaryPorts, -1) {
		id := strings.ToUpper(strings.TrimSpace(tok))
		if id == "" || id == v.PortID {
			continue
		}
		if _, ok := t.ports[id]; !ok {
			continue
		}
		dup := false
		for _, a := range allowed {
			if a == id {
				dup = true
				break
			}
		}
		if !dup {
			allowed = append(allowed, id)
		}
	}
	return allowed
}

// Vessel returns the vessel with the given id.
func (t *Tables) Vessel(id string) (Vessel, error) {
	v, ok := t.vessels[id]
	if !ok {
		return Vessel{}, LookupError{Entity: "vessel", ID: id}
	}
	return v, nil
}

// Port returns the port with the given id.
func (t *Tables) Port(id string) (Port, error) {
	p, ok := t.ports[id]
	if !ok {
		return Port{}, LookupError{Entity: "port", ID: id}
	}
	return p, nil
}

// Plant returns the plant with the given id.
func (t *Tables) Plant(id string) (Plant, error) {
	p, ok := t.plants[id]
	if !ok {
		return Plant{}, LookupError{Entity: "plant", ID: id}
	}
	return p, nil
}

// RailLink returns the link for the (port, plant) pair, if present.
func (t *Tables) RailLink(portID, plantID string) (RailLink, bool) {
	l, ok := t.rail[railKey{portID, plantID}]
	return l, ok
}

// MeanRailCost is the dataset-wide mean cost per MT across all rail links,
// used as the fallback rate for missing pairs.
func (t *Tables) MeanRailCost() float64 { return t.meanRailCost }

// Vessels returns all vessels in input order.
func (t *Tables) Vessels() []Vessel {
	out := make([]Vessel, 0, len(t.vesselOrder))
	for _, id := range t.vesselOrder {
		out = append(out, t.vessels[id])
	}
	return out
}

// Ports returns all ports in input order.
func (t *Tables) Ports() []Port {
	out := make([]Port, 0, len(t.portOrder))
	for _, id := range t.portOrder {
		out = append(out, t.ports[id])
	}
	return out
}

// Plants returns all plants in input order.
func (t *Tables) Plants() []Plant {
	out := make([]Plant, 0, len(t.plantOrder))
	for _, id := range t.plantOrder {
		out = append(out, t.plants[id])
	}
	return out
}

// RailLinks returns all rail links, ordered by port then plant input order.
func (t *Tables) RailLinks() []RailLink {
	out := make([]RailLink, 0, len(t.rail))
	for _, portID := range t.portOrder {
		for _, plantID := range t.plantOrder {
			if l, ok := t.rail[railKey{portID, plantID}]; ok {
				out = append(out, l)
			}
		}
	}
	return out
}

// AllowedPorts returns the vessel's allowed discharge ports, primary first.
// The returned slice must not be mutated.
func (t *Tables) AllowedPorts(vesselID string) []string {
	return t.allowed[vesselID]
}

// PrimaryPort returns the vessel's designated discharge port.
func (t *Tables) PrimaryPort(vesselID string) string {
	if v, ok := t.vessels[vesselID]; ok {
		return v.PortID
	}
	return ""
}

// CompatiblePlants returns the plants whose quality requirement matches the
// given cargo grade, in input order.
func (t *Tables) CompatiblePlants(grade string) []Plant {
	var out []Plant
	for _, id := range t.plantOrder {
		if t.plants[id].Quality == grade {
			out = append(out, t.plants[id])
		}
	}
	return out
}

// TotalDailyDemand sums daily demand across all plants.
func (t *Tables) TotalDailyDemand() float64 {
	var sum float64
	for _, p := range t.plants {
		sum += p.DailyDemandMT
	}
	return sum
}

// TotalDailyRakes sums the per-day rake availability across all ports.
func (t *Tables) TotalDailyRakes() int {
	var sum int
	for _, p := range t.ports {
		sum += p.RakesPerDay
	}
	return sum
}
