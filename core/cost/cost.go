// Package cost implements the cost model shared by the exact solver, the
// heuristic refiner and the simulator. All functions are pure reads over the
// domain tables.
package cost

import (
	"fmt"

	"github.com/steelroute/rakeflow/core/model"
)

// MissingRailCostPolicy names the fallback used when a (port, plant) pair has
// no rail link in the tables.
type MissingRailCostPolicy string

const (
	// DatasetMean falls back to the mean cost_per_mt across all links.
	DatasetMean MissingRailCostPolicy = "dataset_mean"
	// FixedDefault falls back to DefaultRailCostPerMT.
	FixedDefault MissingRailCostPolicy = "fixed_default"
)

// DefaultRailCostPerMT is the fixed fallback rate for FixedDefault.
const DefaultRailCostPerMT = 100.0

// Config carries the tunable cost constants.
type Config struct {
	RakeCapacityMT         float64               `json:"rake_capacity_mt" yaml:"rake_capacity_mt"`
	SecondaryPenaltyPerMT  float64               `json:"secondary_port_penalty_per_mt" yaml:"secondary_port_penalty_per_mt"`
	MissingRailCost        MissingRailCostPolicy `json:"missing_rail_cost_policy" yaml:"missing_rail_cost_policy"`
	CurrencyConversionRate float64               `json:"currency_conversion_rate" yaml:"currency_conversion_rate"`
}

// SetDefaults applies the standard constants.
func (c *Config) SetDefaults() {
	if c.RakeCapacityMT == 0 {
		c.RakeCapacityMT = 5000
	}
	if c.SecondaryPenaltyPerMT == 0 {
		c.SecondaryPenaltyPerMT = 50
	}
	if c.MissingRailCost == "" {
		c.MissingRailCost = DatasetMean
	}
	if c.CurrencyConversionRate == 0 {
		c.CurrencyConversionRate = 1
	}
}

// Validate checks the configured constants.
func (c Config) Validate() error {
	if c.RakeCapacityMT <= 0 {
		return fmt.Errorf("rake_capacity_mt must be positive")
	}
	if c.MissingRailCost != DatasetMean && c.MissingRailCost != FixedDefault {
		return fmt.Errorf("unknown missing rail cost policy %q", c.MissingRailCost)
	}
	return nil
}

// Model evaluates logistics costs against one set of domain tables.
type Model struct {
	tables *model.Tables
	cfg    Config
}

// NewModel builds a cost model over the given tables.
func NewModel(tables *model.Tables, cfg Config) *Model {
	cfg.SetDefaults()
	return &Model{tables: tables, cfg: cfg}
}

// RakeCapacityMT is the per-trip rake capacity in MT.
func (m *Model) RakeCapacityMT() float64 { return m.cfg.RakeCapacityMT }

// PortHandling returns cargo_mt * handling_cost_per_mt for the port.
func (m *Model) PortHandling(cargoMT float64, portID string) (float64, error) {
	p, err := m.tables.Port(portID)
	if err != nil {
		return 0, err
	}
	return cargoMT * p.HandlingCostPerMT, nil
}

// RailRate returns the cost per MT for the (port, plant) pair, applying the
// configured fallback policy when the pair has no link. Unknown port or plant
// ids are LookupErrors; only the missing pair is a policy decision.
func (m *Model) RailRate(portID, plantID string) (float64, error) {
	if _, err := m.tables.Port(portID); err != nil {
		return 0, err
	}
	if _, err := m.tables.Plant(plantID); err != nil {
		return 0, err
	}
	if link, ok := m.tables.RailLink(portID, plantID); ok {
		return link.CostPerMT, nil
	}
	switch m.cfg.MissingRailCost {
	case FixedDefault:
		return DefaultRailCostPerMT, nil
	default:
		return m.tables.MeanRailCost(), nil
	}
}

// Rail returns cargo_mt * rail rate for the pair.
func (m *Model) Rail(cargoMT float64, portID, plantID string) (float64, error) {
	rate, err := m.RailRate(portID, plantID)
	if err != nil {
		return 0, err
	}
	return cargoMT * rate, nil
}

// Demurrage returns the delay penalty for berthing after the planned day.
// Early berthing accrues nothing.
func (m *Model) Demurrage(v model.Vessel, actualBerthDay, plannedBerthDay float64) float64 {
	delay := actualBerthDay - plannedBerthDay
	if delay <= 0 {
		return 0
	}
	return delay * v.DemurrageRate
}

// SecondaryPenalty prices discharging at a non-primary allowed port.
func (m *Model) SecondaryPenalty(cargoMT float64, isSecondary bool) float64 {
	if !isSecondary {
		return 0
	}
	return cargoMT * m.cfg.SecondaryPenaltyPerMT
}

// Breakdown itemizes plan cost by component.
type Breakdown struct {
	PortHandling     float64
	RailTransport    float64
	Demurrage        float64
	SecondaryPenalty float64
}

// Total sums the components.
func (b Breakdown) Total() float64 {
	return b.PortHandling + b.RailTransport + b.Demurrage + b.SecondaryPenalty
}

// AssignmentCost evaluates one assignment. The secondary-port penalty is a
// heuristic-stage policy; the exact stage passes applySecondary=false because
// its formulation never routes through non-designated ports.
func (m *Model) AssignmentCost(a model.Assignment, applySecondary bool) (Breakdown, error) {
	var b Breakdown
	v, err := m.tables.Vessel(a.VesselID)
	if err != nil {
		return b, err
	}
	if a.CargoMT <= 0 {
		return b, model.DataError{Entity: "assignment", ID: a.VesselID, Reason: "cargo_mt must be positive"}
	}
	handling, err := m.PortHandling(a.CargoMT, a.PortID)
	if err != nil {
		return b, err
	}
	rail, err := m.Rail(a.CargoMT, a.PortID, a.PlantID)
	if err != nil {
		return b, err
	}
	b.PortHandling = handling
	b.RailTransport = rail
	b.Demurrage = m.Demurrage(v, a.BerthDay, a.PlannedDay)
	if applySecondary {
		b.SecondaryPenalty = m.SecondaryPenalty(a.CargoMT, a.PortID != v.PortID)
	}
	return b, nil
}

// PlanCost sums assignment costs across a plan.
func (m *Model) PlanCost(assignments []model.Assignment, applySecondary bool) (Breakdown, error) {
	var total Breakdown
	for _, a := range assignments {
		b, err := m.AssignmentCost(a, applySecondary)
		if err != nil {
			return Breakdown{}, err
		}
		total.PortHandling += b.PortHandling
		total.RailTransport += b.RailTransport
		total.Demurrage += b.Demurrage
		total.SecondaryPenalty += b.SecondaryPenalty
	}
	return total, nil
}

// TransitDays returns the rail transit time for the pair, defaulting to two
// days when the link is absent.
func (m *Model) TransitDays(portID, plantID string) int {
	if link, ok := m.tables.RailLink(portID, plantID); ok && link.TransitDays > 0 {
		return link.TransitDays
	}
	return 2
}

// NormalizeFreight converts a freight rate into the reporting currency.
func (m *Model) NormalizeFreight(rate float64) float64 {
	return rate * m.cfg.CurrencyConversionRate
}

// RakesFor is a convenience wrapper over model.RakesFor using the configured
// trip capacity.
func (m *Model) RakesFor(cargoMT float64) int {
	return model.RakesFor(cargoMT, m.cfg.RakeCapacityMT)
}
