package model

import "fmt"

// Vessel represents an incoming cargo vessel awaiting discharge.
type Vessel struct {
	ID             string
	CargoMT        float64 // total cargo on board in metric tonnes
	ETADay         float64 // estimated arrival day, 0-based
	PortID         string  // primary discharge port
	SecondaryPorts string  // optional delimiter-joined alternate port ids
	DemurrageRate  float64 // currency per day of delay beyond the planned berth
	CargoGrade     string
	FreightPerMT   float64
}

// Validate checks that the vessel row is structurally sound.
func (v Vessel) Validate() error {
	if v.ID == "" {
		return DataError{Entity: "vessel", Reason: "missing id"}
	}
	if v.CargoMT <= 0 {
		return DataError{Entity: "vessel", ID: v.ID, Reason: "cargo_mt must be positive"}
	}
	if v.ETADay < 0 {
		return DataError{Entity: "vessel", ID: v.ID, Reason: "eta_day must be non-negative"}
	}
	if v.PortID == "" {
		return DataError{Entity: "vessel", ID: v.ID, Reason: "missing primary port"}
	}
	return nil
}

// Port represents a discharge port. Only static attributes live here; queue
// and budget state is owned by the simulator.
type Port struct {
	ID                string
	HandlingCostPerMT float64
	StorageCostPerMT  float64 // per MT per day beyond the free window
	FreeStorageDays   int
	DailyCapacityMT   float64 // discharge throughput ceiling per day
	RakesPerDay       int     // rakes that can depart this port per day
}

// Validate checks the port row.
func (p Port) Validate() error {
	if p.ID == "" {
		return DataError{Entity: "port", Reason: "missing id"}
	}
	if p.DailyCapacityMT < 0 {
		return DataError{Entity: "port", ID: p.ID, Reason: "daily_capacity_mt must not be negative"}
	}
	if p.RakesPerDay < 0 {
		return DataError{Entity: "port", ID: p.ID, Reason: "rakes_available_per_day must not be negative"}
	}
	return nil
}

// Plant is an onward consumer of discharged cargo.
type Plant struct {
	ID             string
	DailyDemandMT  float64
	Quality        string // cargo grade the plant accepts
	SafetyStockDay int
}

// Validate checks the plant row.
func (p Plant) Validate() error {
	if p.ID == "" {
		return DataError{Entity: "plant", Reason: "missing id"}
	}
	if p.DailyDemandMT <= 0 {
		return DataError{Entity: "plant", ID: p.ID, Reason: "daily_demand_mt must be positive"}
	}
	return nil
}

// RailLink describes the rail connection from a port to a plant.
type RailLink struct {
	PortID      string
	PlantID     string
	CostPerMT   float64
	DistanceKM  float64
	TransitDays int
}

// Validate checks the rail link row.
func (l RailLink) Validate() error {
	if l.PortID == "" || l.PlantID == "" {
		return DataError{Entity: "rail_link", Reason: "missing port or plant id"}
	}
	if l.CostPerMT < 0 {
		return DataError{Entity: "rail_link", ID: fmt.Sprintf("%s->%s", l.PortID, l.PlantID), Reason: "cost_per_mt must not be negative"}
	}
	return nil
}
