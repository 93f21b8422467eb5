package sim

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/model"
)

// KPISet is the headline KPI block consumed by the dashboard layer.
type KPISet struct {
	TotalCost          float64 `json:"total_cost"`
	DemurrageCost      float64 `json:"demurrage_cost"`
	PortHandlingCost   float64 `json:"port_handling_cost"`
	RailTransportCost  float64 `json:"rail_transport_cost"`
	TotalDelivered     float64 `json:"total_cargo_delivered"`
	TotalDemand        float64 `json:"total_demand"`
	DemandFulfilledPct float64 `json:"demand_fulfillment_pct"`
	VesselsProcessed   float64 `json:"vessels_processed_pct"`
	AvgVesselWaitHours float64 `json:"avg_vessel_wait_hours"`
	AvgRakeUtilization float64 `json:"avg_rake_utilization"`
}

// computeKPIs derives the KPI block from the run's final state.
func (s *Simulator) computeKPIs() KPISet {
	k := KPISet{
		DemurrageCost:     s.components.Demurrage,
		PortHandlingCost:  s.components.PortHandling,
		RailTransportCost: s.components.RailTransport,
		TotalCost:         s.components.Total(),
	}

	k.TotalDemand = s.tables.TotalDailyDemand() * float64(s.cfg.HorizonDays)
	for _, plant := range s.plants {
		k.TotalDelivered += plant.totalReceived
	}
	if k.TotalDemand > 0 {
		k.DemandFulfilledPct = k.TotalDelivered / k.TotalDemand * 100
	}

	if len(s.vessels) > 0 {
		departed := 0
		for _, vs := range s.vessels {
			if vs.phase == VesselDeparted {
				departed++
			}
		}
		k.VesselsProcessed = float64(departed) / float64(len(s.vessels)) * 100
	}

	// Average wait over vessels that berthed later than planned.
	var waits []float64
	for _, vs := range s.vessels {
		if vs.berthStep < 0 {
			continue
		}
		if steps := vs.berthStep - vs.plannedStep; steps > 0 {
			waits = append(waits, float64(steps)*float64(s.cfg.StepHours))
		}
	}
	if len(waits) > 0 {
		k.AvgVesselWaitHours = stat.Mean(waits, nil)
	}

	if capacity := s.tables.TotalDailyRakes() * s.cfg.HorizonDays; capacity > 0 {
		k.AvgRakeUtilization = float64(s.rakeTrips) / float64(capacity)
	}
	return k
}

// EstimateKPIs derives headline KPIs directly from a plan, for callers that
// have not (yet) run a simulation. Deliveries are assumed complete and waits
// are taken from the schedule, so figures are optimistic relative to a
// simulated run.
func EstimateKPIs(tables *model.Tables, costs *cost.Model, sol model.Solution) KPISet {
	var k KPISet
	if len(sol.Assignments) == 0 {
		return k
	}

	b, err := costs.PlanCost(sol.Assignments, false)
	if err == nil {
		k.DemurrageCost = b.Demurrage
		k.PortHandlingCost = b.PortHandling
		k.RailTransportCost = b.RailTransport
		k.TotalCost = b.Total()
	}

	horizon := 1.0
	for _, a := range sol.Assignments {
		k.TotalDelivered += a.CargoMT
		if d := math.Ceil(a.BerthDay) + 1; d > horizon {
			horizon = d
		}
	}
	k.TotalDemand = tables.TotalDailyDemand() * horizon
	if k.TotalDemand > 0 {
		k.DemandFulfilledPct = k.TotalDelivered / k.TotalDemand * 100
	}

	seen := make(map[string]bool)
	for _, a := range sol.Assignments {
		seen[a.VesselID] = true
	}
	if n := len(tables.Vessels()); n > 0 {
		k.VesselsProcessed = float64(len(seen)) / float64(n) * 100
	}

	// Per-vessel wait from the earliest planned berth, counting only late
	// vessels.
	minBerth := make(map[string]float64)
	for _, a := range sol.Assignments {
		if cur, ok := minBerth[a.VesselID]; !ok || a.BerthDay < cur {
			minBerth[a.VesselID] = a.BerthDay
		}
	}
	var waits []float64
	for id, berth := range minBerth {
		v, err := tables.Vessel(id)
		if err != nil {
			continue
		}
		if w := berth - v.ETADay; w > 0 {
			waits = append(waits, w*24)
		}
	}
	if len(waits) > 0 {
		k.AvgVesselWaitHours = stat.Mean(waits, nil)
	}

	var rakesRequired int
	for _, a := range sol.Assignments {
		rakesRequired += a.RakesRequired
	}
	if capacity := float64(tables.TotalDailyRakes()) * horizon; capacity > 0 {
		k.AvgRakeUtilization = float64(rakesRequired) / capacity
	}
	return k
}
