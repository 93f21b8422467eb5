// Package sim replays a candidate dispatch plan against finite, time-varying
// port, rake and inventory resources to produce validated operational KPIs.
// The simulation is fixed-step and strictly single-threaded: the sub-step
// order (arrivals, discharge/berthing, rake loading, rake movement) is part
// of the correctness contract.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/logger"
	"github.com/steelroute/rakeflow/core/model"
)

// Config holds the simulation parameters.
type Config struct {
	StepHours   int `json:"step_hours" yaml:"step_hours"`
	HorizonDays int `json:"horizon_days" yaml:"horizon_days"`
}

// SetDefaults applies the standard step and horizon.
func (c *Config) SetDefaults() {
	if c.StepHours == 0 {
		c.StepHours = 6
	}
	if c.HorizonDays == 0 {
		c.HorizonDays = 30
	}
}

// Validate checks the simulation parameters.
func (c Config) Validate() error {
	if c.StepHours < 1 || c.StepHours > 24 {
		return fmt.Errorf("step_hours must be in [1,24]")
	}
	if 24%c.StepHours != 0 {
		return fmt.Errorf("step_hours must divide 24")
	}
	if c.HorizonDays < 1 {
		return fmt.Errorf("horizon_days must be at least 1")
	}
	return nil
}

// CostComponents is the simulated cost breakdown.
type CostComponents struct {
	Demurrage     float64 `json:"demurrage"`
	PortHandling  float64 `json:"port_handling"`
	RailTransport float64 `json:"rail_transport"`
}

// Total sums the components.
func (c CostComponents) Total() float64 {
	return c.Demurrage + c.PortHandling + c.RailTransport
}

// Result is the outcome of one simulation run.
type Result struct {
	KPIs        KPISet          `json:"kpis"`
	Costs       CostComponents  `json:"cost_components"`
	Vessels     []VesselOutcome `json:"vessels"`
	Ports       []PortOutcome   `json:"ports"`
	Plants      []PlantOutcome  `json:"plants"`
	Events      []Event         `json:"events"`
	HorizonDays int             `json:"horizon_days"`
	StepHours   int             `json:"step_hours"`
	Elapsed     time.Duration   `json:"-"`
}

// Simulator replays plans against one table set. A Simulator is single-use
// state-wise: Run resets all mutable state, so sequential reuse is fine, but
// one Simulator must not be shared across concurrent runs.
type Simulator struct {
	tables *model.Tables
	costs  *cost.Model
	cfg    Config
	log    logger.Logger

	stepsPerDay int
	vessels     []*vesselState
	vesselByID  map[string]*vesselState
	ports       []*portState
	portByID    map[string]*portState
	plants      []*plantState
	plantByID   map[string]*plantState
	rakes       []*rakeState
	components  CostComponents
	events      []Event
	rakeTrips   int
}

// New creates a simulator over the given tables.
func New(tables *model.Tables, costs *cost.Model, cfg Config, log logger.Logger) *Simulator {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	return &Simulator{tables: tables, costs: costs, cfg: cfg, log: log}
}

// Run replays the assignments over the configured horizon. Assignments with
// non-positive cargo or unknown references are rejected up front with a
// DataError; starvation and stalls during the run are never errors, they
// surface as KPI shortfalls.
func (s *Simulator) Run(assignments []model.Assignment) (Result, error) {
	start := time.Now()
	if err := s.initialize(assignments); err != nil {
		return Result{}, err
	}

	totalSteps := s.cfg.HorizonDays * s.stepsPerDay
	for step := 0; step < totalSteps; step++ {
		s.admitArrivals(step)
		s.processBerths(step)
		s.loadRakes(step)
		s.advanceRakes(step)
		if (step+1)%s.stepsPerDay == 0 {
			s.rollDay(step)
		}
	}

	res := s.collect()
	res.Elapsed = time.Since(start)
	s.log.Infof("simulation finished: %d days, total cost %.2f", s.cfg.HorizonDays, res.Costs.Total())
	return res, nil
}

func (s *Simulator) initialize(assignments []model.Assignment) error {
	s.stepsPerDay = 24 / s.cfg.StepHours
	s.components = CostComponents{}
	s.events = nil
	s.rakeTrips = 0

	s.vessels = nil
	s.vesselByID = make(map[string]*vesselState)
	for _, v := range s.tables.Vessels() {
		vs := &vesselState{
			id:             v.ID,
			phase:          VesselEnRoute,
			portID:         v.PortID,
			grade:          v.CargoGrade,
			etaStep:        s.dayToStep(v.ETADay),
			arrivalStep:    s.dayToStep(v.ETADay),
			scheduledStep:  -1,
			plannedStep:    s.dayToStep(v.ETADay),
			berthStep:      -1,
			departStep:     -1,
			cargoRemaining: v.CargoMT,
			initialCargo:   v.CargoMT,
		}
		s.vessels = append(s.vessels, vs)
		s.vesselByID[v.ID] = vs
	}

	s.ports = nil
	s.portByID = make(map[string]*portState)
	for _, p := range s.tables.Ports() {
		ps := &portState{
			id:             p.ID,
			capacityLeftMT: p.DailyCapacityMT,
			rakesLeft:      p.RakesPerDay,
		}
		s.ports = append(s.ports, ps)
		s.portByID[p.ID] = ps
	}

	s.plants = nil
	s.plantByID = make(map[string]*plantState)
	for _, pl := range s.tables.Plants() {
		ps := &plantState{
			id:              pl.ID,
			demandRemaining: pl.DailyDemandMT * float64(s.cfg.HorizonDays),
		}
		s.plants = append(s.plants, ps)
		s.plantByID[pl.ID] = ps
	}

	for _, a := range assignments {
		if a.CargoMT <= 0 {
			return model.DataError{Entity: "assignment", ID: a.VesselID, Reason: "cargo_mt must be positive"}
		}
		vs, ok := s.vesselByID[a.VesselID]
		if !ok {
			return model.LookupError{Entity: "vessel", ID: a.VesselID}
		}
		if _, ok := s.portByID[a.PortID]; !ok {
			return model.LookupError{Entity: "port", ID: a.PortID}
		}
		if _, ok := s.plantByID[a.PlantID]; !ok {
			return model.LookupError{Entity: "plant", ID: a.PlantID}
		}

		rate, err := s.costs.RailRate(a.PortID, a.PlantID)
		if err != nil {
			return err
		}
		as := &assignmentState{
			vesselID:      a.VesselID,
			portID:        a.PortID,
			plantID:       a.PlantID,
			grade:         vs.grade,
			totalCargo:    a.CargoMT,
			remaining:     a.CargoMT,
			railRatePerMT: rate,
			transitSteps:  s.costs.TransitDays(a.PortID, a.PlantID) * s.stepsPerDay,
		}
		vs.assignments = append(vs.assignments, as)

		// The plan may route a vessel to an allowed alternate port; the
		// vessel sails where its assignments send it.
		vs.portID = a.PortID

		if lag := s.dayToStep(a.PlannedDay + a.PredictedLag); vs.arrivalStep < lag {
			vs.arrivalStep = lag
		}
		sched := s.dayToStep(a.ScheduledDay)
		if vs.scheduledStep < 0 || sched < vs.scheduledStep {
			vs.scheduledStep = sched
		}
		planned := s.dayToStep(a.PlannedDay)
		if planned < vs.plannedStep {
			vs.plannedStep = planned
		}
	}
	for _, vs := range s.vessels {
		if vs.scheduledStep < 0 {
			vs.scheduledStep = vs.etaStep
		}
	}

	// Two rakes per daily slot covers trips that span day boundaries.
	s.rakes = nil
	for _, p := range s.tables.Ports() {
		for i := 0; i < p.RakesPerDay*2; i++ {
			s.rakes = append(s.rakes, &rakeState{
				id:       fmt.Sprintf("RAKE_%s_%02d", p.ID, i),
				homePort: p.ID,
				location: p.ID,
				phase:    RakeAvailable,
			})
		}
	}
	return nil
}

func (s *Simulator) dayToStep(day float64) int {
	return int(day * 24 / float64(s.cfg.StepHours))
}

// admitArrivals moves vessels whose arrival time has come into their port's
// FIFO queue.
func (s *Simulator) admitArrivals(step int) {
	for _, vs := range s.vessels {
		if vs.phase == VesselEnRoute && vs.arrivalStep <= step {
			vs.phase = VesselWaiting
			port := s.portByID[vs.portID]
			port.queue = append(port.queue, vs.id)
			s.record(Event{Step: step, Type: "vessel_arrival", VesselID: vs.id, PortID: vs.portID})
		}
	}
}

// processBerths discharges from the currently berthed vessel into port
// inventory, departs emptied vessels, and berths the next queued vessel
// whose scheduled time has arrived, accruing demurrage at that moment.
func (s *Simulator) processBerths(step int) {
	for _, port := range s.ports {
		if port.currentVessel != "" {
			vs := s.vesselByID[port.currentVessel]
			s.discharge(vs, port, step)
			if vs.cargoRemaining <= 1e-9 {
				vs.phase = VesselDeparted
				vs.departStep = step
				port.currentVessel = ""
				s.record(Event{Step: step, Type: "vessel_departure", VesselID: vs.id, PortID: port.id, CargoMT: vs.handledCargo})
			}
		}

		if port.currentVessel == "" && len(port.queue) > 0 {
			next := s.vesselByID[port.queue[0]]
			if step < next.scheduledStep {
				continue // not its time yet, stays first in queue
			}
			port.queue = port.queue[1:]
			port.currentVessel = next.id
			next.phase = VesselBerthed
			next.berthStep = step

			delaySteps := step - next.plannedStep
			if delaySteps > 0 {
				days := float64(delaySteps) * float64(s.cfg.StepHours) / 24.0
				v, err := s.tables.Vessel(next.id)
				if err == nil {
					next.demurrageCost = days * v.DemurrageRate
					s.components.Demurrage += next.demurrageCost
				}
			}
			s.record(Event{Step: step, Type: "vessel_berth", VesselID: next.id, PortID: port.id})

			// The berth was free this step; the newly berthed vessel starts
			// discharging immediately.
			s.discharge(next, port, step)
			if next.cargoRemaining <= 1e-9 {
				next.phase = VesselDeparted
				next.departStep = step
				port.currentVessel = ""
				s.record(Event{Step: step, Type: "vessel_departure", VesselID: next.id, PortID: port.id, CargoMT: next.handledCargo})
			}
		}
	}
}

// discharge moves cargo from the vessel into port inventory, bounded by the
// per-step share of daily throughput and the remaining daily budget, and
// accrues handling cost on the discharged volume.
func (s *Simulator) discharge(vs *vesselState, port *portState, step int) {
	if vs.cargoRemaining <= 0 || port.capacityLeftMT <= 0 {
		return
	}
	p, err := s.tables.Port(port.id)
	if err != nil {
		return
	}
	stepShare := p.DailyCapacityMT / float64(s.stepsPerDay)
	amount := math.Min(vs.cargoRemaining, math.Min(stepShare, port.capacityLeftMT))
	if amount <= 0 {
		return
	}

	vs.cargoRemaining -= amount
	vs.handledCargo += amount
	port.capacityLeftMT -= amount
	port.totalHandledMT += amount
	port.inventory = append(port.inventory, inventoryBatch{vesselID: vs.id, grade: vs.grade, remainingMT: amount})

	handling, err := s.costs.PortHandling(amount, port.id)
	if err == nil {
		s.components.PortHandling += handling
	}
	s.record(Event{Step: step, Type: "cargo_discharge", VesselID: vs.id, PortID: port.id, CargoMT: amount})
}

// loadRakes walks unfulfilled assignments of berthed or departed vessels and
// dispatches available rakes against matching-grade port inventory, within
// the port's remaining daily rake budget.
func (s *Simulator) loadRakes(step int) {
	for _, vs := range s.vessels {
		if vs.phase != VesselBerthed && vs.phase != VesselDeparted {
			continue
		}
		for _, as := range vs.assignments {
			if as.remaining <= 0 {
				continue
			}
			s.dispatchRakes(as, step)
		}
	}
}

// dispatchRakes sends as many rakes as budget and inventory allow for one
// assignment. A missing-grade inventory or exhausted budget simply stalls
// the attempt; the rake stays Available.
func (s *Simulator) dispatchRakes(as *assignmentState, step int) {
	port := s.portByID[as.portID]
	rakeCap := s.costs.RakeCapacityMT()

	for _, rake := range s.rakes {
		if as.remaining <= 0 || port.rakesLeft <= 0 {
			return
		}
		if rake.phase != RakeAvailable || rake.location != as.portID {
			continue
		}
		want := math.Min(rakeCap, math.Min(as.remaining, port.inventoryOf(as.grade)))
		if want <= 0 {
			return
		}
		loaded := port.consumeInventory(as.grade, want)
		if loaded <= 0 {
			return
		}

		rake.phase = RakeInTransit
		rake.cargoMT = loaded
		rake.grade = as.grade
		rake.destPlant = as.plantID
		rake.assignment = as
		rake.arrivalStep = step + 1 + as.transitSteps
		port.rakesLeft--
		as.remaining -= loaded

		s.components.RailTransport += loaded * as.railRatePerMT
		s.record(Event{Step: step, Type: "rake_dispatch", RakeID: rake.id, VesselID: as.vesselID, PortID: as.portID, PlantID: as.plantID, CargoMT: loaded})
	}
}

// unloadSteps is the turnaround spent at the plant before the rake heads home.
const unloadSteps = 2

// advanceRakes moves in-transit rakes, unloads arrivals into plant demand,
// and returns finished rakes to their home port.
func (s *Simulator) advanceRakes(step int) {
	for _, rake := range s.rakes {
		switch rake.phase {
		case RakeInTransit:
			if step >= rake.arrivalStep {
				rake.phase = RakeUnloading
				rake.location = rake.destPlant
				rake.arrivalStep = step + unloadSteps
			}
		case RakeUnloading:
			if step >= rake.arrivalStep {
				plant := s.plantByID[rake.destPlant]
				plant.totalReceived += rake.cargoMT
				plant.dailyReceived += rake.cargoMT
				plant.demandRemaining = math.Max(0, plant.demandRemaining-rake.cargoMT)
				plant.deliveries++
				s.rakeTrips++
				s.record(Event{Step: step, Type: "cargo_delivery", RakeID: rake.id, PlantID: rake.destPlant, CargoMT: rake.cargoMT})

				rake.phase = RakeAvailable
				rake.location = rake.homePort
				rake.cargoMT = 0
				rake.grade = ""
				rake.destPlant = ""
				rake.assignment = nil
				rake.arrivalStep = 0
			}
		}
	}
}

// rollDay resets daily port budgets and plant counters and ages inventory.
func (s *Simulator) rollDay(step int) {
	day := (step + 1) / s.stepsPerDay
	var waiting int
	var delivered float64
	for _, port := range s.ports {
		p, err := s.tables.Port(port.id)
		if err != nil {
			continue
		}
		port.capacityLeftMT = p.DailyCapacityMT
		port.rakesLeft = p.RakesPerDay
		for i := range port.inventory {
			port.inventory[i].ageDays++
		}
		waiting += len(port.queue)
	}
	for _, plant := range s.plants {
		delivered += plant.totalReceived
		plant.dailyReceived = 0
	}
	s.record(Event{Step: step, Type: "daily_summary", Day: day, CargoMT: delivered})
	if waiting > 0 {
		s.log.Debugw("day rolled", map[string]any{"day": day, "vessels_waiting": waiting})
	}
}

func (s *Simulator) record(ev Event) {
	s.events = append(s.events, ev)
}

func (s *Simulator) collect() Result {
	res := Result{
		Costs:       s.components,
		Events:      s.events,
		HorizonDays: s.cfg.HorizonDays,
		StepHours:   s.cfg.StepHours,
	}
	for _, vs := range s.vessels {
		res.Vessels = append(res.Vessels, VesselOutcome{
			VesselID:      vs.id,
			Phase:         vs.phase,
			BerthStep:     vs.berthStep,
			DepartStep:    vs.departStep,
			HandledMT:     vs.handledCargo,
			DemurrageCost: vs.demurrageCost,
		})
	}
	for _, port := range s.ports {
		var inv float64
		for _, b := range port.inventory {
			inv += b.remainingMT
		}
		res.Ports = append(res.Ports, PortOutcome{
			PortID:         port.id,
			TotalHandledMT: port.totalHandledMT,
			QueuedVessels:  len(port.queue),
			InventoryMT:    inv,
		})
	}
	for _, plant := range s.plants {
		res.Plants = append(res.Plants, PlantOutcome{
			PlantID:         plant.id,
			TotalReceivedMT: plant.totalReceived,
			DemandRemaining: plant.demandRemaining,
			Deliveries:      plant.deliveries,
		})
	}
	res.KPIs = s.computeKPIs()
	return res
}
