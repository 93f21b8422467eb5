package sim

// VesselPhase tracks a vessel through the simulation.
type VesselPhase string

const (
	VesselEnRoute  VesselPhase = "en_route"
	VesselWaiting  VesselPhase = "waiting"
	VesselBerthed  VesselPhase = "berthed"
	VesselDeparted VesselPhase = "departed"
)

// RakePhase tracks a rake through its trip cycle.
type RakePhase string

const (
	RakeAvailable RakePhase = "available"
	RakeLoading   RakePhase = "loading"
	RakeInTransit RakePhase = "in_transit"
	RakeUnloading RakePhase = "unloading"
)

// vesselState is the mutable per-vessel simulation record.
type vesselState struct {
	id             string
	phase          VesselPhase
	portID         string
	grade          string
	etaStep        int
	arrivalStep    int // eta plus predicted inherent delay
	scheduledStep  int // earliest planned berth across assignments
	plannedStep    int // demurrage baseline
	berthStep      int // -1 until berthed
	departStep     int // -1 until departed
	cargoRemaining float64
	initialCargo   float64
	handledCargo   float64
	demurrageCost  float64
	assignments    []*assignmentState
}

// assignmentState tracks how much of one planned cargo slice has been railed.
type assignmentState struct {
	vesselID      string
	portID        string
	plantID       string
	grade         string
	totalCargo    float64
	remaining     float64
	railRatePerMT float64
	transitSteps  int
}

// inventoryBatch is discharged-but-not-yet-railed cargo sitting at a port.
type inventoryBatch struct {
	vesselID    string
	grade       string
	remainingMT float64
	ageDays     int
}

// portState is the mutable per-port simulation record. Daily budgets reset at
// each day boundary.
type portState struct {
	id             string
	queue          []string // FIFO of waiting vessel ids
	currentVessel  string   // empty when the berth is free
	capacityLeftMT float64  // remaining discharge budget for the day
	rakesLeft      int      // remaining rake departures for the day
	inventory      []inventoryBatch
	totalHandledMT float64
}

// inventoryOf sums not-yet-railed cargo of a grade at the port.
func (p *portState) inventoryOf(grade string) float64 {
	var sum float64
	for _, b := range p.inventory {
		if b.grade == grade {
			sum += b.remainingMT
		}
	}
	return sum
}

// consumeInventory removes up to want MT of a grade FIFO and returns the
// amount actually taken.
func (p *portState) consumeInventory(grade string, want float64) float64 {
	var taken float64
	for i := range p.inventory {
		if want <= 0 {
			break
		}
		b := &p.inventory[i]
		if b.grade != grade || b.remainingMT <= 0 {
			continue
		}
		take := b.remainingMT
		if take > want {
			take = want
		}
		b.remainingMT -= take
		want -= take
		taken += take
	}
	// Drop exhausted batches.
	kept := p.inventory[:0]
	for _, b := range p.inventory {
		if b.remainingMT > 1e-9 {
			kept = append(kept, b)
		}
	}
	p.inventory = kept
	return taken
}

// plantState is the mutable per-plant simulation record.
type plantState struct {
	id              string
	totalReceived   float64
	dailyReceived   float64
	demandRemaining float64
	deliveries      int
}

// rakeState is the mutable per-rake simulation record. Rakes exist only for
// the duration of one run.
type rakeState struct {
	id          string
	homePort    string
	location    string
	phase       RakePhase
	cargoMT     float64
	grade       string
	destPlant   string
	arrivalStep int
	assignment  *assignmentState
}

// Event is one structured entry of the simulation log.
type Event struct {
	Step     int     `json:"step"`
	Type     string  `json:"type"`
	VesselID string  `json:"vessel_id,omitempty"`
	PortID   string  `json:"port_id,omitempty"`
	PlantID  string  `json:"plant_id,omitempty"`
	RakeID   string  `json:"rake_id,omitempty"`
	CargoMT  float64 `json:"cargo_mt,omitempty"`
	Day      int     `json:"day,omitempty"`
}

// VesselOutcome is the externally visible end state of one vessel.
type VesselOutcome struct {
	VesselID      string      `json:"vessel_id"`
	Phase         VesselPhase `json:"phase"`
	BerthStep     int         `json:"berth_step"`
	DepartStep    int         `json:"depart_step"`
	HandledMT     float64     `json:"handled_mt"`
	DemurrageCost float64     `json:"demurrage_cost"`
}

// PortOutcome is the externally visible end state of one port.
type PortOutcome struct {
	PortID         string  `json:"port_id"`
	TotalHandledMT float64 `json:"total_handled_mt"`
	QueuedVessels  int     `json:"queued_vessels"`
	InventoryMT    float64 `json:"inventory_mt"`
}

// PlantOutcome is the externally visible end state of one plant.
type PlantOutcome struct {
	PlantID         string  `json:"plant_id"`
	TotalReceivedMT float64 `json:"total_received_mt"`
	DemandRemaining float64 `json:"demand_remaining_mt"`
	Deliveries      int     `json:"deliveries"`
}
