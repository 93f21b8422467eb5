package model

import "math/rand"

// DelayScenario selects the ETA delay severity for what-if analysis.
type DelayScenario string

const (
	DelayNone DelayScenario = "none"
	DelayP10  DelayScenario = "P10"
	DelayP50  DelayScenario = "P50"
	DelayP90  DelayScenario = "P90"
)

// multiplierRange returns the uniform sampling range for the scenario.
func (d DelayScenario) multiplierRange() (lo, hi float64) {
	switch d {
	case DelayP10:
		return 1.0, 1.2
	case DelayP50:
		return 1.1, 1.5
	case DelayP90:
		return 1.3, 2.0
	default:
		return 1.0, 1.0
	}
}

// Scenario describes a perturbation of the base tables for what-if runs.
// Zero values leave the corresponding table untouched.
type Scenario struct {
	ETADelay         DelayScenario
	RakeReductionPct float64
	DemandSpikePct   float64
	SpikePlantID     string
}

// Apply returns a new table set with the scenario's perturbations applied.
// ETA multipliers are drawn per vessel from rng, so the same seed yields the
// same scenario. The base tables are not modified.
func (sc Scenario) Apply(base *Tables, rng *rand.Rand) (*Tables, error) {
	vessels := base.Vessels()
	if sc.ETADelay != "" && sc.ETADelay != DelayNone {
		lo, hi := sc.ETADelay.multiplierRange()
		for i := range vessels {
			vessels[i].ETADay *= lo + rng.Float64()*(hi-lo)
		}
	}

	ports := base.Ports()
	if sc.RakeReductionPct > 0 {
		for i := range ports {
			ports[i].RakesPerDay = int(float64(ports[i].RakesPerDay) * (1 - sc.RakeReductionPct/100))
		}
	}

	plants := base.Plants()
	if sc.DemandSpikePct > 0 && sc.SpikePlantID != "" {
		for i := range plants {
			if plants[i].ID == sc.SpikePlantID {
				plants[i].DailyDemandMT *= 1 + sc.DemandSpikePct/100
			}
		}
	}

	return NewTables(vessels, ports, plants, base.RailLinks())
}
