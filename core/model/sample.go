package model

import "math/rand"

// sampleRailSeed fixes the generated rail matrix so demo runs and tests see
// identical costs.
const sampleRailSeed = 42

// SampleTables builds the embedded demo dataset: three east-coast ports, ten
// vessels over a ten day arrival window and five plants, with a full
// port-plant rail matrix.
func SampleTables() (*Tables, error) {
	ports := []Port{
		{ID: "HALDIA", HandlingCostPerMT: 25.0, StorageCostPerMT: 2.0, FreeStorageDays: 3, DailyCapacityMT: 50000, RakesPerDay: 8},
		{ID: "PARADIP", HandlingCostPerMT: 22.0, StorageCostPerMT: 1.8, FreeStorageDays: 3, DailyCapacityMT: 60000, RakesPerDay: 10},
		{ID: "VIZAG", HandlingCostPerMT: 28.0, StorageCostPerMT: 2.2, FreeStorageDays: 2, DailyCapacityMT: 55000, RakesPerDay: 7},
	}

	vessels := []Vessel{
		{ID: "MV_IRON_1", CargoMT: 25000, ETADay: 1, PortID: "HALDIA", SecondaryPorts: "PARADIP", DemurrageRate: 5000, CargoGrade: "IRON_ORE", FreightPerMT: 12},
		{ID: "MV_COAL_1", CargoMT: 30000, ETADay: 2, PortID: "PARADIP", SecondaryPorts: "VIZAG", DemurrageRate: 6000, CargoGrade: "COAL", FreightPerMT: 10},
		{ID: "MV_IRON_2", CargoMT: 22000, ETADay: 3, PortID: "VIZAG", SecondaryPorts: "HALDIA", DemurrageRate: 4500, CargoGrade: "IRON_ORE", FreightPerMT: 12},
		{ID: "MV_COAL_2", CargoMT: 28000, ETADay: 4, PortID: "HALDIA", SecondaryPorts: "PARADIP", DemurrageRate: 5500, CargoGrade: "COAL", FreightPerMT: 10},
		{ID: "MV_IRON_3", CargoMT: 26000, ETADay: 5, PortID: "PARADIP", SecondaryPorts: "VIZAG", DemurrageRate: 5200, CargoGrade: "IRON_ORE", FreightPerMT: 12},
		{ID: "MV_COAL_3", CargoMT: 32000, ETADay: 6, PortID: "VIZAG", SecondaryPorts: "HALDIA", DemurrageRate: 6200, CargoGrade: "COAL", FreightPerMT: 10},
		{ID: "MV_IRON_4", CargoMT: 24000, ETADay: 7, PortID: "HALDIA", SecondaryPorts: "PARADIP", DemurrageRate: 4800, CargoGrade: "IRON_ORE", FreightPerMT: 12},
		{ID: "MV_COAL_4", CargoMT: 29000, ETADay: 8, PortID: "PARADIP", SecondaryPorts: "VIZAG", DemurrageRate: 5800, CargoGrade: "COAL", FreightPerMT: 10},
		{ID: "MV_IRON_5", CargoMT: 27000, ETADay: 9, PortID: "VIZAG", SecondaryPorts: "HALDIA", DemurrageRate: 5100, CargoGrade: "IRON_ORE", FreightPerMT: 12},
		{ID: "MV_COAL_5", CargoMT: 31000, ETADay: 10, PortID: "HALDIA", SecondaryPorts: "PARADIP", DemurrageRate: 5900, CargoGrade: "COAL", FreightPerMT: 10},
	}

	plants := []Plant{
		{ID: "PLANT_A", DailyDemandMT: 8000, Quality: "IRON_ORE", SafetyStockDay: 2},
		{ID: "PLANT_B", DailyDemandMT: 6000, Quality: "COAL", SafetyStockDay: 2},
		{ID: "PLANT_C", DailyDemandMT: 10000, Quality: "IRON_ORE", SafetyStockDay: 3},
		{ID: "PLANT_D", DailyDemandMT: 12000, Quality: "COAL", SafetyStockDay: 3},
		{ID: "PLANT_E", DailyDemandMT: 4000, Quality: "IRON_ORE", SafetyStockDay: 2},
	}

	rng := rand.New(rand.NewSource(sampleRailSeed))
	var links []RailLink
	for _, port := range ports {
		for _, plant := range plants {
			links = append(links, RailLink{
				PortID:      port.ID,
				PlantID:     plant.ID,
				CostPerMT:   float64(int(100*(80+rng.Float64()*70))) / 100,
				DistanceKM:  float64(int(200 + rng.Float64()*600)),
				TransitDays: 1 + rng.Intn(2),
			})
		}
	}

	return NewTables(vessels, ports, plants, links)
}
