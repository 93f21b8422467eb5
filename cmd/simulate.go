package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/sim"
	"github.com/steelroute/rakeflow/infra/logger"
	"github.com/steelroute/rakeflow/internal/format"
)

var (
	planPath string
	simJSON  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a dispatch plan through the discrete-event simulator",
	Long:  "Reads a plan from --plan (a JSON solution written by solve --json) and simulates it. Without --plan the FCFS baseline is simulated.",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&planPath, "plan", "", "JSON solution file to simulate")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print the full simulation result as JSON")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rootSeed := resolveSeed(cfg)
	tables, err := loadTables(rootSeed)
	if err != nil {
		return err
	}

	var sol model.Solution
	if planPath != "" {
		raw, err := os.ReadFile(planPath)
		if err != nil {
			return fmt.Errorf("read plan: %w", err)
		}
		if err := json.Unmarshal(raw, &sol); err != nil {
			return fmt.Errorf("decode plan: %w", err)
		}
	} else {
		s, err := buildExactSolver()
		if err != nil {
			return err
		}
		sol = s.Baseline()
	}

	costs := cost.NewModel(tables, cfg.Pipeline.Cost)
	simulator := sim.New(tables, costs, cfg.Pipeline.Sim, logger.New("simulate"))
	res, err := simulator.Run(sol.Assignments)
	if err != nil {
		return err
	}

	if simJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printKPIs(res.KPIs)
	return nil
}

func printKPIs(k sim.KPISet) {
	fmt.Printf("total cost:          %s\n", format.Currency(k.TotalCost))
	fmt.Printf("  demurrage:         %s\n", format.Currency(k.DemurrageCost))
	fmt.Printf("  port handling:     %s\n", format.Currency(k.PortHandlingCost))
	fmt.Printf("  rail transport:    %s\n", format.Currency(k.RailTransportCost))
	fmt.Printf("cargo delivered:     %s of %s (%.1f%%)\n",
		format.Tonnage(k.TotalDelivered), format.Tonnage(k.TotalDemand), k.DemandFulfilledPct)
	fmt.Printf("vessels processed:   %.1f%%\n", k.VesselsProcessed)
	fmt.Printf("avg vessel wait:     %.1f h\n", k.AvgVesselWaitHours)
	fmt.Printf("rake utilization:    %.1f%%\n", k.AvgRakeUtilization*100)
}
