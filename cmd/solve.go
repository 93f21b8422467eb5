package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/rng"
	"github.com/steelroute/rakeflow/core/solver"
	"github.com/steelroute/rakeflow/infra/logger"
	"github.com/steelroute/rakeflow/internal/format"
)

var solveJSON bool

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run the exact optimization stage",
	RunE:  runSolve,
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Run the first-come-first-served baseline",
	RunE:  runBaseline,
}

func init() {
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(baselineCmd)
	solveCmd.Flags().BoolVar(&solveJSON, "json", false, "print the full solution as JSON")
	baselineCmd.Flags().BoolVar(&solveJSON, "json", false, "print the full solution as JSON")
}

func runSolve(cmd *cobra.Command, args []string) error {
	s, err := buildExactSolver()
	if err != nil {
		return err
	}
	sol := s.Solve(cmd.Context())
	return printSolution(sol)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	s, err := buildExactSolver()
	if err != nil {
		return err
	}
	return printSolution(s.Baseline())
}

func buildExactSolver() (*solver.ExactSolver, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rootSeed := resolveSeed(cfg)
	tables, err := loadTables(rootSeed)
	if err != nil {
		return nil, err
	}
	costs := cost.NewModel(tables, cfg.Pipeline.Cost)
	est := cost.NewDelayEstimator(rng.New(rootSeed))
	return solver.New(tables, costs, est, cfg.Pipeline.Solver, logger.New("solver")), nil
}

func printSolution(sol model.Solution) error {
	if solveJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sol)
	}

	fmt.Printf("run:       %s\n", sol.RunID)
	fmt.Printf("method:    %s\n", sol.Method)
	fmt.Printf("status:    %s\n", sol.Status)
	fmt.Printf("objective: %s\n", format.Currency(sol.Objective))
	fmt.Printf("solved in: %s\n", sol.SolveTime)
	if sol.Message != "" {
		fmt.Printf("message:   %s\n", sol.Message)
	}
	if len(sol.Assignments) == 0 {
		return nil
	}

	fmt.Printf("\n%-12s %-9s %-9s %10s %6s %6s %6s\n",
		"VESSEL", "PORT", "PLANT", "CARGO", "DAY", "BERTH", "RAKES")
	for _, a := range sol.Assignments {
		fmt.Printf("%-12s %-9s %-9s %10s %6.1f %6.1f %6d\n",
			a.VesselID, a.PortID, a.PlantID, format.Tonnage(a.CargoMT),
			a.ScheduledDay, a.BerthDay, a.RakesRequired)
	}
	return nil
}
