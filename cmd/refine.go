package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/heuristic"
	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/rng"
	"github.com/steelroute/rakeflow/core/solver"
	"github.com/steelroute/rakeflow/infra/logger"
)

var evolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Run the evolutionary refinement stage",
	Long:  "Runs the exact stage first and refines its plan with the evolutionary search. When the exact stage produces no usable plan the FCFS baseline seeds the search instead.",
	RunE:  runEvolve,
}

var annealCmd = &cobra.Command{
	Use:   "anneal",
	Short: "Run evolutionary refinement followed by simulated annealing",
	RunE:  runAnneal,
}

func init() {
	rootCmd.AddCommand(evolveCmd)
	rootCmd.AddCommand(annealCmd)
	evolveCmd.Flags().BoolVar(&solveJSON, "json", false, "print the full solution as JSON")
	annealCmd.Flags().BoolVar(&solveJSON, "json", false, "print the full solution as JSON")
}

func runEvolve(cmd *cobra.Command, args []string) error {
	refiner, seedSol, err := buildRefiner(cmd)
	if err != nil {
		return err
	}
	return printSolution(refiner.RunEvolution(seedSol))
}

func runAnneal(cmd *cobra.Command, args []string) error {
	refiner, seedSol, err := buildRefiner(cmd)
	if err != nil {
		return err
	}
	evolved := refiner.RunEvolution(seedSol)
	annealed := refiner.RunAnnealing(evolved)
	if evolved.Objective > 0 {
		fmt.Printf("annealing gain: %.2f%%\n", (evolved.Objective-annealed.Objective)/evolved.Objective*100)
	}
	return printSolution(annealed)
}

// buildRefiner assembles the refinement stage and its seed plan.
func buildRefiner(cmd *cobra.Command) (*heuristic.Refiner, *model.Solution, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	rootSeed := resolveSeed(cfg)
	tables, err := loadTables(rootSeed)
	if err != nil {
		return nil, nil, err
	}

	src := rng.New(rootSeed)
	costs := cost.NewModel(tables, cfg.Pipeline.Cost)
	est := cost.NewDelayEstimator(src)
	log := logger.New("refine")

	exact := solver.New(tables, costs, est, cfg.Pipeline.Solver, log)
	seedSol := exact.Solve(cmd.Context())
	if !seedSol.Status.Usable() {
		log.Warnf("exact stage unusable (%s), seeding from baseline", seedSol.Status)
		seedSol = exact.Baseline()
	}

	refiner := heuristic.New(tables, costs, est, cfg.Pipeline.Heuristic, log, src)
	return refiner, &seedSol, nil
}
