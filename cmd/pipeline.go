package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steelroute/rakeflow/core/pipeline"
	"github.com/steelroute/rakeflow/infra/logger"
	"github.com/steelroute/rakeflow/infra/mqtt"
	"github.com/steelroute/rakeflow/internal/format"
)

var pipelineJSON bool

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full optimization pipeline and simulate the result",
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().BoolVar(&pipelineJSON, "json", false, "print the full outcome as JSON")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rootSeed := resolveSeed(cfg)
	cfg.Pipeline.Seed = rootSeed
	tables, err := loadTables(rootSeed)
	if err != nil {
		return err
	}

	sink, err := buildSink(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	log := logger.New("pipeline")
	runner := pipeline.New(tables, cfg.Pipeline, log, sink)
	out, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			log.Errorf("mqtt publisher: %v", err)
		} else {
			defer pub.Disconnect()
			if err := pub.PublishPlan(out.Final, &out.KPIs); err != nil {
				log.Errorf("publish plan: %v", err)
			}
		}
	}

	if pipelineJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("baseline:  %s (%s)\n", format.Currency(out.Baseline.Objective), out.Baseline.Status)
	fmt.Printf("exact:     %s (%s)\n", format.Currency(out.Exact.Objective), out.Exact.Status)
	fmt.Printf("evolved:   %s (%s)\n", format.Currency(out.Evolved.Objective), out.Evolved.Status)
	fmt.Printf("annealed:  %s (%s)\n", format.Currency(out.Annealed.Objective), out.Annealed.Status)
	fmt.Printf("improvement vs baseline: %.1f%%\n\n", out.ImprovementPct)
	printKPIs(out.KPIs)
	return nil
}
