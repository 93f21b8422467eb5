package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steelroute/rakeflow/config"
	coremetrics "github.com/steelroute/rakeflow/core/metrics"
	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/rng"
	"github.com/steelroute/rakeflow/infra/logger"
	"github.com/steelroute/rakeflow/infra/metrics"
)

var (
	cfgPath string
	seed    int64

	etaDelay      string
	rakeReduction float64
	demandSpike   float64
	spikePlant    string
)

var rootCmd = &cobra.Command{
	Use:   "rakeflow",
	Short: "Vessel dispatch optimization engine",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (json or yaml)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "root RNG seed (0 uses env or the default)")

	rootCmd.PersistentFlags().StringVar(&etaDelay, "eta-delay", "none", "ETA delay scenario: none, P10, P50 or P90")
	rootCmd.PersistentFlags().Float64Var(&rakeReduction, "rake-reduction", 0, "reduce rake availability by this percent")
	rootCmd.PersistentFlags().Float64Var(&demandSpike, "demand-spike", 0, "increase one plant's demand by this percent")
	rootCmd.PersistentFlags().StringVar(&spikePlant, "spike-plant", "", "plant id targeted by the demand spike")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configured file, or returns defaults when no file was
// given.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveSeed reconciles the --seed flag with the config and environment.
func resolveSeed(cfg *config.Config) int64 {
	if seed != 0 {
		return seed
	}
	return rng.Resolve(cfg.Pipeline.Seed)
}

// loadTables builds the embedded demo dataset and applies any requested
// what-if scenario. Scenario sampling uses its own RNG phase so the
// optimization stages see the same draws regardless of scenario flags.
func loadTables(rootSeed int64) (*model.Tables, error) {
	tables, err := model.SampleTables()
	if err != nil {
		return nil, err
	}
	sc := model.Scenario{
		ETADelay:         model.DelayScenario(etaDelay),
		RakeReductionPct: rakeReduction,
		DemandSpikePct:   demandSpike,
		SpikePlantID:     spikePlant,
	}
	if sc.ETADelay == model.DelayNone && sc.RakeReductionPct == 0 && sc.DemandSpikePct == 0 {
		return tables, nil
	}
	return sc.Apply(tables, rng.New(rootSeed).Phase("scenario"))
}

// buildSink assembles the metrics sinks enabled in the config. The Prometheus
// HTTP server, when enabled, runs until ctx is canceled.
func buildSink(ctx context.Context, cfg *config.Config) (coremetrics.MetricsSink, error) {
	log := logger.New("metrics")
	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.PrometheusAddr); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}
