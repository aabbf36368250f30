package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/gibson-ml/gibson/internal/distribution"
	"github.com/gibson-ml/gibson/internal/graph"
	"github.com/gibson-ml/gibson/internal/infer"
	"github.com/gibson-ml/gibson/internal/operator"
)

// newSprinklerCmd runs rejection sampling on the classic rain/sprinkler/
// wet-grass network and reports P(rain | grass wet).
func newSprinklerCmd() *cobra.Command {
	cfg := defaultConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "sprinkler",
		Short: "Estimate P(rain | grass wet) on the sprinkler network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := loadConfig(configPath, &cfg); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("draws") {
				cfg.Draws, _ = cmd.Flags().GetInt("draws")
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed, _ = cmd.Flags().GetUint64("seed")
			}
			logger := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
			return runSprinkler(cfg, logger, cmd)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().Int("draws", cfg.Draws, "number of forward draws")
	cmd.Flags().Uint64("seed", cfg.Seed, "random seed")
	cmd.Flags().StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (text|json)")
	return cmd
}

func runSprinkler(cfg config, logger *slog.Logger, cmd *cobra.Command) error {
	g, rain, grass, err := buildSprinkler()
	if err != nil {
		return err
	}
	logger.Info("graph built", slog.Int("nodes", g.Len()))

	rng := rand.New(rand.NewSource(cfg.Seed))
	result, err := infer.Rejection(g,
		map[graph.NodeID]graph.Value{grass: graph.NewBoolean(true)},
		[]graph.NodeID{rain},
		cfg.Draws, rng, logger)
	if err != nil {
		return err
	}

	logger.Info("rejection sampling done",
		slog.Int("draws", result.Draws),
		slog.Int("accepted", result.Accepted))
	fmt.Fprintf(cmd.OutOrStdout(), "P(rain | grass wet) ≈ %.4f (%d/%d draws accepted)\n",
		result.Means[0], result.Accepted, result.Draws)
	return nil
}

// buildSprinkler constructs the network and returns the handles of the rain
// and wet-grass latents.
func buildSprinkler() (*graph.Graph, graph.NodeID, graph.NodeID, error) {
	g := graph.New()
	boolType := graph.ScalarType(graph.Boolean)

	pRain, err := graph.NewProbability(0.2)
	if err != nil {
		return nil, 0, 0, err
	}
	rainDist, err := g.AddDistribution(distribution.BernoulliKind, boolType,
		[]graph.NodeID{g.AddConstant(pRain)})
	if err != nil {
		return nil, 0, 0, err
	}
	rain, err := g.AddOperator(operator.SampleKind, []graph.NodeID{rainDist})
	if err != nil {
		return nil, 0, 0, err
	}

	// P(sprinkler | rain): sprinklers mostly run when it is dry.
	sprinklerCPT, err := graph.NewRowSimplexMatrix(mat.NewDense(2, 2, []float64{
		0.6, 0.4,
		0.99, 0.01,
	}))
	if err != nil {
		return nil, 0, 0, err
	}
	sprinklerDist, err := g.AddDistribution(distribution.TabularKind, boolType,
		[]graph.NodeID{g.AddConstant(sprinklerCPT), rain})
	if err != nil {
		return nil, 0, 0, err
	}
	sprinkler, err := g.AddOperator(operator.SampleKind, []graph.NodeID{sprinklerDist})
	if err != nil {
		return nil, 0, 0, err
	}

	// P(grass wet | sprinkler, rain); rain is the last parent and so the
	// least-significant row bit.
	grassCPT, err := graph.NewRowSimplexMatrix(mat.NewDense(4, 2, []float64{
		1.00, 0.00,
		0.20, 0.80,
		0.10, 0.90,
		0.01, 0.99,
	}))
	if err != nil {
		return nil, 0, 0, err
	}
	grassDist, err := g.AddDistribution(distribution.TabularKind, boolType,
		[]graph.NodeID{g.AddConstant(grassCPT), sprinkler, rain})
	if err != nil {
		return nil, 0, 0, err
	}
	grass, err := g.AddOperator(operator.SampleKind, []graph.NodeID{grassDist})
	if err != nil {
		return nil, 0, 0, err
	}

	return g, rain, grass, nil
}
