package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/azybler/goal_allocator/pkg/roadmap"
	"github.com/azybler/goal_allocator/pkg/scenario"
)

var (
	verbose     bool
	maxSnapDist = roadmap.DefaultMaxSnapDist
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand(ctx).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <graph> <problem.yaml> <output.yaml>",
		Short: "Assign agents to goals minimising makespan, then total distance.",
		Long: "Reads a roadmap (.yaml, .bin or .osm.pbf) and a problem file listing each\n" +
			"agent's start and goal, then writes the chosen goal of every agent.",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			return run(ctx, cmd.OutOrStdout(), args[0], args[1], args[2])
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().Float64Var(&maxSnapDist, "max-snap-dist", roadmap.DefaultMaxSnapDist, "largest distance a v_pos/g_pos may be from its roadmap node")
	return cmd
}

func run(ctx context.Context, out io.Writer, graphPath, problemPath, outputPath string) error {
	start := time.Now()

	g, err := scenario.LoadGraph(ctx, graphPath)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	log.WithFields(log.Fields{"nodes": g.NumNodes, "links": g.NumLinks}).Debug("graph loaded")

	agents, err := scenario.ReadProblem(problemPath)
	if err != nil {
		return fmt.Errorf("load problem: %w", err)
	}

	solver := scenario.NewSolver(g)
	solver.Locator.SetMaxSnapDist(maxSnapDist)
	res, err := solver.Solve(ctx, agents)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "makespan=%g, costs=%g\n", res.Makespan, res.Cost)
	for _, a := range res.Agents {
		s, _ := g.Index(a.Start)
		t, _ := g.Index(a.Goal)
		fmt.Fprintf(out, "%d (x=%g, y=%g) -> %d (x=%g, y=%g)\n",
			a.Start, g.Pos[s].X(), g.Pos[s].Y(), a.Goal, g.Pos[t].X(), g.Pos[t].Y())
	}

	if err := scenario.WriteAssignmentFile(outputPath, res); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.WithFields(log.Fields{
		"agents":    len(res.Agents),
		"evaluated": res.Stats.Evaluated,
		"expanded":  res.Stats.Expanded,
		"elapsed":   time.Since(start).Round(time.Millisecond),
	}).Debug("done")
	return nil
}
