package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/azybler/goal_allocator/pkg/api"
	"github.com/azybler/goal_allocator/pkg/roadmap"
	"github.com/azybler/goal_allocator/pkg/scenario"
)

type options struct {
	graph          string
	port           int
	corsOrigin     string
	maxAgents      int
	maxSnapDist    float64
	requestTimeout time.Duration
	verbose        bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := options{}
	defaults := api.DefaultConfig("")
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve goal assignment over HTTP for one roadmap.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
			srv, err := newServer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return api.ListenAndServe(srv)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.graph, "graph", "g", "roadmap.bin", "roadmap to serve (.bin, .yaml or .osm.pbf)")
	f.IntVarP(&opts.port, "port", "p", 8080, "HTTP port")
	f.StringVar(&opts.corsOrigin, "cors-origin", "", "CORS allowed origin (empty = same-origin)")
	f.IntVar(&opts.maxAgents, "max-agents", defaults.MaxAgents, "largest accepted problem (0 = unlimited)")
	f.Float64Var(&opts.maxSnapDist, "max-snap-dist", roadmap.DefaultMaxSnapDist, "largest distance a position may be from its roadmap node")
	f.DurationVar(&opts.requestTimeout, "request-timeout", defaults.RequestTimeout, "per-request time limit")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	return cmd
}

func newServer(ctx context.Context, opts options) (*http.Server, error) {
	start := time.Now()

	log.WithField("path", opts.graph).Info("loading roadmap")
	g, err := scenario.LoadGraph(ctx, opts.graph)
	if err != nil {
		return nil, fmt.Errorf("load roadmap: %w", err)
	}

	log.Info("building R-tree spatial index")
	solver := scenario.NewSolver(g)
	solver.Locator.SetMaxSnapDist(opts.maxSnapDist)

	log.WithFields(log.Fields{
		"nodes":   g.NumNodes,
		"links":   g.NumLinks,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("ready")

	cfg := api.DefaultConfig(fmt.Sprintf(":%d", opts.port))
	cfg.CORSOrigin = opts.corsOrigin
	cfg.MaxAgents = opts.maxAgents
	cfg.RequestTimeout = opts.requestTimeout
	cfg.WriteTimeout = opts.requestTimeout + 5*time.Second

	stats := api.StatsResponse{
		NumNodes: g.NumNodes,
		NumLinks: g.NumLinks,
		MaxID:    int64(g.MaxID()),
	}
	return api.NewServer(cfg, api.NewHandlers(solver, stats, cfg.MaxAgents)), nil
}
