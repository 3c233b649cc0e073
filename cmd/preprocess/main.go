package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	osmparser "github.com/azybler/goal_allocator/pkg/osm"
	"github.com/azybler/goal_allocator/pkg/roadmap"
	"github.com/azybler/goal_allocator/pkg/scenario"
)

type options struct {
	input     string
	output    string
	bbox      string
	singapore bool
	kl        bool
	profile   string
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand(ctx).Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand(ctx context.Context) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "preprocess --input <file.osm.pbf> [--output roadmap.bin]",
		Short: "Convert an OSM extract into a roadmap for goal assignment.",
		Long: "Keeps traversable highways, projects nodes to planar meters, drops\n" +
			"everything outside the largest connected component and writes a binary\n" +
			"roadmap cache (.bin) or a graph YAML document (.yaml/.yml).",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
			return run(ctx, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "path to .osm.pbf file")
	f.StringVarP(&opts.output, "output", "o", "roadmap.bin", "output roadmap (.bin, .yaml or .yml)")
	f.StringVar(&opts.bbox, "bbox", "", "bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 1.15,103.6,1.48,104.1)")
	f.BoolVar(&opts.singapore, "singapore", false, "shortcut for --bbox 1.15,103.6,1.48,104.1 (Singapore bounding box)")
	f.BoolVar(&opts.kl, "kl", false, "shortcut for --bbox 2.75,101.2,3.5,102.0 (Selangor + Kuala Lumpur bounding box)")
	f.StringVar(&opts.profile, "profile", osmparser.ProfileVehicle.String(), "which ways to keep: vehicle or walk")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// parseOptions turns the bbox and profile flags into parser options.
func parseOptions(opts options) (osmparser.ParseOptions, error) {
	var po osmparser.ParseOptions

	profile, err := osmparser.ParseProfile(opts.profile)
	if err != nil {
		return po, err
	}
	po.Profile = profile

	switch {
	case opts.kl:
		po.BBox = osmparser.BBox{MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0}
	case opts.singapore:
		po.BBox = osmparser.BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	case opts.bbox != "":
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(opts.bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			return po, fmt.Errorf("invalid bbox %q (expected minLat,minLng,maxLat,maxLng): %w", opts.bbox, err)
		}
		if minLat >= maxLat || minLng >= maxLng {
			return po, fmt.Errorf("invalid bbox %q: min must be below max", opts.bbox)
		}
		po.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	}
	return po, nil
}

func writeRoadmap(path string, g *roadmap.Graph) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return roadmap.WriteBinary(path, g)
	case ".yaml", ".yml":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := scenario.WriteGraphYAML(f, g); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("%s: %w", path, scenario.ErrUnsupportedFormat)
	}
}

func run(ctx context.Context, opts options) error {
	po, err := parseOptions(opts)
	if err != nil {
		return err
	}
	if !po.BBox.IsZero() {
		log.WithFields(log.Fields{
			"lat": fmt.Sprintf("[%.4f, %.4f]", po.BBox.MinLat, po.BBox.MaxLat),
			"lng": fmt.Sprintf("[%.4f, %.4f]", po.BBox.MinLng, po.BBox.MaxLng),
		}).Info("using bounding box filter")
	}

	start := time.Now()

	g, err := scenario.ImportOSM(ctx, opts.input, po)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"nodes": g.NumNodes, "links": g.NumLinks}).Info("roadmap built")

	if err := writeRoadmap(opts.output, g); err != nil {
		return fmt.Errorf("write roadmap: %w", err)
	}

	info, err := os.Stat(opts.output)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"output":  opts.output,
		"size_mb": fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024)),
		"elapsed": time.Since(start).Round(time.Second),
	}).Info("done")
	return nil
}
