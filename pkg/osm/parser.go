package osm

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	log "github.com/sirupsen/logrus"
)

// RawLink is an undirected roadmap link between two consecutive way nodes.
type RawLink struct {
	From osm.NodeID
	To   osm.NodeID
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Links   []RawLink
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

// Profile selects which ways agents may travel on.
type Profile int

const (
	ProfileVehicle Profile = iota // wheeled robots on drivable roads
	ProfileWalk                   // small robots on footways and minor roads
)

func (p Profile) String() string {
	return [...]string{"vehicle", "walk"}[p]
}

// ParseProfile maps a profile name to a Profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "vehicle", "":
		return ProfileVehicle, nil
	case "walk":
		return ProfileWalk, nil
	}
	return 0, fmt.Errorf("unknown profile %q", s)
}

var vehicleHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

var walkHighways = map[string]bool{
	"footway":       true,
	"pedestrian":    true,
	"path":          true,
	"steps":         true,
	"track":         true,
	"cycleway":      true,
	"residential":   true,
	"living_street": true,
	"service":       true,
	"unclassified":  true,
	"tertiary":      true,
}

// isTraversable returns true if the way is usable under the given profile.
func isTraversable(tags osm.Tags, profile Profile) bool {
	hw := tags.Find("highway")
	switch profile {
	case ProfileWalk:
		if !walkHighways[hw] {
			return false
		}
		if tags.Find("foot") == "no" {
			return false
		}
	default:
		if !vehicleHighways[hw] {
			return false
		}
		// Skip area highways (pedestrian plazas).
		if tags.Find("area") == "yes" {
			return false
		}
		if tags.Find("motor_vehicle") == "no" {
			return false
		}
	}

	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}

	return true
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only links with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox    BBox // if non-zero, filter links to this bounding box
	Profile Profile
}

// Parse reads an OSM PBF file and returns the undirected links of all
// traversable ways. The reader is consumed twice (seeks back to start for
// the second pass), so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	useBBox := !opt.BBox.IsZero()

	// Pass 1: Scan ways to collect referenced node IDs and way node lists.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways [][]osm.NodeID

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isTraversable(w.Tags, opt.Profile) {
			continue
		}
		if len(w.Nodes) < 2 {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, nodeIDs)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	log.WithFields(log.Fields{"ways": len(ways), "nodes": len(referencedNodes), "profile": opt.Profile}).
		Info("Pass 1 complete")

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	log.WithField("coordinates", len(nodeLat)).Info("Pass 2 complete")

	links, skipped, filtered := buildLinks(ways, nodeLat, nodeLon, opt.BBox, useBBox)

	if skipped > 0 {
		log.Warnf("Skipped %d links due to missing node coordinates", skipped)
	}
	if filtered > 0 {
		log.Infof("Filtered %d links outside bounding box", filtered)
	}
	log.Infof("Built %d undirected links", len(links))

	return &ParseResult{
		Links:   links,
		NodeLat: nodeLat,
		NodeLon: nodeLon,
	}, nil
}

// buildLinks splits ways into consecutive node pairs, dropping self-loops,
// pairs with unknown coordinates and pairs outside the bbox.
func buildLinks(ways [][]osm.NodeID, nodeLat, nodeLon map[osm.NodeID]float64, bbox BBox, useBBox bool) (links []RawLink, skipped, filtered int) {
	for _, w := range ways {
		for i := 0; i < len(w)-1; i++ {
			from, to := w[i], w[i+1]
			if from == to {
				continue
			}

			fromLat, fromOk := nodeLat[from]
			toLat, toOk := nodeLat[to]
			if !fromOk || !toOk {
				skipped++
				continue
			}

			if useBBox && (!bbox.Contains(fromLat, nodeLon[from]) || !bbox.Contains(toLat, nodeLon[to])) {
				filtered++
				continue
			}

			links = append(links, RawLink{From: from, To: to})
		}
	}
	return links, skipped, filtered
}
