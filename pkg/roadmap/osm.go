package roadmap

import (
	"sort"

	"github.com/paulmach/osm"

	"github.com/azybler/goal_allocator/pkg/geo"
	osmparser "github.com/azybler/goal_allocator/pkg/osm"
)

// FromOSM turns parsed OSM links into raw roadmap records. Coordinates are
// projected to planar meters around the centre of the data so link weights
// and straight-line heuristics are both in meters. OSM node ids are kept.
func FromOSM(result *osmparser.ParseResult) []RawNode {
	if len(result.Links) == 0 {
		return nil
	}

	// Collect referenced nodes in id order for a deterministic layout.
	seen := make(map[osm.NodeID]struct{})
	var ids []osm.NodeID
	for _, l := range result.Links {
		for _, id := range [2]osm.NodeID{l.From, l.To} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lats := make([]float64, len(ids))
	lons := make([]float64, len(ids))
	for i, id := range ids {
		lats[i] = result.NodeLat[id]
		lons[i] = result.NodeLon[id]
	}
	proj := geo.CenteredOn(lats, lons)

	// Deduplicate links shared by overlapping ways.
	type pair struct{ a, b osm.NodeID }
	linked := make(map[pair]struct{}, len(result.Links))
	neighbors := make(map[osm.NodeID][]NodeID, len(ids))
	for _, l := range result.Links {
		a, b := l.From, l.To
		if a > b {
			a, b = b, a
		}
		if _, dup := linked[pair{a, b}]; dup {
			continue
		}
		linked[pair{a, b}] = struct{}{}
		neighbors[l.From] = append(neighbors[l.From], NodeID(l.To))
		neighbors[l.To] = append(neighbors[l.To], NodeID(l.From))
	}

	nodes := make([]RawNode, len(ids))
	for i, id := range ids {
		pt := proj.ToPlanar(lats[i], lons[i])
		nodes[i] = RawNode{ID: NodeID(id), X: pt[0], Y: pt[1], Neighbors: neighbors[id]}
	}
	return nodes
}
