package roadmap

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// DefaultMaxSnapDist is the snap radius used by NewLocator, in roadmap units.
const DefaultMaxSnapDist = math.MaxFloat64

var (
	// ErrPointTooFar is returned when the query point is too far from any node.
	ErrPointTooFar = errors.New("point too far from roadmap")
	// ErrEmptyGraph is returned when snapping against a roadmap with no nodes.
	ErrEmptyGraph = errors.New("roadmap has no nodes")
)

// Locator snaps arbitrary planar points to the nearest roadmap node using an
// R-tree over node positions.
type Locator struct {
	tr          rtree.RTreeG[uint32]
	g           *Graph
	maxSnapDist float64
}

// NewLocator builds a spatial index over every node of g.
func NewLocator(g *Graph) *Locator {
	l := &Locator{g: g, maxSnapDist: DefaultMaxSnapDist}
	for u := uint32(0); u < g.NumNodes; u++ {
		p := [2]float64{g.Pos[u][0], g.Pos[u][1]}
		l.tr.Insert(p, p, u)
	}
	return l
}

// SetMaxSnapDist limits how far a point may be from its snapped node.
func (l *Locator) SetMaxSnapDist(d float64) {
	l.maxSnapDist = d
}

// Nearest returns the slot closest to pt and the distance to it. Among nodes
// at the same distance the lowest slot wins.
func (l *Locator) Nearest(pt orb.Point) (uint32, float64, error) {
	if l.g.NumNodes == 0 {
		return 0, 0, ErrEmptyGraph
	}

	target := [2]float64{pt[0], pt[1]}
	best := uint32(math.MaxUint32)
	bestSq := math.Inf(1)

	// BoxDist yields squared distances, ordered ascending.
	l.tr.Nearby(
		rtree.BoxDist[float64, uint32](target, target, nil),
		func(_, _ [2]float64, u uint32, distSq float64) bool {
			if distSq > bestSq {
				return false
			}
			if distSq < bestSq || u < best {
				best = u
				bestSq = distSq
			}
			return true
		},
	)

	dist := math.Sqrt(bestSq)
	if dist > l.maxSnapDist {
		return 0, dist, ErrPointTooFar
	}
	return best, dist, nil
}
