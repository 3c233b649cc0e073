package roadmap

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrUnknownNode is returned when a node id does not name a roadmap node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode is returned when two raw records share an id.
	ErrDuplicateNode = errors.New("duplicate node id")
)

// NodeID is the external, user-facing identity of a roadmap node.
type NodeID int64

// Graph is an immutable undirected roadmap stored in CSR (Compressed Sparse
// Row) format. Nodes live in contiguous arrays indexed by a dense slot; the
// external NodeID of slot i is IDs[i].
type Graph struct {
	NumNodes uint32
	NumLinks uint32      // directed adjacency entries; an undirected edge counts twice
	IDs      []NodeID    // len: NumNodes
	Pos      []orb.Point // len: NumNodes
	FirstOut []uint32    // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are links from slot i
	Head     []uint32    // len: NumLinks; neighbor slot for each link

	index map[NodeID]uint32
}

// Index returns the slot of the node with the given id.
func (g *Graph) Index(id NodeID) (uint32, bool) {
	u, ok := g.index[id]
	return u, ok
}

// Neighbors returns the neighbor slots of u. The slice aliases the graph and
// must not be modified.
func (g *Graph) Neighbors(u uint32) []uint32 {
	return g.Head[g.FirstOut[u]:g.FirstOut[u+1]]
}

// LinksFrom returns the range of link indices originating from slot u.
func (g *Graph) LinksFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// Dist returns the straight-line distance between two slots. It is both the
// weight of a link and the admissible heuristic between any two nodes.
func (g *Graph) Dist(u, v uint32) float64 {
	return planar.Distance(g.Pos[u], g.Pos[v])
}

// MaxID returns the largest node id, or -1 for an empty graph.
func (g *Graph) MaxID() NodeID {
	maxID := NodeID(-1)
	for _, id := range g.IDs {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

func (g *Graph) buildIndex() error {
	g.index = make(map[NodeID]uint32, g.NumNodes)
	for i, id := range g.IDs {
		if _, dup := g.index[id]; dup {
			return ErrDuplicateNode
		}
		g.index[id] = uint32(i)
	}
	return nil
}
