package roadmap

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// RawNode is one node record as supplied by a loader: identity, planar
// position and the ids of adjacent nodes.
type RawNode struct {
	ID        NodeID
	X, Y      float64
	Neighbors []NodeID
}

// Build creates a CSR Graph from raw node records. Slots are assigned in
// ascending id order so the layout does not depend on input order. Neighbor
// order within a node is preserved.
func Build(nodes []RawNode) (*Graph, error) {
	if len(nodes) == 0 {
		return &Graph{FirstOut: []uint32{0}, index: map[NodeID]uint32{}}, nil
	}

	// Step 1: Sort records by id and assign dense slots.
	sorted := make([]RawNode, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	numNodes := uint32(len(sorted))
	g := &Graph{
		NumNodes: numNodes,
		IDs:      make([]NodeID, numNodes),
		Pos:      make([]orb.Point, numNodes),
		FirstOut: make([]uint32, numNodes+1),
	}
	for i, n := range sorted {
		g.IDs[i] = n.ID
		g.Pos[i] = orb.Point{n.X, n.Y}
	}
	if err := g.buildIndex(); err != nil {
		return nil, err
	}

	// Step 2: Count links per node, then prefix-sum into FirstOut.
	for i, n := range sorted {
		g.FirstOut[i+1] = uint32(len(n.Neighbors))
	}
	for i := uint32(1); i <= numNodes; i++ {
		g.FirstOut[i] += g.FirstOut[i-1]
	}

	// Step 3: Resolve neighbor ids into slots.
	g.NumLinks = g.FirstOut[numNodes]
	g.Head = make([]uint32, g.NumLinks)
	for i, n := range sorted {
		pos := g.FirstOut[i]
		for _, nb := range n.Neighbors {
			v, ok := g.index[nb]
			if !ok {
				return nil, fmt.Errorf("node %d lists neighbor %d: %w", n.ID, nb, ErrUnknownNode)
			}
			g.Head[pos] = v
			pos++
		}
	}

	return g, nil
}

// Raw converts the graph back into raw node records, in slot order.
func (g *Graph) Raw() []RawNode {
	nodes := make([]RawNode, g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		nbs := g.Neighbors(u)
		ids := make([]NodeID, len(nbs))
		for k, v := range nbs {
			ids[k] = g.IDs[v]
		}
		nodes[u] = RawNode{ID: g.IDs[u], X: g.Pos[u][0], Y: g.Pos[u][1], Neighbors: ids}
	}
	return nodes
}
