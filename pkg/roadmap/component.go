package roadmap

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // byte is sufficient; rank stays below ~30 on real roadmaps
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := uint32(0); i < n; i++ {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Components returns a union-find over the graph's connected components.
// Links are treated as undirected even if an input list is asymmetric.
func Components(g *Graph) *UnionFind {
	uf := NewUnionFind(g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		for _, v := range g.Neighbors(u) {
			uf.Union(u, v)
		}
	}
	return uf
}

// LargestComponent returns the slots belonging to the largest connected
// component. Ties go to the component containing the lowest slot.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := Components(g)

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}

	return nodes
}

// FilterToComponent creates a new graph containing only the specified slots
// and the links between them. Node ids are preserved.
func FilterToComponent(g *Graph, nodes []uint32) (*Graph, error) {
	keep := make(map[uint32]struct{}, len(nodes))
	for _, u := range nodes {
		keep[u] = struct{}{}
	}

	raw := make([]RawNode, 0, len(nodes))
	for _, u := range nodes {
		var nbs []NodeID
		for _, v := range g.Neighbors(u) {
			if _, ok := keep[v]; ok {
				nbs = append(nbs, g.IDs[v])
			}
		}
		raw = append(raw, RawNode{ID: g.IDs[u], X: g.Pos[u][0], Y: g.Pos[u][1], Neighbors: nbs})
	}

	return Build(raw)
}
