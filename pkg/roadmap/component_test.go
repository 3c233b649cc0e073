package roadmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	for i := uint32(0); i < 5; i++ {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}

	assert.True(t, uf.Union(0, 1))
	assert.Equal(t, uf.Find(0), uf.Find(1))

	assert.True(t, uf.Union(2, 3))
	assert.Equal(t, uf.Find(2), uf.Find(3))
	assert.NotEqual(t, uf.Find(0), uf.Find(2))

	assert.True(t, uf.Union(1, 3))
	assert.Equal(t, uf.Find(0), uf.Find(3))
	assert.False(t, uf.Union(0, 2), "already merged")
}

// buildIslands creates a triangle {10, 20, 30} and a separate pair {40, 50}.
func buildIslands(t *testing.T) *Graph {
	t.Helper()
	g, err := Build([]RawNode{
		{ID: 10, X: 0, Y: 0, Neighbors: []NodeID{20, 30}},
		{ID: 20, X: 1, Y: 0, Neighbors: []NodeID{10, 30}},
		{ID: 30, X: 0, Y: 1, Neighbors: []NodeID{10, 20}},
		{ID: 40, X: 5, Y: 5, Neighbors: []NodeID{50}},
		{ID: 50, X: 6, Y: 5, Neighbors: []NodeID{40}},
	})
	require.NoError(t, err)
	return g
}

func TestLargestComponent(t *testing.T) {
	g := buildIslands(t)
	nodes := LargestComponent(g)
	assert.Equal(t, []uint32{0, 1, 2}, nodes)

	uf := Components(g)
	assert.Equal(t, uf.Find(3), uf.Find(4))
	assert.NotEqual(t, uf.Find(0), uf.Find(3))
}

func TestFilterToComponent(t *testing.T) {
	g := buildIslands(t)
	filtered, err := FilterToComponent(g, LargestComponent(g))
	require.NoError(t, err)

	assert.Equal(t, uint32(3), filtered.NumNodes)
	assert.Equal(t, uint32(6), filtered.NumLinks)
	assert.Equal(t, []NodeID{10, 20, 30}, filtered.IDs)
	_, ok := filtered.Index(40)
	assert.False(t, ok)
}

func TestFilterToComponentEmptyGraph(t *testing.T) {
	g, err := Build(nil)
	require.NoError(t, err)

	nodes := LargestComponent(g)
	assert.Nil(t, nodes)

	filtered, err := FilterToComponent(g, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), filtered.NumNodes)
	assert.Equal(t, uint32(0), filtered.NumLinks)
}
