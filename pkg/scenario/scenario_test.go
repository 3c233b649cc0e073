package scenario

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/goal_allocator/pkg/oracle"
	"github.com/azybler/goal_allocator/pkg/roadmap"
)

// lineGraphYAML is a 5-node line 0-1-2-3-4 with unit spacing. Node 2 lists
// its neighbors as quoted strings.
const lineGraphYAML = `
0:
  pos: {x: 0, y: 0}
  neigh: [1]
1:
  pos: {x: 1, y: 0}
  neigh: [0, 2]
2:
  pos: {x: 2, y: 0}
  neigh: ['1', '3']
3:
  pos: {x: 3, y: 0}
  neigh: [2, 4]
4:
  pos: {x: 4, y: 0}
  neigh: [3]
`

func lineGraph(t *testing.T) *roadmap.Graph {
	t.Helper()
	nodes, err := ParseGraphYAML(strings.NewReader(lineGraphYAML))
	require.NoError(t, err)
	g, err := roadmap.Build(nodes)
	require.NoError(t, err)
	return g
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseGraphYAML(t *testing.T) {
	nodes, err := ParseGraphYAML(strings.NewReader(lineGraphYAML))
	require.NoError(t, err)
	require.Len(t, nodes, 5)

	assert.Equal(t, roadmap.RawNode{ID: 2, X: 2, Y: 0, Neighbors: []roadmap.NodeID{1, 3}}, nodes[2])
	assert.Equal(t, []roadmap.NodeID{3}, nodes[4].Neighbors)
}

func TestParseGraphYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad key", "abc:\n  pos: {x: 0, y: 0}\n", "bad node id"},
		{"bad neighbor", "0:\n  pos: {x: 0, y: 0}\n  neigh: [x1]\n", "bad node id"},
		{"sequence root", "- 1\n- 2\n", "not a mapping"},
		{"bad position", "0:\n  pos: {x: east, y: 0}\n", "node 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGraphYAML(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseGraphYAMLEmpty(t *testing.T) {
	nodes, err := ParseGraphYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestWriteGraphYAMLRoundTrip(t *testing.T) {
	g := lineGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteGraphYAML(&buf, g))
	assert.True(t, strings.HasPrefix(buf.String(), "0:\n  pos: {x: 0, y: 0}\n  neigh: [1]\n"), buf.String())

	nodes, err := ParseGraphYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Raw(), nodes)
}

func TestParseProblemKeepsOrder(t *testing.T) {
	doc := `
zeta:
  v: 4
  g: '3'
alpha:
  v: '0'
  g: 1
mid:
  v_pos: {x: 2.2, y: 0.1}
  g: 2
`
	agents, err := ParseProblem(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, agents, 3)

	assert.Equal(t, "zeta", agents[0].Name)
	assert.Equal(t, Endpoint{ID: 4}, agents[0].Start)
	assert.Equal(t, Endpoint{ID: 3}, agents[0].Goal)
	assert.Equal(t, "alpha", agents[1].Name)
	assert.Equal(t, "mid", agents[2].Name)
	require.NotNil(t, agents[2].Start.Pos)
	assert.Equal(t, orb.Point{2.2, 0.1}, *agents[2].Start.Pos)
}

func TestParseProblemErrors(t *testing.T) {
	_, err := ParseProblem(strings.NewReader("a:\n  v: 1\n"))
	assert.ErrorIs(t, err, ErrMissingEndpoint)

	_, err = ParseProblem(strings.NewReader("a:\n  v: 1\n  g: 2\na:\n  v: 2\n  g: 1\n"))
	assert.ErrorIs(t, err, ErrDuplicateAgent)

	_, err = ParseProblem(strings.NewReader("a:\n  v: one\n  g: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `agent "a"`)
}

func TestWriteAssignment(t *testing.T) {
	a := &Assignment{Agents: []AgentAssignment{
		{Name: "agent_b", Start: 4, Goal: 3},
		{Name: "agent_a", Start: 0, Goal: 1},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteAssignment(&buf, a))
	want := "agent_b:\n  v: '4'\n  g: '3'\nagent_a:\n  v: '0'\n  g: '1'\n"
	assert.Equal(t, want, buf.String())

	// The output reads back as a problem.
	agents, err := ParseProblem(&buf)
	require.NoError(t, err)
	assert.Equal(t, Endpoint{ID: 3}, agents[0].Goal)
}

func TestSolverSolve(t *testing.T) {
	s := NewSolver(lineGraph(t))
	agents := []AgentSpec{
		{Name: "a", Start: Endpoint{ID: 0}, Goal: Endpoint{ID: 3}},
		{Name: "b", Start: Endpoint{ID: 4}, Goal: Endpoint{ID: 1}},
	}

	out, err := s.Solve(context.Background(), agents)
	require.NoError(t, err)

	assert.Equal(t, []AgentAssignment{
		{Name: "a", Start: 0, Goal: 1, Cost: 1},
		{Name: "b", Start: 4, Goal: 3, Cost: 1},
	}, out.Agents)
	assert.InDelta(t, 1.0, out.Makespan, 1e-12)
	assert.InDelta(t, 2.0, out.Cost, 1e-12)
}

func TestSolverSnapsPositions(t *testing.T) {
	s := NewSolver(lineGraph(t))
	agents := []AgentSpec{
		{Name: "a", Start: Endpoint{Pos: &orb.Point{0.2, 0.3}}, Goal: Endpoint{Pos: &orb.Point{3.9, -0.2}}},
	}

	out, err := s.Solve(context.Background(), agents)
	require.NoError(t, err)
	assert.Equal(t, roadmap.NodeID(0), out.Agents[0].Start)
	assert.Equal(t, roadmap.NodeID(4), out.Agents[0].Goal)
	assert.InDelta(t, 4.0, out.Cost, 1e-12)
}

func TestSolverErrors(t *testing.T) {
	s := NewSolver(lineGraph(t))
	s.Locator.SetMaxSnapDist(1)

	_, err := s.Solve(context.Background(), []AgentSpec{
		{Name: "a", Start: Endpoint{ID: 0}, Goal: Endpoint{ID: 42}},
	})
	assert.ErrorIs(t, err, roadmap.ErrUnknownNode)
	assert.Contains(t, err.Error(), `agent "a" goal`)

	_, err = s.Solve(context.Background(), []AgentSpec{
		{Name: "a", Start: Endpoint{Pos: &orb.Point{0, 50}}, Goal: Endpoint{ID: 1}},
	})
	assert.ErrorIs(t, err, roadmap.ErrPointTooFar)
}

func TestSolverUnreachable(t *testing.T) {
	doc := lineGraphYAML + "9:\n  pos: {x: 9, y: 9}\n  neigh: []\n"
	nodes, err := ParseGraphYAML(strings.NewReader(doc))
	require.NoError(t, err)
	g, err := roadmap.Build(nodes)
	require.NoError(t, err)

	_, err = NewSolver(g).Solve(context.Background(), []AgentSpec{
		{Name: "a", Start: Endpoint{ID: 0}, Goal: Endpoint{ID: 9}},
	})
	var ue *oracle.UnreachableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, roadmap.NodeID(9), ue.Goal)
}

func TestLoadGraph(t *testing.T) {
	ctx := context.Background()

	yamlPath := writeFile(t, "line.yaml", lineGraphYAML)
	g, err := LoadGraph(ctx, yamlPath)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), g.NumNodes)
	assert.Equal(t, uint32(8), g.NumLinks)

	binPath := filepath.Join(t.TempDir(), "line.bin")
	require.NoError(t, roadmap.WriteBinary(binPath, g))
	cached, err := LoadGraph(ctx, binPath)
	require.NoError(t, err)
	assert.Equal(t, g.Raw(), cached.Raw())

	_, err = LoadGraph(ctx, writeFile(t, "line.txt", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadGraph(ctx, writeFile(t, "bad.yml", "0:\n  pos: {x: 0, y: 0}\n  neigh: [7]\n"))
	assert.ErrorIs(t, err, roadmap.ErrUnknownNode)
}

func TestReadProblemAndWriteFile(t *testing.T) {
	path := writeFile(t, "problem.yaml", "r1:\n  v: 0\n  g: 4\nr2:\n  v: 4\n  g: 0\n")
	agents, err := ReadProblem(path)
	require.NoError(t, err)

	out, err := NewSolver(lineGraph(t)).Solve(context.Background(), agents)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Makespan)

	outPath := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, WriteAssignmentFile(outPath, out))
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "r1:\n  v: '0'\n  g: '0'\nr2:\n  v: '4'\n  g: '4'\n", string(data))

	_, err = ReadProblem(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
