package scenario

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/azybler/goal_allocator/pkg/allocator"
	"github.com/azybler/goal_allocator/pkg/roadmap"
)

// AgentAssignment is the goal chosen for one agent.
type AgentAssignment struct {
	Name  string
	Start roadmap.NodeID
	Goal  roadmap.NodeID
	Cost  float64
}

// Assignment is the solved problem, agents in input order.
type Assignment struct {
	Agents   []AgentAssignment
	Makespan float64
	Cost     float64
	Stats    allocator.Stats
}

// Solver resolves agent endpoints against a roadmap and runs the
// allocator. It only reads the roadmap and may be shared by goroutines.
type Solver struct {
	Graph   *roadmap.Graph
	Locator *roadmap.Locator
	Logger  logrus.FieldLogger
}

// NewSolver creates a solver with a locator over g.
func NewSolver(g *roadmap.Graph) *Solver {
	return &Solver{
		Graph:   g,
		Locator: roadmap.NewLocator(g),
		Logger:  logrus.StandardLogger(),
	}
}

func (s *Solver) resolve(ep Endpoint) (roadmap.NodeID, error) {
	if ep.Pos == nil {
		if _, ok := s.Graph.Index(ep.ID); !ok {
			return 0, fmt.Errorf("node %d: %w", ep.ID, roadmap.ErrUnknownNode)
		}
		return ep.ID, nil
	}
	u, _, err := s.Locator.Nearest(*ep.Pos)
	if err != nil {
		return 0, fmt.Errorf("position (%g, %g): %w", ep.Pos[0], ep.Pos[1], err)
	}
	return s.Graph.IDs[u], nil
}

// Solve assigns every agent a goal from the set of all agents' goals.
func (s *Solver) Solve(ctx context.Context, agents []AgentSpec) (*Assignment, error) {
	starts := make([]roadmap.NodeID, len(agents))
	goals := make([]roadmap.NodeID, len(agents))
	for i, ag := range agents {
		var err error
		if starts[i], err = s.resolve(ag.Start); err != nil {
			return nil, fmt.Errorf("agent %q start: %w", ag.Name, err)
		}
		if goals[i], err = s.resolve(ag.Goal); err != nil {
			return nil, fmt.Errorf("agent %q goal: %w", ag.Name, err)
		}
	}

	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	a, err := allocator.New(s.Graph, starts, goals, allocator.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	res, err := a.Assign(ctx)
	if err != nil {
		return nil, err
	}

	out := &Assignment{
		Agents:   make([]AgentAssignment, len(agents)),
		Makespan: res.Makespan,
		Cost:     res.Cost,
		Stats:    res.Stats,
	}
	for i, ag := range agents {
		out.Agents[i] = AgentAssignment{
			Name:  ag.Name,
			Start: starts[i],
			Goal:  res.Goals[i],
			Cost:  res.Costs[i],
		}
	}
	return out, nil
}
