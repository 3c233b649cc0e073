// Package allocator assigns n agents at start nodes to n goal nodes so that
// the longest travel distance (makespan) is minimal and, among assignments
// with that makespan, the total distance is minimal.
//
// Distances are evaluated lazily: every pair starts keyed by its
// straight-line distance and only pairs that reach the front of the
// candidate queue are resolved to exact roadmap distances.
package allocator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/azybler/goal_allocator/pkg/matching"
	"github.com/azybler/goal_allocator/pkg/oracle"
	"github.com/azybler/goal_allocator/pkg/roadmap"
)

// ErrCardinality is returned when the start and goal counts differ.
var ErrCardinality = errors.New("number of starts and goals differ")

// ctxCheckInterval is how many queue pops happen between context checks.
const ctxCheckInterval = 1024

// Stats counts the work done by one Assign call.
type Stats struct {
	Popped    int // candidates taken from the queue
	Evaluated int // exact distance queries
	Expanded  int // roadmap nodes settled by the oracle
	Collected int // edges within the makespan added after the bottleneck
}

// Result is the outcome of an assignment. Goals[i] and GoalIndex[i] belong
// to the agent at starts[i].
type Result struct {
	Goals     []roadmap.NodeID
	GoalIndex []int
	Costs     []float64 // per-agent exact distance
	Cost      float64
	Makespan  float64
	Stats     Stats
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sets the logger used for debug progress output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Allocator) { a.log = l }
}

// Allocator holds one problem instance. Each Assign call owns its search
// state, so an Allocator may be reused but not shared between goroutines
// during a call.
type Allocator struct {
	g      *roadmap.Graph
	starts []uint32
	goals  []uint32
	log    logrus.FieldLogger
}

// New validates the instance and resolves node ids to roadmap slots.
func New(g *roadmap.Graph, starts, goals []roadmap.NodeID, opts ...Option) (*Allocator, error) {
	if len(starts) != len(goals) {
		return nil, fmt.Errorf("%w: %d starts, %d goals", ErrCardinality, len(starts), len(goals))
	}

	a := &Allocator{
		g:      g,
		starts: make([]uint32, len(starts)),
		goals:  make([]uint32, len(goals)),
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	for i, id := range starts {
		u, ok := g.Index(id)
		if !ok {
			return nil, fmt.Errorf("start of agent %d: node %d: %w", i, id, roadmap.ErrUnknownNode)
		}
		a.starts[i] = u
	}
	for i, id := range goals {
		u, ok := g.Index(id)
		if !ok {
			return nil, fmt.Errorf("goal %d: node %d: %w", i, id, roadmap.ErrUnknownNode)
		}
		a.goals[i] = u
	}
	return a, nil
}

// Assign computes the assignment. An unreachable pair that has to be
// evaluated aborts the run with an *oracle.UnreachableError.
func (a *Allocator) Assign(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(a.starts)
	if n == 0 {
		return &Result{Goals: []roadmap.NodeID{}, GoalIndex: []int{}, Costs: []float64{}}, nil
	}

	orc := oracle.New(a.g, a.starts)
	eng := matching.NewEngine(n)

	cands := make([]*Candidate, 0, n*n)
	for i, s := range a.starts {
		for j, t := range a.goals {
			cands = append(cands, &Candidate{
				StartIndex: i,
				GoalIndex:  j,
				Start:      a.g.IDs[s],
				Goal:       a.g.IDs[t],
				Heuristic:  a.g.Dist(s, t),
			})
		}
	}
	q := newCandidateQueue(cands)

	var stats Stats
	for q.Len() > 0 && eng.State() != matching.Done {
		stats.Popped++
		if stats.Popped%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		c := q.popMin()
		if !c.Evaluated {
			d, err := orc.ExactDistance(c.StartIndex, a.goals[c.GoalIndex])
			if err != nil {
				return nil, err
			}
			c.Exact = d
			c.Evaluated = true
			stats.Evaluated++
			q.reinsert(c)
			continue
		}

		edge := matching.Edge{Start: c.StartIndex, Goal: c.GoalIndex, Cost: c.Exact}
		switch eng.State() {
		case matching.Searching:
			if _, err := eng.AddIncremental(edge); err != nil {
				return nil, err
			}
			if eng.State() == matching.Collecting {
				a.log.WithFields(logrus.Fields{
					"makespan":  eng.Makespan(),
					"popped":    stats.Popped,
					"evaluated": stats.Evaluated,
				}).Debug("bottleneck found")
			}
		case matching.Collecting:
			if _, err := eng.Collect(edge); err != nil {
				return nil, err
			}
		}
	}

	if eng.State() == matching.Searching {
		// Every pair is evaluated and the bipartite graph is complete.
		return nil, fmt.Errorf("queue exhausted with %d of %d matched: %w", eng.Matched(), n, matching.ErrNoPerfectMatching)
	}

	asg, err := eng.Refine()
	if err != nil {
		return nil, err
	}

	stats.Expanded = orc.Expanded()
	stats.Collected = eng.Collected()

	res := &Result{
		Goals:     make([]roadmap.NodeID, n),
		GoalIndex: asg.GoalOf,
		Costs:     make([]float64, n),
		Cost:      asg.Cost,
		Makespan:  eng.Makespan(),
		Stats:     stats,
	}
	for i, j := range asg.GoalOf {
		res.Goals[i] = a.g.IDs[a.goals[j]]
		d, err := orc.ExactDistance(i, a.goals[j])
		if err != nil {
			return nil, err
		}
		res.Costs[i] = d
	}

	a.log.WithFields(logrus.Fields{
		"agents":    n,
		"makespan":  res.Makespan,
		"cost":      res.Cost,
		"popped":    stats.Popped,
		"evaluated": stats.Evaluated,
		"expanded":  stats.Expanded,
		"collected": stats.Collected,
	}).Debug("assignment complete")

	return res, nil
}
