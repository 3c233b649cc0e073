// Package matching builds bottleneck-optimal, cost-optimal perfect
// matchings between n starts and n goals.
//
// Edges arrive in non-decreasing cost order. While searching, every edge is
// folded into a maximum matching with a single augmenting-path search; the
// cost of the edge that completes a perfect matching is the bottleneck
// (makespan). After that, every further edge with cost at most the makespan
// is collected, and Refine runs successive shortest paths over the collected
// edges to minimise the total cost.
package matching

import "errors"

// NIL marks an unmatched start or goal.
const NIL = -1

var (
	// ErrWrongState is returned when an operation is invoked in a state that
	// does not allow it.
	ErrWrongState = errors.New("matching: operation not allowed in current state")
	// ErrNoPerfectMatching is returned by Refine when the collected edges do
	// not admit a perfect matching.
	ErrNoPerfectMatching = errors.New("matching: collected edges admit no perfect matching")
)

// State is the phase of an Engine.
type State int

const (
	Searching  State = iota // looking for the bottleneck
	Collecting              // bottleneck known, gathering edges within it
	Done                    // an edge above the bottleneck was seen
)

func (s State) String() string {
	return [...]string{"searching", "collecting", "done"}[s]
}

// Edge is a start/goal pair with its exact travel cost.
type Edge struct {
	Start int
	Goal  int
	Cost  float64
}

// Engine holds the incremental matching state. It is not safe for
// concurrent use.
type Engine struct {
	n     int
	state State

	adj  [][]int   // enabled goals per start, in arrival order
	cost []float64 // n*n, cost[s*n+g] valid once (s, g) is enabled

	mateStart []int
	mateGoal  []int
	matched   int

	makespan  float64
	collected int

	seen  []int // per goal: stamp of the last search that visited it
	stamp int
}

// NewEngine creates an engine for n starts and n goals.
func NewEngine(n int) *Engine {
	e := &Engine{
		n:         n,
		adj:       make([][]int, n),
		cost:      make([]float64, n*n),
		mateStart: make([]int, n),
		mateGoal:  make([]int, n),
		seen:      make([]int, n),
	}
	for i := 0; i < n; i++ {
		e.mateStart[i] = NIL
		e.mateGoal[i] = NIL
	}
	if n == 0 {
		e.state = Collecting
	}
	return e
}

// AddIncremental enables edge ed and tries to grow the matching by one.
// It reports whether an augmenting path was found. When the matching
// becomes perfect the engine moves to Collecting with ed.Cost as makespan.
func (e *Engine) AddIncremental(ed Edge) (bool, error) {
	if e.state != Searching {
		return false, ErrWrongState
	}
	e.enable(ed)

	e.stamp++
	augmented := false
	if e.mateStart[ed.Start] == NIL {
		// A path through a free start must begin there.
		augmented = e.augment(ed.Start)
	} else {
		// The new edge may still complete a path for another free start.
		for s := 0; s < e.n && !augmented; s++ {
			if e.mateStart[s] == NIL {
				augmented = e.augment(s)
			}
		}
	}

	if augmented {
		e.matched++
		if e.matched == e.n {
			e.state = Collecting
			e.makespan = ed.Cost
		}
	}
	return augmented, nil
}

// Collect adds ed to the restricted edge set if its cost is within the
// makespan and reports true. An edge above the makespan moves the engine to
// Done and reports false; no later edge can matter.
func (e *Engine) Collect(ed Edge) (bool, error) {
	if e.state != Collecting {
		return false, ErrWrongState
	}
	if ed.Cost > e.makespan {
		e.state = Done
		return false, nil
	}
	e.enable(ed)
	e.collected++
	return true, nil
}

// augment searches for an alternating path from start s to a free goal and
// flips it. Goals visited under the current stamp are skipped.
func (e *Engine) augment(s int) bool {
	for _, g := range e.adj[s] {
		if e.seen[g] == e.stamp {
			continue
		}
		e.seen[g] = e.stamp
		if e.mateGoal[g] == NIL || e.augment(e.mateGoal[g]) {
			e.mateStart[s] = g
			e.mateGoal[g] = s
			return true
		}
	}
	return false
}

func (e *Engine) enable(ed Edge) {
	e.adj[ed.Start] = append(e.adj[ed.Start], ed.Goal)
	e.cost[ed.Start*e.n+ed.Goal] = ed.Cost
}

// State returns the current phase.
func (e *Engine) State() State { return e.state }

// Matched returns the number of matched pairs.
func (e *Engine) Matched() int { return e.matched }

// Makespan returns the bottleneck cost; zero until the matching is perfect.
func (e *Engine) Makespan() float64 { return e.makespan }

// Collected returns the number of edges accepted by Collect.
func (e *Engine) Collected() int { return e.collected }

// MateOfStart returns the goal currently matched to start s, or NIL.
func (e *Engine) MateOfStart(s int) int { return e.mateStart[s] }

// MateOfGoal returns the start currently matched to goal g, or NIL.
func (e *Engine) MateOfGoal(g int) int { return e.mateGoal[g] }
