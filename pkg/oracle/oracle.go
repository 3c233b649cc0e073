// Package oracle answers exact roadmap distance queries from a fixed set of
// start nodes. Each start owns one resumable Dijkstra search: a query only
// advances the search as far as needed to settle the requested goal, and
// later queries from the same start continue where the previous one stopped.
package oracle

import (
	"errors"
	"fmt"
	"math"

	"github.com/azybler/goal_allocator/pkg/roadmap"
)

// ErrUnreachable is matched (via errors.Is) by every *UnreachableError.
var ErrUnreachable = errors.New("goal unreachable")

// UnreachableError reports a start whose search exhausted its frontier
// without settling the requested goal.
type UnreachableError struct {
	StartIndex int
	Start      roadmap.NodeID
	Goal       roadmap.NodeID
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("goal node %d unreachable from start node %d (agent %d)", e.Goal, e.Start, e.StartIndex)
}

func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}

// searchState is the persistent Dijkstra state of one start.
type searchState struct {
	dist    []float64 // best known distance; +Inf = unknown
	settled []bool    // dist is final once set
	pq      MinHeap
	count   int // number of settled nodes
}

func newSearchState(n uint32, source uint32) *searchState {
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	s := &searchState{
		dist:    dist,
		settled: make([]bool, n),
		pq:      MinHeap{items: make([]PQItem, 0, 64)},
	}
	s.dist[source] = 0
	s.pq.Push(source, 0)
	return s
}

// Oracle computes exact shortest-path distances from a fixed list of start
// slots. It is not safe for concurrent use.
type Oracle struct {
	g        *roadmap.Graph
	starts   []uint32
	states   []*searchState // allocated on first query per start
	expanded int
}

// New creates an oracle for the given start slots.
func New(g *roadmap.Graph, starts []uint32) *Oracle {
	return &Oracle{
		g:      g,
		starts: starts,
		states: make([]*searchState, len(starts)),
	}
}

// ExactDistance returns the shortest-path distance from starts[startIndex]
// to goal. Settled distances are answered from the table; otherwise the
// start's search resumes until goal is settled. An *UnreachableError is
// returned if the search runs out of frontier first.
func (o *Oracle) ExactDistance(startIndex int, goal uint32) (float64, error) {
	s := o.states[startIndex]
	if s == nil {
		s = newSearchState(o.g.NumNodes, o.starts[startIndex])
		o.states[startIndex] = s
	}

	if s.settled[goal] {
		return s.dist[goal], nil
	}

	for s.pq.Len() > 0 {
		item := s.pq.Pop()
		u, d := item.Node, item.Dist

		if s.settled[u] || d > s.dist[u] {
			continue // stale entry
		}
		s.settled[u] = true
		s.count++
		o.expanded++

		for _, v := range o.g.Neighbors(u) {
			if s.settled[v] {
				continue
			}
			nd := d + o.g.Dist(u, v)
			if nd < s.dist[v] {
				s.dist[v] = nd
				s.pq.Push(v, nd)
			}
		}

		if u == goal {
			return d, nil
		}
	}

	return 0, &UnreachableError{
		StartIndex: startIndex,
		Start:      o.g.IDs[o.starts[startIndex]],
		Goal:       o.g.IDs[goal],
	}
}

// Expanded returns the total number of nodes settled across all starts.
func (o *Oracle) Expanded() int {
	return o.expanded
}

// Settled returns how many nodes the search of startIndex has settled.
func (o *Oracle) Settled(startIndex int) int {
	if s := o.states[startIndex]; s != nil {
		return s.count
	}
	return 0
}
