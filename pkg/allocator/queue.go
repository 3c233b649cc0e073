package allocator

import (
	"container/heap"

	"github.com/azybler/goal_allocator/pkg/roadmap"
)

// Candidate is one (start, goal) pair waiting to be matched. Heuristic is
// the straight-line distance; Exact is filled in once by the oracle and is
// never below Heuristic.
type Candidate struct {
	StartIndex int
	GoalIndex  int
	Start      roadmap.NodeID
	Goal       roadmap.NodeID
	Evaluated  bool
	Heuristic  float64
	Exact      float64
}

// Key returns the distance the candidate is ordered by.
func (c *Candidate) Key() float64 {
	if c.Evaluated {
		return c.Exact
	}
	return c.Heuristic
}

func (c *Candidate) less(o *Candidate) bool {
	if a, b := c.Key(), o.Key(); a != b {
		return a < b
	}
	if c.StartIndex != o.StartIndex {
		return c.StartIndex < o.StartIndex
	}
	if c.Goal != o.Goal {
		return c.Goal < o.Goal
	}
	return c.GoalIndex < o.GoalIndex
}

// candidateQueue is a min-heap of candidates. Keys only grow (heuristic to
// exact), so an evaluated candidate is popped and pushed back rather than
// fixed in place.
type candidateQueue []*Candidate

func (q candidateQueue) Len() int           { return len(q) }
func (q candidateQueue) Less(i, j int) bool { return q[i].less(q[j]) }
func (q candidateQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *candidateQueue) Push(x any) {
	*q = append(*q, x.(*Candidate))
}

func (q *candidateQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return c
}

func newCandidateQueue(cands []*Candidate) *candidateQueue {
	q := candidateQueue(cands)
	heap.Init(&q)
	return &q
}

func (q *candidateQueue) popMin() *Candidate {
	return heap.Pop(q).(*Candidate)
}

func (q *candidateQueue) reinsert(c *Candidate) {
	heap.Push(q, c)
}
