package matching

import "math"

// Assignment is a perfect matching with its total cost.
type Assignment struct {
	GoalOf []int // GoalOf[s] is the goal index matched to start s
	Cost   float64
}

// Refine computes a minimum-cost perfect matching over every enabled edge
// (the bottleneck search edges plus the collected ones) using successive
// shortest paths with node potentials. The incremental mates are discarded.
//
// Each phase runs a dense Dijkstra from all free starts over reduced costs.
// Ties are settled by distance, then goals before starts, then lower index,
// so the chosen matching is reproducible.
func (e *Engine) Refine() (Assignment, error) {
	if e.state == Searching {
		return Assignment{}, ErrWrongState
	}

	n := e.n
	mateStart := make([]int, n)
	mateGoal := make([]int, n)
	for i := 0; i < n; i++ {
		mateStart[i] = NIL
		mateGoal[i] = NIL
	}

	potStart := make([]float64, n)
	potGoal := make([]float64, n)

	distStart := make([]float64, n)
	distGoal := make([]float64, n)
	doneStart := make([]bool, n)
	doneGoal := make([]bool, n)
	prevGoal := make([]int, n) // start that reached the goal

	for phase := 0; phase < n; phase++ {
		for i := 0; i < n; i++ {
			distStart[i] = math.Inf(1)
			distGoal[i] = math.Inf(1)
			doneStart[i] = false
			doneGoal[i] = false
			prevGoal[i] = NIL
			if mateStart[i] == NIL {
				distStart[i] = 0
			}
		}

		target := NIL
		for target == NIL {
			// Pick the closest unsettled node.
			bestGoal, bestStart := NIL, NIL
			for g := 0; g < n; g++ {
				if !doneGoal[g] && (bestGoal == NIL || distGoal[g] < distGoal[bestGoal]) {
					bestGoal = g
				}
			}
			for s := 0; s < n; s++ {
				if !doneStart[s] && (bestStart == NIL || distStart[s] < distStart[bestStart]) {
					bestStart = s
				}
			}

			goalFirst := bestGoal != NIL && (bestStart == NIL || distGoal[bestGoal] <= distStart[bestStart])
			switch {
			case goalFirst && !math.IsInf(distGoal[bestGoal], 1):
				g := bestGoal
				doneGoal[g] = true
				s := mateGoal[g]
				if s == NIL {
					target = g
					break
				}
				// Matched edges are tight: reduced cost of g -> s is zero.
				nd := distGoal[g] - e.cost[s*n+g] + potGoal[g] - potStart[s]
				if nd < distStart[s] {
					distStart[s] = nd
				}
			case !goalFirst && bestStart != NIL && !math.IsInf(distStart[bestStart], 1):
				s := bestStart
				doneStart[s] = true
				for _, g := range e.adj[s] {
					if doneGoal[g] || mateStart[s] == g {
						continue
					}
					nd := distStart[s] + e.cost[s*n+g] + potStart[s] - potGoal[g]
					if nd < distGoal[g] {
						distGoal[g] = nd
						prevGoal[g] = s
					}
				}
			default:
				return Assignment{}, ErrNoPerfectMatching
			}
		}

		// Keep reduced costs non-negative for the next phase.
		limit := distGoal[target]
		for i := 0; i < n; i++ {
			potStart[i] += math.Min(distStart[i], limit)
			potGoal[i] += math.Min(distGoal[i], limit)
		}

		// Flip the path back to its free start.
		g := target
		for g != NIL {
			s := prevGoal[g]
			prev := mateStart[s]
			mateStart[s] = g
			mateGoal[g] = s
			g = prev
		}
	}

	var total float64
	for s, g := range mateStart {
		total += e.cost[s*n+g]
	}
	return Assignment{GoalOf: mateStart, Cost: total}, nil
}
