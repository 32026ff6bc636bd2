package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// DefaultNodeLimit bounds the search tree when no limit is configured.
const DefaultNodeLimit = 5_000_000

// ctxCheckInterval is how many nodes are expanded between context checks.
const ctxCheckInterval = 1024

// BranchAndBound is an exact depth-first branch-and-bound backend.
//
// Tasks are branched in order of weight descending, then task index
// ascending. At each node resources are tried in order of current load
// ascending, then resource index ascending, skipping resources whose
// (load, count) pair was already tried at that node since they lead to
// equivalent subtrees. The first incumbent is the LPT greedy schedule.
// Given the same model the search visits the same nodes, so the returned
// assignment is deterministic.
type BranchAndBound struct {
	// NodeLimit caps expanded nodes. When reached the best assignment so far
	// is returned with SolveFeasible.
	NodeLimit int64
}

// NewBranchAndBound creates a backend with the given node limit.
func NewBranchAndBound(nodeLimit int64) *BranchAndBound {
	if nodeLimit <= 0 {
		nodeLimit = DefaultNodeLimit
	}
	return &BranchAndBound{NodeLimit: nodeLimit}
}

// Name returns the backend name.
func (b *BranchAndBound) Name() string {
	return "branch_and_bound"
}

// Solve searches for a minimum-makespan assignment.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("solve aborted before start: %w", err)
	}

	n := m.NumTasks()
	if n == 0 {
		return &Solution{Status: SolveOptimal, Assignment: []int{}}, nil
	}
	if m.Resources <= 0 || m.Capacity <= 0 || m.Capacity*m.Resources < n {
		return &Solution{Status: SolveInfeasible}, nil
	}

	s := newSearch(ctx, m, b.NodeLimit)
	s.greedy()
	if !s.provenOptimal() {
		s.dfs(0, 0)
	}

	status := SolveOptimal
	if s.aborted && !s.provenOptimal() {
		status = SolveFeasible
	}

	return &Solution{
		Status:     status,
		Assignment: s.best,
		Makespan:   s.bestMakespan,
		Nodes:      s.nodes,
	}, nil
}

type search struct {
	ctx       context.Context
	weights   []float64
	order     []int
	k         int
	capacity  int
	nodeLimit int64

	loads  []float64
	counts []int
	assign []int

	best         []int
	bestMakespan float64
	lowerBound   float64

	nodes   int64
	aborted bool
}

func newSearch(ctx context.Context, m *Model, nodeLimit int64) *search {
	n := m.NumTasks()

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return m.Weights[order[i]] > m.Weights[order[j]]
	})

	var total, heaviest float64
	for _, w := range m.Weights {
		total += w
		heaviest = math.Max(heaviest, w)
	}

	return &search{
		ctx:        ctx,
		weights:    m.Weights,
		order:      order,
		k:          m.Resources,
		capacity:   m.Capacity,
		nodeLimit:  nodeLimit,
		loads:      make([]float64, m.Resources),
		counts:     make([]int, m.Resources),
		assign:     make([]int, n),
		lowerBound: math.Max(heaviest, total/float64(m.Resources)),
	}
}

func (s *search) eps() float64 {
	return 1e-9 * math.Max(1, s.bestMakespan)
}

func (s *search) provenOptimal() bool {
	return s.best != nil && s.bestMakespan <= s.lowerBound+s.eps()
}

// greedy builds the LPT incumbent: each task, longest first, goes to the
// least-loaded resource that still has capacity.
func (s *search) greedy() {
	loads := make([]float64, s.k)
	counts := make([]int, s.k)
	assign := make([]int, len(s.weights))

	var makespan float64
	for _, t := range s.order {
		pick := -1
		for r := 0; r < s.k; r++ {
			if counts[r] >= s.capacity {
				continue
			}
			if pick < 0 || loads[r] < loads[pick] {
				pick = r
			}
		}
		assign[t] = pick
		loads[pick] += s.weights[t]
		counts[pick]++
		makespan = math.Max(makespan, loads[pick])
	}

	s.best = assign
	s.bestMakespan = makespan
}

func (s *search) dfs(pos int, current float64) {
	if s.aborted || s.provenOptimal() {
		return
	}

	s.nodes++
	if s.nodes >= s.nodeLimit {
		s.aborted = true
		return
	}
	if s.nodes%ctxCheckInterval == 0 && s.ctx.Err() != nil {
		s.aborted = true
		return
	}

	if pos == len(s.order) {
		if current < s.bestMakespan-s.eps() {
			s.bestMakespan = current
			s.best = append(s.best[:0:0], s.assign...)
		}
		return
	}

	t := s.order[pos]
	w := s.weights[t]

	for _, r := range s.candidates() {
		next := s.loads[r] + w
		if math.Max(current, next) >= s.bestMakespan-s.eps() {
			// candidates are sorted by load, so every later one is at least as bad
			break
		}

		s.loads[r] = next
		s.counts[r]++
		s.assign[t] = r

		s.dfs(pos+1, math.Max(current, next))

		s.loads[r] -= w
		s.counts[r]--

		if s.aborted || s.provenOptimal() {
			return
		}
	}
}

// candidates returns resources with free capacity ordered by load then
// index, dropping resources equivalent to one already listed.
func (s *search) candidates() []int {
	out := make([]int, 0, s.k)
	for r := 0; r < s.k; r++ {
		if s.counts[r] >= s.capacity {
			continue
		}
		dup := false
		for _, c := range out {
			if s.loads[c] == s.loads[r] && s.counts[c] == s.counts[r] {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.loads[out[i]] < s.loads[out[j]]
	})
	return out
}
