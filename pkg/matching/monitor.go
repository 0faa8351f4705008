package matching

// monitor.go: statistics and prometheus counters for the matching search

import (
	"fmt"
	"sync"
	"time"

	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/prometheus/client_golang/prometheus"
)

// Reasons a branch is pruned.
const (
	PruneFailure           = "failure"
	PruneBindingConstraint = "binding_constraint"
	PruneCapture           = "capture"
	PruneDepth             = "depth"
)

// SearchStats holds statistics about a matching search.
type SearchStats struct {
	// Constraints processed, by case
	Failures        int
	Identities      int
	Bindings        int
	Simplifications int
	EFAs            int

	// Branching
	Branches    int // Child branches created at EFA branch points
	Constant    int // Constant subcase branches
	Projections int // Projection subcase branches
	Imitations  int // Imitation subcase branches
	MaxDepth    int // Deepest branch point reached

	// Outcomes
	SolutionsFound          int
	PrunedFailure           int
	PrunedBindingConstraint int
	PrunedCapture           int
	PrunedDepth             int
	SearchTime              time.Duration
}

// ConstraintsProcessed returns the total number of constraints handled.
func (s *SearchStats) ConstraintsProcessed() int {
	return s.Failures + s.Identities + s.Bindings + s.Simplifications + s.EFAs
}

// Pruned returns the total number of dropped branches.
func (s *SearchStats) Pruned() int {
	return s.PrunedFailure + s.PrunedBindingConstraint + s.PrunedCapture + s.PrunedDepth
}

// String returns a formatted string representation of the statistics
func (s *SearchStats) String() string {
	return fmt.Sprintf(
		"Search Statistics:\n"+
			"  Constraints: %d processed (%d failure, %d identity, %d binding, %d simplification, %d efa)\n"+
			"  Branches: %d (%d constant, %d projection, %d imitation), max depth %d\n"+
			"  Outcome: %d solutions, %d pruned (%d failure, %d binding constraint, %d capture, %d depth), %v time",
		s.ConstraintsProcessed(), s.Failures, s.Identities, s.Bindings, s.Simplifications, s.EFAs,
		s.Branches, s.Constant, s.Projections, s.Imitations, s.MaxDepth,
		s.SolutionsFound, s.Pruned(), s.PrunedFailure, s.PrunedBindingConstraint, s.PrunedCapture, s.PrunedDepth,
		s.SearchTime,
	)
}

// SearchMonitor collects SearchStats. It is safe for concurrent use, so
// parallel branches may share one. Once registered, it also feeds
// prometheus counters.
type SearchMonitor struct {
	mu    sync.Mutex
	stats SearchStats

	constraints *prometheus.CounterVec
	branches    *prometheus.CounterVec
	pruned      *prometheus.CounterVec
	solutions   prometheus.Counter
}

// NewSearchMonitor creates a new search monitor
func NewSearchMonitor() *SearchMonitor {
	return &SearchMonitor{}
}

// Register creates the prometheus counters of m and registers them on reg.
func (m *SearchMonitor) Register(reg prometheus.Registerer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	constraints := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homatch_constraints_processed_total",
			Help: "Number of constraints processed by the matching search.",
		},
		// case: failure, identity, binding, simplification, efa
		[]string{"case"},
	)
	branches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homatch_branches_total",
			Help: "Number of branches created at EFA branch points.",
		},
		// subcase: constant, projection, imitation
		[]string{"subcase"},
	)
	pruned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homatch_pruned_total",
			Help: "Number of search branches dropped without a solution.",
		},
		[]string{"reason"},
	)
	solutions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "homatch_solutions_total",
			Help: "Number of solutions produced.",
		},
	)

	var reterr error
	for _, c := range []prometheus.Collector{constraints, branches, pruned, solutions} {
		reterr = errwrap.Append(reterr, reg.Register(c))
	}
	if reterr != nil {
		return errwrap.Wrapf(reterr, "could not register search metrics")
	}
	m.constraints, m.branches, m.pruned, m.solutions = constraints, branches, pruned, solutions
	return nil
}

// Stats returns a copy of the current statistics
func (m *SearchMonitor) Stats() SearchStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// RecordConstraint records processing a constraint of the given case
func (m *SearchMonitor) RecordConstraint(c Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch c {
	case CaseFailure:
		m.stats.Failures++
	case CaseIdentity:
		m.stats.Identities++
	case CaseBinding:
		m.stats.Bindings++
	case CaseSimplification:
		m.stats.Simplifications++
	case CaseEFA:
		m.stats.EFAs++
	}
	if m.constraints != nil {
		m.constraints.WithLabelValues(c.String()).Inc()
	}
}

// RecordBranch records creating a branch for a subcase at depth
func (m *SearchMonitor) RecordBranch(subcase string, depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Branches++
	switch subcase {
	case SubcaseConstant:
		m.stats.Constant++
	case SubcaseProjection:
		m.stats.Projections++
	case SubcaseImitation:
		m.stats.Imitations++
	}
	if depth > m.stats.MaxDepth {
		m.stats.MaxDepth = depth
	}
	if m.branches != nil {
		m.branches.WithLabelValues(subcase).Inc()
	}
}

// RecordPruned records dropping a branch
func (m *SearchMonitor) RecordPruned(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch reason {
	case PruneFailure:
		m.stats.PrunedFailure++
	case PruneBindingConstraint:
		m.stats.PrunedBindingConstraint++
	case PruneCapture:
		m.stats.PrunedCapture++
	case PruneDepth:
		m.stats.PrunedDepth++
	}
	if m.pruned != nil {
		m.pruned.WithLabelValues(reason).Inc()
	}
}

// RecordSolution records producing a solution
func (m *SearchMonitor) RecordSolution() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.SolutionsFound++
	if m.solutions != nil {
		m.solutions.Inc()
	}
}

// RecordSearchTime adds d to the accumulated search time
func (m *SearchMonitor) RecordSearchTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.SearchTime += d
}
