package matching

import (
	"context"

	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/gitrdm/homatch/internal/parallel"
	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// MatchingChallenge is a set of pattern/expression constraints to be solved
// simultaneously. Its solutions are substitutions of the metavariables in the
// patterns that make every pattern match its expression.
//
// Solving is lazy and memoized: the first query of Solutions, IsSolvable or
// NumSolutions runs the search. Adding a constraint invalidates the cached
// result. A MatchingChallenge is not safe for concurrent use.
type MatchingChallenge struct {
	cfg           *Config
	challengeList *ConstraintList
	solutions     []*ConstraintList
	solved        bool
	solvable      bool
}

// NewMatchingChallenge creates an empty challenge.
func NewMatchingChallenge(opts ...Option) *MatchingChallenge {
	return &MatchingChallenge{
		cfg:           newConfig(opts),
		challengeList: NewConstraintList(),
	}
}

// NewMatchingChallengeFromPairs creates a challenge from pattern/expression
// pairs. Every invalid pair is reported.
func NewMatchingChallengeFromPairs(pairs [][2]expr.Expression, opts ...Option) (*MatchingChallenge, error) {
	mc := NewMatchingChallenge(opts...)
	var reterr error
	for i, p := range pairs {
		if err := mc.AddConstraint(p[0], p[1]); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "constraint %d", i))
		}
	}
	if reterr != nil {
		return nil, reterr
	}
	return mc, nil
}

// AddConstraint requires pattern to match expression. The expression must
// not contain metavariables.
//
// Solving never consumes the challenge list, so a constraint added after a
// solve is matched together with all earlier ones on the next query.
func (mc *MatchingChallenge) AddConstraint(pattern, expression expr.Expression) error {
	if pattern == nil || expression == nil {
		return errwrap.Wrapf(ErrInvalidArgument, "constraint needs a pattern and an expression")
	}
	if expr.ContainsMetavariable(expression) {
		return errwrap.Wrapf(ErrInvalidArgument, "expression %v contains a metavariable", expression)
	}
	c := NewConstraint(pattern, expression)
	mc.challengeList.Add(c)
	mc.invalidate()
	mc.cfg.Logger.Debug("constraint added", zap.Stringer("constraint", c), zap.Stringer("case", c.Case()))
	return nil
}

func (mc *MatchingChallenge) invalidate() {
	mc.solved, mc.solvable, mc.solutions = false, false, nil
}

// ChallengeList returns a copy of the constraints of the challenge.
func (mc *MatchingChallenge) ChallengeList() *ConstraintList {
	return mc.challengeList.Clone()
}

// Monitor returns the monitor collecting this challenge's search statistics.
func (mc *MatchingChallenge) Monitor() *SearchMonitor { return mc.cfg.Monitor }

func (mc *MatchingChallenge) root() *branch {
	return &branch{list: mc.challengeList.Clone(), solution: NewConstraintList()}
}

// Stream returns a lazy stream over the solutions. It does not touch the
// memoized result.
func (mc *MatchingChallenge) Stream(ctx context.Context) *SolutionStream {
	return newSolutionStream(ctx, mc.cfg, mc.root())
}

// Solve runs the search unless a result is already cached. An error means
// the search was interrupted, by ctx or by malformed input, and leaves the
// challenge unsolved. Finding no match is not an error.
func (mc *MatchingChallenge) Solve(ctx context.Context) error {
	if mc.solved {
		return nil
	}
	sols, err := mc.Stream(ctx).Collect()
	if err != nil {
		return errwrap.Wrapf(err, "search interrupted")
	}
	mc.store(sols)
	return nil
}

// SolveParallel is Solve with the branches of the first EFA branch point
// explored concurrently. The solutions come out in the same order as Solve's.
func (mc *MatchingChallenge) SolveParallel(ctx context.Context) error {
	if mc.solved {
		return nil
	}
	sols, err := mc.solveParallel(ctx)
	if err != nil {
		return errwrap.Wrapf(err, "search interrupted")
	}
	mc.store(sols)
	return nil
}

func (mc *MatchingChallenge) solveParallel(ctx context.Context) ([]*ConstraintList, error) {
	s := newSolutionStream(ctx, mc.cfg, nil)
	root := mc.root()
	children, leaf, err := s.run(root)
	switch {
	case err != nil:
		return nil, err
	case leaf:
		if sol, ok := s.finish(root); ok {
			return []*ConstraintList{sol}, nil
		}
		return nil, nil
	case len(children) == 0:
		return nil, nil
	}

	pool := parallel.NewWorkerPool(mc.cfg.Workers)
	defer pool.Shutdown()
	results, err := parallel.Map(ctx, pool, children, func(ctx context.Context, child *branch) ([]*ConstraintList, error) {
		return newSolutionStream(ctx, mc.cfg, child).Collect()
	})
	if err != nil {
		return nil, err
	}
	return lo.Flatten(results), nil
}

func (mc *MatchingChallenge) store(sols []*ConstraintList) {
	mc.solutions, mc.solvable, mc.solved = sols, len(sols) > 0, true
	mc.cfg.Logger.Debug("challenge solved", zap.Int("solutions", len(sols)))
}

func (mc *MatchingChallenge) ensureSolved() {
	if err := mc.Solve(context.Background()); err != nil {
		mc.cfg.Logger.Error("solve failed", zap.Error(err))
	}
}

// Solutions returns every solution. Each is a ConstraintList of
// substitutions for which IsFunction holds.
func (mc *MatchingChallenge) Solutions() []*ConstraintList {
	mc.ensureSolved()
	return lo.Map(mc.solutions, func(s *ConstraintList, _ int) *ConstraintList { return s.Clone() })
}

// IsSolvable reports whether the challenge has at least one solution.
func (mc *MatchingChallenge) IsSolvable() bool {
	mc.ensureSolved()
	return mc.solvable
}

// NumSolutions returns the number of solutions.
func (mc *MatchingChallenge) NumSolutions() int {
	mc.ensureSolved()
	return len(mc.solutions)
}

// Clone returns an independent copy, cached result included. The
// configuration is shared.
func (mc *MatchingChallenge) Clone() *MatchingChallenge {
	return &MatchingChallenge{
		cfg:           mc.cfg,
		challengeList: mc.challengeList.Clone(),
		solutions:     lo.Map(mc.solutions, func(s *ConstraintList, _ int) *ConstraintList { return s.Clone() }),
		solved:        mc.solved,
		solvable:      mc.solvable,
	}
}

// String renders the pending constraints.
func (mc *MatchingChallenge) String() string {
	return mc.challengeList.String()
}
