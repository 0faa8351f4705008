package matching

import (
	"context"
	"time"

	"github.com/gitrdm/homatch/pkg/expr"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Subcases of the EFA case split, in the order their branches are explored.
const (
	SubcaseConstant   = "constant"
	SubcaseProjection = "projection"
	SubcaseImitation  = "imitation"
)

// branch is one independent search state. Branches never share mutable
// state: forking clones both lists.
type branch struct {
	list     *ConstraintList   // pending constraints
	solution *ConstraintList   // substitutions committed so far
	frames   []cleanupFrame    // imitation steps above this branch, outermost first
	aligned  []expr.Expression // fresh names shared by aligned plain binders
	depth    int               // number of branch points above this branch
}

// cleanupFrame remembers the temporary metavariables introduced by an
// imitation step, and the constraint list of the branch that introduced
// them, whose binding constraints re-filter the cleaned solutions.
type cleanupFrame struct {
	temps []expr.Expression
	list  *ConstraintList
}

func (b *branch) fork() *branch {
	return &branch{
		list:     b.list.Clone(),
		solution: b.solution.Clone(),
		frames:   b.frames[:len(b.frames):len(b.frames)],
		aligned:  b.aligned[:len(b.aligned):len(b.aligned)],
		depth:    b.depth + 1,
	}
}

// SolutionStream lazily produces the solutions of a MatchingChallenge. It is
// driven by an explicit stack of pending branches and explores them depth
// first, so solutions arrive in the order a recursive search would find
// them: the constant branch, then each projection left to right, then the
// imitation branch.
//
// A stream is finite and cannot be restarted. It is not safe for concurrent
// use.
type SolutionStream struct {
	ctx     context.Context
	cfg     *Config
	log     *zap.Logger
	monitor *SearchMonitor
	stack   []*branch
	err     error
}

func newSolutionStream(ctx context.Context, cfg *Config, root *branch) *SolutionStream {
	s := &SolutionStream{
		ctx:     ctx,
		cfg:     cfg,
		log:     cfg.Logger,
		monitor: cfg.Monitor,
	}
	if root != nil {
		s.stack = []*branch{root}
	}
	return s
}

// Next returns the next solution. The second result is false once the
// stream is exhausted or has failed; check Err to tell which.
func (s *SolutionStream) Next() (*ConstraintList, bool) {
	start := time.Now()
	defer func() { s.monitor.RecordSearchTime(time.Since(start)) }()

	for len(s.stack) > 0 {
		if err := s.ctx.Err(); err != nil {
			s.fail(err)
			return nil, false
		}
		b := s.stack[len(s.stack)-1]
		s.stack[len(s.stack)-1] = nil
		s.stack = s.stack[:len(s.stack)-1]

		children, leaf, err := s.run(b)
		if err != nil {
			s.fail(err)
			return nil, false
		}
		if leaf {
			if sol, ok := s.finish(b); ok {
				return sol, true
			}
			continue
		}
		// reverse, so the first child is popped first
		for i := len(children) - 1; i >= 0; i-- {
			s.stack = append(s.stack, children[i])
		}
	}
	return nil, false
}

// Err returns the error that stopped the stream, if any.
func (s *SolutionStream) Err() error { return s.err }

// Collect drains the stream.
func (s *SolutionStream) Collect() ([]*ConstraintList, error) {
	var out []*ConstraintList
	for {
		sol, ok := s.Next()
		if !ok {
			return out, s.Err()
		}
		out = append(out, sol)
	}
}

func (s *SolutionStream) fail(err error) {
	s.err = err
	s.stack = nil
}

// run processes b until it forks, completes or dies. A completed branch is
// reported as a leaf; a dead one yields neither children nor a leaf.
func (s *SolutionStream) run(b *branch) ([]*branch, bool, error) {
	for {
		if err := s.ctx.Err(); err != nil {
			return nil, false, err
		}
		cur := b.list.BestCase()
		if cur == nil {
			return nil, true, nil
		}
		s.monitor.RecordConstraint(cur.Case())
		s.log.Debug("processing constraint",
			zap.Stringer("case", cur.Case()),
			zap.Stringer("pattern", cur.Pattern()),
			zap.Stringer("expression", cur.Expression()),
			zap.Int("depth", b.depth),
		)

		switch cur.Case() {
		case CaseFailure:
			s.prune(PruneFailure, cur)
			return nil, false, nil

		case CaseIdentity:
			b.list.Remove(cur)

		case CaseBinding:
			b.list.Remove(cur)
			ok, err := s.bind(b, cur)
			if err != nil || !ok {
				return nil, false, err
			}

		case CaseSimplification:
			b.list.Remove(cur)
			pairs, err := s.simplify(b, cur)
			if err != nil {
				return nil, false, err
			}
			b.list.Add(pairs...)

		case CaseEFA:
			if IsExpressionFunction(Function(cur.Pattern())) {
				reduced, err := Normalize(cur.Pattern())
				if err != nil {
					return nil, false, err
				}
				b.list.Remove(cur)
				b.list.Add(cur.WithPattern(reduced))
				continue
			}
			children, err := s.split(b, cur)
			return children, false, err
		}
	}
}

// bind commits the substitution c: it is propagated into every pending
// constraint of b, recorded in the solution, and the binding constraints are
// re-checked. It reports false when the branch dies.
func (s *SolutionStream) bind(b *branch, c *Constraint) (bool, error) {
	if v := b.escaping(c.Expression()); v != nil {
		s.prune(PruneBindingConstraint, c)
		s.log.Debug("binding mentions an aligned bound variable", zap.Stringer("binding", c), zap.Stringer("variable", v))
		return false, nil
	}
	if err := NewConstraintList(c).Instantiate(b.list); err != nil {
		if errors.Is(err, ErrIllegalCapture) {
			s.prune(PruneCapture, c)
			s.log.Debug("binding captures a bound variable", zap.Stringer("binding", c), zap.Error(err))
			return false, nil
		}
		return false, err
	}
	b.solution.Add(c)
	if !b.list.SatisfiesBindingConstraints(b.solution) {
		s.prune(PruneBindingConstraint, c)
		return false, nil
	}
	return true, nil
}

// escaping returns the first aligned variable free in e, or nil. Aligned
// variables are bound on both sides, so no metavariable value may mention
// them.
func (b *branch) escaping(e expr.Expression) expr.Expression {
	for _, v := range b.aligned {
		if expr.VariableIsFree(v, e) {
			return v
		}
	}
	return nil
}

// simplify decomposes c. Two Bindings first get their non-metavariable bound
// variables renamed, pairwise, to shared fresh variables, which are recorded
// on b as aligned.
func (s *SolutionStream) simplify(b *branch, c *Constraint) ([]*Constraint, error) {
	p, e := c.Pattern(), c.Expression()
	if expr.IsBinding(p) && expr.IsBinding(e) {
		pv, ev := p.Variables(), e.Variables()
		for i := range pv {
			if pv[i].IsMetavariable() {
				continue
			}
			fresh := s.fresh(b, p.Language(), p, e)
			var err error
			if p, err = AlphaConvert(p, pv[i], fresh); err != nil {
				return nil, err
			}
			if e, err = AlphaConvert(e, ev[i], fresh); err != nil {
				return nil, err
			}
			b.aligned = append(b.aligned, fresh)
		}
		c = NewConstraint(p, e)
		if c.Case() != CaseSimplification {
			return []*Constraint{c}, nil
		}
	}
	return c.BreakIntoArgPairs()
}

// fresh mints a variable unused by b and by avoid.
func (s *SolutionStream) fresh(b *branch, lang expr.Language, avoid ...expr.Expression) expr.Expression {
	b.list.reserve(avoid...)
	for _, c := range b.solution.contents {
		b.list.reserve(c.pattern, c.expression)
	}
	return b.list.NextNewVariable(lang)
}

// split performs the EFA case split on c and returns the surviving child
// branches in exploration order.
func (s *SolutionStream) split(b *branch, c *Constraint) ([]*branch, error) {
	if s.cfg.MaxDepth > 0 && b.depth+1 > s.cfg.MaxDepth {
		s.log.Warn("search depth limit reached, dropping branch",
			zap.Int("max_depth", s.cfg.MaxDepth),
			zap.Stringer("constraint", c),
		)
		s.prune(PruneDepth, c)
		return nil, nil
	}

	pattern, e := c.Pattern(), c.Expression()
	head, args := Function(pattern), Arguments(pattern)
	lang := pattern.Language()

	var children []*branch
	try := func(subcase string, build func(child *branch, vars []expr.Expression) (expr.Expression, []expr.Expression, error)) error {
		child := b.fork()
		vars := make([]expr.Expression, len(args))
		for i := range vars {
			vars[i] = s.fresh(child, lang, pattern, e)
		}
		value, temps, err := build(child, vars)
		if err != nil {
			return err
		}
		if len(temps) > 0 {
			child.frames = append(child.frames, cleanupFrame{temps: temps, list: child.list})
		}
		s.monitor.RecordBranch(subcase, child.depth)
		s.log.Debug("branching",
			zap.String("subcase", subcase),
			zap.Stringer("metavariable", head),
			zap.Stringer("value", value),
			zap.Int("depth", child.depth),
		)
		ok, err := s.bind(child, NewConstraint(head, value))
		if err != nil {
			return err
		}
		if ok {
			children = append(children, child)
		}
		return nil
	}

	if !expr.IsCompound(e) {
		err := try(SubcaseConstant, func(_ *branch, vars []expr.Expression) (expr.Expression, []expr.Expression, error) {
			v, err := MakeConstantExpression(e, vars...)
			return v, nil, err
		})
		if err != nil {
			return nil, err
		}
	}

	for i := range args {
		err := try(SubcaseProjection, func(_ *branch, vars []expr.Expression) (expr.Expression, []expr.Expression, error) {
			v, err := MakeProjectionExpression(vars, vars[i])
			return v, nil, err
		})
		if err != nil {
			return nil, err
		}
	}

	if expr.IsCompound(e) {
		err := try(SubcaseImitation, func(child *branch, vars []expr.Expression) (expr.Expression, []expr.Expression, error) {
			n := 1
			if expr.IsApplication(e) {
				n = len(e.Children())
			}
			temps := make([]expr.Expression, n)
			for i := range temps {
				t, err := expr.SetMetavariable(s.fresh(child, lang, pattern, e))
				if err != nil {
					return nil, nil, err
				}
				temps[i] = t
			}
			v, err := MakeImitationExpression(vars, e, temps)
			return v, temps, err
		})
		if err != nil {
			return nil, err
		}
	}
	return children, nil
}

// finish turns the solution of a completed branch into a result. The
// temporary metavariables of every imitation step are eliminated, innermost
// step first, and the cleaned solution is re-checked against that step's
// binding constraints.
func (s *SolutionStream) finish(b *branch) (*ConstraintList, bool) {
	sol := b.solution
	for i := len(b.frames) - 1; i >= 0; i-- {
		f := b.frames[i]
		for _, t := range f.temps {
			val := sol.Lookup(t)
			if val == nil {
				continue
			}
			sub := NewConstraint(t, val)
			next := NewConstraintList()
			for _, c := range sol.contents {
				if c.pattern.Equal(t) {
					continue
				}
				e, err := sub.ApplyInstantiation(c.expression)
				if err != nil {
					s.log.Debug("cannot eliminate temporary metavariable", zap.Stringer("metavariable", t), zap.Error(err))
					s.prune(PruneCapture, sub)
					return nil, false
				}
				next.Add(NewConstraint(c.pattern, e))
			}
			sol = next
		}
		if !f.list.SatisfiesBindingConstraints(sol) {
			s.prune(PruneBindingConstraint, nil)
			return nil, false
		}
	}
	for _, c := range sol.contents {
		if v := b.escaping(c.expression); v != nil {
			s.prune(PruneBindingConstraint, c)
			return nil, false
		}
	}
	s.monitor.RecordSolution()
	s.log.Debug("solution found", zap.Stringer("solution", sol), zap.Int("depth", b.depth))
	return sol.Clone(), true
}

func (s *SolutionStream) prune(reason string, c *Constraint) {
	s.monitor.RecordPruned(reason)
	if c != nil {
		s.log.Debug("branch pruned", zap.String("reason", reason), zap.Stringer("constraint", c))
	}
}
