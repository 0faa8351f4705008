package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gitrdm/homatch/internal/challengefile"
	"github.com/gitrdm/homatch/internal/errwrap"
	"github.com/gitrdm/homatch/pkg/matching"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/samber/lo"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

var (
	maxDepth int
	workers  int
	limit    int
	timeout  time.Duration
	debug    bool
	stats    bool
	format   string
	noColor  bool
)

var (
	nameStyle    = color.New(color.FgCyan, color.Bold)
	noMatchStyle = color.New(color.FgRed, color.Bold)
	indexStyle   = color.New(color.FgGreen)
)

var solveCmd = &cobra.Command{
	Use:   "solve [paths...]",
	Short: "Solve the challenges in the given files and directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if format != formatText && format != formatYAML {
			return errors.Errorf("unknown format %q", format)
		}
		if noColor {
			color.NoColor = true
		}
		ctx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return runSolve(ctx, cmd.OutOrStdout(), args)
	},
}

func init() {
	solveCmd.Flags().IntVar(&maxDepth, "max-depth", matching.DefaultMaxDepth, "Maximum nesting of EFA branch points, 0 for none")
	solveCmd.Flags().IntVar(&workers, "workers", 1, "Explore the first branch point with this many goroutines")
	solveCmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many solutions per challenge, 0 for all")
	solveCmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up on the whole run after this long")
	solveCmd.Flags().BoolVar(&debug, "debug", false, "Dump solution trees")
	solveCmd.Flags().BoolVar(&stats, "stats", false, "Print search statistics and counters")
	solveCmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or yaml")
	solveCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored text output")
}

func runSolve(ctx context.Context, out io.Writer, paths []string) error {
	files, reterr := challengefile.NewLoader(appFs, logger).LoadAll(paths...)

	monitor := matching.NewSearchMonitor()
	reg := prometheus.NewRegistry()
	if stats {
		if err := monitor.Register(reg); err != nil {
			return err
		}
	}

	mismatched := 0
	for _, f := range files {
		sols, err := solveFile(ctx, f, monitor)
		if err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "%s", f.Path))
			continue
		}
		if err := printSolutions(out, f, sols); err != nil {
			return err
		}
		if limit == 0 && !f.Check(len(sols)) {
			logger.Warn("unexpected solution count",
				zap.String("challenge", f.Name),
				zap.Int("found", len(sols)),
				zap.Int("expected", *f.Expect))
			mismatched++
		}
	}

	if stats {
		if err := printStats(out, monitor, reg); err != nil {
			return err
		}
	}
	if mismatched > 0 {
		reterr = errwrap.Append(reterr, errors.Errorf("%d of %d challenges did not have the expected number of solutions", mismatched, len(files)))
	}
	return reterr
}

func solveFile(ctx context.Context, f *challengefile.File, monitor *matching.SearchMonitor) ([]*matching.ConstraintList, error) {
	mc, err := f.Challenge(
		matching.WithMaxDepth(maxDepth),
		matching.WithWorkers(workers),
		matching.WithLogger(logger.With(zap.String("challenge", f.Name))),
		matching.WithMonitor(monitor),
	)
	if err != nil {
		return nil, err
	}

	if limit > 0 {
		var sols []*matching.ConstraintList
		stream := mc.Stream(ctx)
		for len(sols) < limit {
			sol, ok := stream.Next()
			if !ok {
				break
			}
			sols = append(sols, sol)
		}
		return sols, stream.Err()
	}

	if workers > 1 {
		err = mc.SolveParallel(ctx)
	} else {
		err = mc.Solve(ctx)
	}
	if err != nil {
		return nil, err
	}
	return mc.Solutions(), nil
}

var dumper = &litter.Options{
	StripPackageNames: true,
	HideZeroValues:    true,
}

func printSolutions(out io.Writer, f *challengefile.File, sols []*matching.ConstraintList) error {
	if format == formatYAML {
		data, err := challengefile.EncodeResult(f.Name, sols)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "---\n%s", data)
		return err
	}

	if len(sols) == 0 {
		fmt.Fprintf(out, "%s: %s\n", nameStyle.Sprint(f.Name), noMatchStyle.Sprint("no match"))
		return nil
	}
	fmt.Fprintf(out, "%s: %d solution(s)\n", nameStyle.Sprint(f.Name), len(sols))
	for i, sol := range sols {
		fmt.Fprintf(out, "  %s %s\n", indexStyle.Sprintf("#%d", i+1), sol)
		if debug {
			fmt.Fprintln(out, dumper.Sdump(sol.Map()))
		}
	}
	return nil
}

func printStats(out io.Writer, monitor *matching.SearchMonitor, reg *prometheus.Registry) error {
	s := monitor.Stats()
	fmt.Fprintln(out, s.String())

	mfs, err := reg.Gather()
	if err != nil {
		return errwrap.Wrapf(err, "could not gather metrics")
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			labels := lo.Map(m.GetLabel(), func(l *dto.LabelPair, _ int) string {
				return fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
			})
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(out, "%s %g\n", name, m.GetCounter().GetValue())
		}
	}
	return nil
}
