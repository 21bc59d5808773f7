package solver

import (
	"context"
	"strconv"
)

// Linkern runs Concorde's Lin-Kernighan heuristic.
type Linkern struct {
	opts Options
}

// NewLinkern returns a linkern solver. The executable defaults to "linkern".
func NewLinkern(opts Options) *Linkern {
	if opts.Executable == "" {
		opts.Executable = KindLinkern
	}
	if opts.Runs <= 0 {
		opts.Runs = 1
	}
	return &Linkern{opts: opts}
}

// Name returns "linkern".
func (l *Linkern) Name() string { return KindLinkern }

// Closed reports true: linkern writes the edges of a cycle.
func (l *Linkern) Closed() bool { return true }

// Args returns the command-line arguments for one run.
func (l *Linkern) Args(problemPath, solutionPath string) []string {
	args := []string{"-r", strconv.Itoa(l.opts.Runs)}
	if l.opts.Seed != 0 {
		args = append(args, "-s", strconv.FormatInt(l.opts.Seed, 10))
	}
	return append(args, "-o", solutionPath, problemPath)
}

// Solve runs linkern in the directory of the problem file.
func (l *Linkern) Solve(ctx context.Context, problemPath, solutionPath string) error {
	return run(ctx, process{
		name:     l.Name(),
		exe:      l.opts.Executable,
		args:     l.Args,
		timeout:  l.opts.Timeout,
		logger:   l.opts.logger(),
		problem:  problemPath,
		solution: solutionPath,
	})
}
