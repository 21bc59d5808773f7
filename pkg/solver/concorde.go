package solver

import (
	"context"
	"strconv"
)

// Concorde runs the exact Concorde solver. It is practical for a few
// thousand points; use Linkern for dense stipplings.
type Concorde struct {
	opts Options
}

// NewConcorde returns a concorde solver. The executable defaults to "concorde".
func NewConcorde(opts Options) *Concorde {
	if opts.Executable == "" {
		opts.Executable = KindConcorde
	}
	return &Concorde{opts: opts}
}

// Name returns "concorde".
func (c *Concorde) Name() string { return KindConcorde }

// Closed reports true: concorde solutions are optimal cycles.
func (c *Concorde) Closed() bool { return true }

// Args returns the command-line arguments for one run.
func (c *Concorde) Args(problemPath, solutionPath string) []string {
	var args []string
	if c.opts.Seed != 0 {
		args = append(args, "-s", strconv.FormatInt(c.opts.Seed, 10))
	}
	return append(args, "-x", "-o", solutionPath, problemPath)
}

// Solve runs concorde in the directory of the problem file, where it also
// leaves its intermediate files.
func (c *Concorde) Solve(ctx context.Context, problemPath, solutionPath string) error {
	return run(ctx, process{
		name:     c.Name(),
		exe:      c.opts.Executable,
		args:     c.Args,
		timeout:  c.opts.Timeout,
		logger:   c.opts.logger(),
		problem:  problemPath,
		solution: solutionPath,
	})
}
