// Package solver runs external TSP solvers on TSPLIB problem files.
//
// The repository never searches for tours itself. A [Solver] is handed the
// path of a problem written by [tsplib.Problem.WriteTo] and must leave its
// tour in the solution path, in any layout [tsplib.ParseTour] understands.
//
// Two Concorde front ends are provided:
//
//	linkern  [-r runs] [-s seed] -o <solution> <problem>   (Lin-Kernighan heuristic)
//	concorde [-s seed] -x -o <solution> <problem>          (exact branch and cut)
//
// Both report cycles: the last point connects back to the first.
//
// Errors carry the codes of [errs]: SOLVER_NOT_FOUND when the executable is
// not on PATH, SOLVER_TIMEOUT when [Options.Timeout] expires, and
// SOLVER_EXECUTION with an [*ExecError] when the process fails.
package solver

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tspart/pkg/errors"
)

// Solver kinds.
const (
	KindLinkern  = "linkern"
	KindConcorde = "concorde"
)

// Kinds lists the supported solver kinds.
var Kinds = []string{KindLinkern, KindConcorde}

// Solver computes a tour for a TSPLIB problem file.
type Solver interface {
	// Name identifies the solver in logs and cache keys.
	Name() string

	// Closed reports whether the solver's tours are cycles.
	Closed() bool

	// Solve reads problemPath and writes a tour to solutionPath.
	Solve(ctx context.Context, problemPath, solutionPath string) error
}

// Options configures an external solver process.
type Options struct {
	// Executable is a command name looked up on PATH, or a path.
	// Empty selects the solver kind's default name.
	Executable string

	// Runs is the number of independent linkern runs (-r). Ignored by concorde.
	Runs int

	// Seed fixes the solver's random seed (-s). Zero leaves it to the solver.
	Seed int64

	// Timeout bounds the process run time. Zero means no limit.
	Timeout time.Duration

	// Logger receives the solver's stdout at debug level.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Logger
}

// New returns the solver of the given kind.
func New(kind string, opts Options) (Solver, error) {
	switch strings.ToLower(kind) {
	case "", KindLinkern:
		return NewLinkern(opts), nil
	case KindConcorde:
		return NewConcorde(opts), nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidOption,
			"unknown solver kind %q (must be one of: %s)", kind, strings.Join(Kinds, ", "))
	}
}

// ExecError describes a solver process that exited unsuccessfully.
type ExecError struct {
	Solver   string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Solver, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}
