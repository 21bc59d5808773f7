package solver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/observability"
)

// waitDelay is how long Wait waits for output pipes after the process group
// was killed.
const waitDelay = 2 * time.Second

// stderrLimit caps the stderr kept for error messages.
const stderrLimit = 8 * 1024

// process describes one solver invocation. The solver runs in the
// directory of the problem file.
type process struct {
	name     string
	exe      string
	args     func(problem, solution string) []string
	timeout  time.Duration
	logger   *log.Logger
	problem  string
	solution string
}

// run executes p and maps its failure modes to error codes. Cancelling ctx
// returns ctx.Err() unchanged so callers can tell an interrupt from a
// solver failure.
func run(ctx context.Context, p process) error {
	if err := errs.ValidateExecutable(p.exe); err != nil {
		return err
	}
	path, err := exec.LookPath(p.exe)
	if err != nil {
		return errs.Wrap(errs.ErrCodeSolverNotFound, err,
			"%s executable %q not found; install Concorde or set the solver path", p.name, p.exe)
	}
	// cmd.Dir changes the base of relative paths, so resolve them here.
	if path, err = filepath.Abs(path); err != nil {
		return errs.Wrap(errs.ErrCodeSolverNotFound, err, "resolve %s executable %q", p.name, p.exe)
	}
	problem, err := filepath.Abs(p.problem)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "resolve problem path")
	}
	solution, err := filepath.Abs(p.solution)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "resolve solution path")
	}
	args := p.args(problem, solution)

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Dir = filepath.Dir(problem)
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	stdout := &lineLogger{logger: p.logger, solver: p.name}
	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	p.logger.Debug("starting solver", "solver", p.name, "path", path, "args", args)
	observability.Solver().OnExec(ctx, p.name, args)
	start := time.Now()

	err = cmd.Run()
	stdout.flush()
	elapsed := time.Since(start)

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	observability.Solver().OnExit(ctx, p.name, exitCode, elapsed)
	p.logger.Debug("solver exited", "solver", p.name, "code", exitCode, "duration", elapsed)

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case runCtx.Err() == context.DeadlineExceeded:
		return errs.New(errs.ErrCodeSolverTimeout, "%s did not finish within %s", p.name, p.timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return errs.Wrap(errs.ErrCodeSolverExecution, &ExecError{
				Solver:   p.name,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}, "solver failed")
		}
		return errs.Wrap(errs.ErrCodeSolverExecution, err, "run %s", p.name)
	}

	if _, err := os.Stat(solution); err != nil {
		return errs.Wrap(errs.ErrCodeSolverExecution, &ExecError{
			Solver: p.name,
			Stderr: stderr.String(),
		}, "solver wrote no tour to %s", p.solution)
	}
	return nil
}

// lineLogger forwards complete lines written to it to a debug logger.
type lineLogger struct {
	logger *log.Logger
	solver string
	buf    []byte
}

func (w *lineLogger) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(b), nil
}

func (w *lineLogger) flush() {
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *lineLogger) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	w.logger.Debug(string(line), "solver", w.solver)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
