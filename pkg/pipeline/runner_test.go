package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tspart/pkg/cache"
	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/solver"
	"github.com/matzehuels/tspart/pkg/tsplib"
)

// fakeSolver writes the identity tour (or a fixed one) for any problem.
type fakeSolver struct {
	closed bool
	tour   string
	calls  int
}

func (s *fakeSolver) Name() string { return "fake" }
func (s *fakeSolver) Closed() bool { return s.closed }

func (s *fakeSolver) Solve(ctx context.Context, problemPath, solutionPath string) error {
	s.calls++
	if s.tour != "" {
		return os.WriteFile(solutionPath, []byte(s.tour), 0o644)
	}
	n, err := dimension(problemPath)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\n", n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, "%d\n", i)
	}
	return os.WriteFile(solutionPath, buf.Bytes(), 0o644)
}

func dimension(problemPath string) (int, error) {
	f, err := os.Open(problemPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "DIMENSION:"); ok {
			return strconv.Atoi(strings.TrimSpace(v))
		}
	}
	return 0, fmt.Errorf("no DIMENSION in %s", problemPath)
}

type fixture struct {
	dir     string
	workDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(work, 0o755))
	return fixture{dir: dir, workDir: work}
}

func (f fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f fixture) assertWorkEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work files left behind")
}

const square = "0 0\n10 0\n10 10\n0 10\n"

func TestExecute(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "square.pts", square)
	fake := &fakeSolver{closed: true}

	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		TSPSolver: fake,
		SaveTour:  filepath.Join(f.dir, "square.sol"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, filepath.Join(f.dir, "square.svg"), result.Output)
	assert.Equal(t, tsplib.Tour{0, 1, 2, 3}, result.Tour)
	assert.True(t, result.Closed)
	assert.Equal(t, 4, result.Stats.PointCount)
	assert.InDelta(t, 40.0, result.Stats.TourLength, 1e-9)
	assert.Equal(t, 1, result.Stats.Paths)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.CacheInfo.TourHit)

	data, err := os.ReadFile(result.Output)
	require.NoError(t, err)
	assert.Equal(t, result.SVG, data)
	assert.Contains(t, string(data), `d="m 0,0 10,0 0,10 -10,0 Z"`)

	saved, err := tsplib.ReadTour(filepath.Join(f.dir, "square.sol"), 4)
	require.NoError(t, err)
	assert.Equal(t, result.Tour, saved)

	f.assertWorkEmpty(t)
}

func TestExecuteOpenSolver(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "square.pts", square)

	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		TSPSolver: &fakeSolver{closed: false},
	})
	require.NoError(t, err)
	assert.False(t, result.Closed)
	assert.InDelta(t, 30.0, result.Stats.TourLength, 1e-9)
	assert.NotContains(t, string(result.SVG), " Z\"")

	// An explicit closure overrides the solver's convention.
	result, err = NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		Closure:   "closed",
		TSPSolver: &fakeSolver{closed: false},
	})
	require.NoError(t, err)
	assert.True(t, result.Closed)
	assert.Contains(t, string(result.SVG), " Z\"")
}

func TestExecuteEmptyInput(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "empty.pts", "")
	fake := &fakeSolver{}

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		TSPSolver: fake,
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeEmptyInput), "got %v", err)
	assert.True(t, strings.HasPrefix(err.Error(), "load: "), err.Error())
	assert.Zero(t, fake.calls)
	f.assertWorkEmpty(t)

	_, err = os.Stat(filepath.Join(f.dir, "empty.svg"))
	assert.True(t, os.IsNotExist(err), "no output for a failed run")
}

func TestExecuteMalformedLine(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "bad.pts", "0 0\nabc,def\n")

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		TSPSolver: &fakeSolver{},
	})
	assert.True(t, errs.Is(err, errs.ErrCodeInputFormat), "got %v", err)

	var pe *errs.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestExecuteSolverNotFound(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "square.pts", square)

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:   input,
		TempDir: f.workDir,
		Solver:  filepath.Join(f.dir, "no-such-linkern"),
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeSolverNotFound), "got %v", err)
	assert.True(t, strings.HasPrefix(err.Error(), "solve: "), err.Error())
	f.assertWorkEmpty(t)
}

// identityLinkern is a linkern stand-in that fails unless the problem file
// is readable from its working directory.
const identityLinkern = `#!/bin/sh
out=""
while [ $# -gt 1 ]; do
  case "$1" in
    -o) out="$2"; shift ;;
  esac
  shift
done
[ -r "$1" ] || { echo "cannot read $1" >&2; exit 3; }
n=$(sed -n 's/^DIMENSION: *//p' "$1")
{
  echo "$n"
  i=0
  while [ "$i" -lt "$n" ]; do echo "$i"; i=$((i+1)); done
} > "$out"
`

func TestExecuteRelativePaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script solver")
	}
	f := newFixture(t)
	input := f.write(t, "square.pts", square)
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "bin", "linkern"), []byte(identityLinkern), 0o755))
	t.Chdir(f.dir)

	tests := []struct {
		name    string
		tempDir string
		solver  string
	}{
		{"relative temp dir", "work", filepath.Join(f.dir, "bin", "linkern")},
		{"relative solver", f.workDir, "./bin/linkern"},
		{"both relative", "work", "./bin/linkern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
				Input:   input,
				TempDir: tt.tempDir,
				Solver:  tt.solver,
				NoCache: true,
			})
			require.NoError(t, err)
			assert.Equal(t, tsplib.Tour{0, 1, 2, 3}, result.Tour)
			f.assertWorkEmpty(t)
		})
	}
}

func TestExecuteInvalidTour(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "tri.pts", "0 0\n10 0\n10 10\n")

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		TSPSolver: &fakeSolver{tour: "3\n0 1 1\n"},
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidTour), "got %v", err)
	assert.Contains(t, err.Error(), "duplicate index 1")
	f.assertWorkEmpty(t)
}

func TestExecuteKeepTemp(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "square.pts", square)

	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		KeepTemp:  true,
		TSPSolver: &fakeSolver{closed: true},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.WorkDir)
	assert.FileExists(t, filepath.Join(result.WorkDir, "square.tsp"))
	assert.FileExists(t, filepath.Join(result.WorkDir, "square.sol"))
}

func TestExecuteTrivialTour(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "two.pts", "0 0\n3 4\n")
	fake := &fakeSolver{}

	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Input:     input,
		TempDir:   f.workDir,
		TSPSolver: fake,
	})
	require.NoError(t, err)
	assert.Zero(t, fake.calls)
	assert.Equal(t, tsplib.Tour{0, 1}, result.Tour)
}

func TestExecuteCache(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "square.pts", square)
	store, err := cache.NewFileCache(filepath.Join(f.dir, "cache"))
	require.NoError(t, err)
	runner := NewRunner(store, nil, nil)
	fake := &fakeSolver{closed: true}

	opts := Options{Input: input, TempDir: f.workDir, TSPSolver: fake}
	first, err := runner.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.TourHit)

	second, err := runner.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.TourHit)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, first.SVG, second.SVG)

	opts.NoCache = true
	third, err := runner.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.TourHit)
	assert.Equal(t, 2, fake.calls)
}

func TestExecuteStaleCacheEntry(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "tri.pts", "0 0\n10 0\n10 10\n")
	store, err := cache.NewFileCache(filepath.Join(f.dir, "cache"))
	require.NoError(t, err)
	runner := NewRunner(store, nil, nil)

	// A rejected tour never stays in the cache.
	_, err = runner.Execute(context.Background(), Options{
		Input: input, TempDir: f.workDir, TSPSolver: &fakeSolver{tour: "3\n0 1 1\n"},
	})
	require.True(t, errs.Is(err, errs.ErrCodeInvalidTour), "got %v", err)

	good := &fakeSolver{}
	result, err := runner.Execute(context.Background(), Options{
		Input: input, TempDir: f.workDir, TSPSolver: good,
	})
	require.NoError(t, err)
	assert.False(t, result.CacheInfo.TourHit)
	assert.Equal(t, 1, good.calls)
	assert.Equal(t, tsplib.Tour{0, 1, 2}, result.Tour)
}

func TestExecuteCancelled(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "square.pts", square)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil, nil).Execute(ctx, Options{
		Input:     input,
		TempDir:   f.workDir,
		TSPSolver: cancelSolver{},
	})
	assert.ErrorIs(t, err, context.Canceled)
	f.assertWorkEmpty(t)
}

type cancelSolver struct{}

func (cancelSolver) Name() string { return "cancel" }
func (cancelSolver) Closed() bool { return true }
func (cancelSolver) Solve(ctx context.Context, _, _ string) error {
	return ctx.Err()
}

func TestProblem(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "square.pts", square)
	out := filepath.Join(f.dir, "square.tsp")

	p, err := NewRunner(nil, nil, nil).Problem(context.Background(), input, out, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Len())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "NAME: square\n"), string(data))
	assert.Contains(t, string(data), "DIMENSION: 4\n")
	assert.True(t, strings.HasSuffix(string(data), "EOF\n"))
}

func TestRenderTour(t *testing.T) {
	f := newFixture(t)
	input := f.write(t, "tri.pts", "0 0\n10 0\n10 10\n")
	tourPath := f.write(t, "tri.sol", "3\n0 1 2\n")

	result, err := NewRunner(nil, nil, nil).RenderTour(context.Background(), tourPath, Options{
		Input: input,
		Layer: "TSP art",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "tri.svg"), result.Output)
	assert.Contains(t, string(result.SVG), `d="m 0,0 10,0 0,10 Z"`)
	assert.Contains(t, string(result.SVG), `inkscape:label="TSP art"`)

	bad := f.write(t, "bad.sol", "3\n0 1 1\n")
	_, err = NewRunner(nil, nil, nil).RenderTour(context.Background(), bad, Options{Input: input})
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidTour), "got %v", err)
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	assert.NotNil(t, r.Cache)
	assert.NotNil(t, r.Keyer)
	assert.NotNil(t, r.Logger)
	assert.NoError(t, r.Close())
}

var _ solver.Solver = (*fakeSolver)(nil)
