package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tspart/pkg/cache"
	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/observability"
	"github.com/matzehuels/tspart/pkg/points"
	"github.com/matzehuels/tspart/pkg/render"
	"github.com/matzehuels/tspart/pkg/render/svg"
	"github.com/matzehuels/tspart/pkg/solver"
	"github.com/matzehuels/tspart/pkg/source"
	"github.com/matzehuels/tspart/pkg/tsplib"
)

// Runner encapsulates pipeline execution with tour caching.
// Every CLI command goes through it.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached tours. Zero means cache.TTLTour.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → problem → solve → tour → render pipeline.
// The work directory holding the problem and solution files is removed on
// every exit path unless opts.KeepTemp is set.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID:    uuid.NewString(),
		Previews: make(map[string]string),
	}

	// Stage 1: Load
	loadStart := time.Now()
	set, err := r.Load(ctx, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Points = set
	result.Stats.PointCount = set.Len()
	result.Stats.LoadTime = time.Since(loadStart)

	r.Logger.Info("loaded points",
		"source", set.Source,
		"points", set.Len(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Problem
	problem, err := tsplib.NewProblem(ProblemName(opts.Input), set, opts.Scale)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	result.Problem = problem
	result.Stats.Scale = problem.Scale

	workDir, err := r.workDir(opts, result.RunID)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	if opts.KeepTemp {
		result.WorkDir = workDir
		r.Logger.Info("keeping work files", "dir", workDir)
	} else {
		defer func() {
			if err := os.RemoveAll(workDir); err != nil {
				r.Logger.Warn("could not remove work files", "dir", workDir, "err", err)
			}
		}()
	}

	problemPath := filepath.Join(workDir, problem.Name+".tsp")
	if err := WriteProblem(problemPath, problem); err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	r.Logger.Debug("wrote problem", "path", problemPath, "scale", problem.Scale)

	// Stages 3-4: Solve and read the tour
	s, err := opts.NewSolver()
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	solveStart := time.Now()
	tour, hit, err := r.SolveWithCacheInfo(ctx, s, problemPath, problem.Len(), opts)
	if err != nil {
		return nil, err
	}
	result.Tour = tour
	result.Closed = closure(opts.Closure).Resolve(s.Closed())
	result.Stats.SolveTime = time.Since(solveStart)
	result.Stats.TourLength = tour.Length(set, result.Closed)
	result.CacheInfo.TourHit = hit

	r.Logger.Info("solved tour",
		"solver", s.Name(),
		"cached", hit,
		"length", fmt.Sprintf("%.1f", result.Stats.TourLength),
		"duration", result.Stats.SolveTime)

	if opts.SaveTour != "" {
		if err := SaveTour(opts.SaveTour, tour); err != nil {
			return nil, fmt.Errorf("tour: %w", err)
		}
		r.Logger.Debug("saved tour", "path", opts.SaveTour)
	}

	// Stage 5: Render
	if err := r.renderInto(ctx, result, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// Load parses the input file into points, emitting load hooks.
func (r *Runner) Load(ctx context.Context, path string) (*points.Set, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, path)
	start := time.Now()
	set, err := source.Load(path)
	n := 0
	if set != nil {
		n = set.Len()
	}
	hooks.OnLoadComplete(ctx, path, n, time.Since(start), err)
	return set, err
}

// Problem loads the input and writes its TSPLIB description to output.
// This is the whole of the problem command.
func (r *Runner) Problem(ctx context.Context, input, output string, scale float64) (*tsplib.Problem, error) {
	set, err := r.Load(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	problem, err := tsplib.NewProblem(ProblemName(input), set, scale)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	if err := WriteProblem(output, problem); err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	r.Logger.Info("wrote problem",
		"path", output,
		"points", problem.Len(),
		"scale", problem.Scale)
	return problem, nil
}

// SolveWithCacheInfo runs s on the problem file (or reuses a cached tour),
// then reads and validates the solution. Problems with fewer than three
// nodes have a single visiting order, so the solver is skipped for them.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, s solver.Solver, problemPath string, n int, opts Options) (tsplib.Tour, bool, error) {
	if n < 3 {
		tour := make(tsplib.Tour, n)
		for i := range tour {
			tour[i] = i
		}
		r.Logger.Debug("trivial tour, solver skipped", "points", n)
		return tour, false, nil
	}

	c := r.Cache
	if opts.NoCache {
		c = cache.NewNullCache()
	}
	cached := solver.NewCached(s, c, r.Keyer, opts.Runs, opts.Seed)
	cached.Logger = r.Logger
	if r.TTL > 0 {
		cached.TTL = r.TTL
	}

	solutionPath := problemPath[:len(problemPath)-len(filepath.Ext(problemPath))] + ".sol"

	hooks := observability.Pipeline()
	hooks.OnSolveStart(ctx, s.Name(), n)
	start := time.Now()
	hit, err := cached.SolveWithCacheInfo(ctx, problemPath, solutionPath)
	hooks.OnSolveComplete(ctx, s.Name(), time.Since(start), err)
	if err != nil {
		return nil, false, fmt.Errorf("solve: %w", err)
	}

	tour, err := tsplib.ReadTour(solutionPath, n)
	if err != nil && hit {
		// A stale entry must not poison later runs.
		r.Logger.Warn("cached tour is invalid, solving again", "err", err)
		if err := cached.Invalidate(ctx, problemPath); err != nil {
			r.Logger.Warn("could not drop cached tour", "err", err)
		}
		if err := s.Solve(ctx, problemPath, solutionPath); err != nil {
			return nil, false, fmt.Errorf("solve: %w", err)
		}
		hit = false
		tour, err = tsplib.ReadTour(solutionPath, n)
	}
	if err != nil {
		if err := cached.Invalidate(ctx, problemPath); err != nil {
			r.Logger.Warn("could not drop cached tour", "err", err)
		}
		return nil, false, fmt.Errorf("tour: %w", err)
	}
	return tour, hit, nil
}

// RenderTour renders an existing solver output for input without running
// the solver. This is the whole of the render command.
func (r *Runner) RenderTour(ctx context.Context, tourPath string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID:    uuid.NewString(),
		Previews: make(map[string]string),
	}

	loadStart := time.Now()
	set, err := r.Load(ctx, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Points = set
	result.Stats.PointCount = set.Len()
	result.Stats.LoadTime = time.Since(loadStart)

	tour, err := tsplib.ReadTour(tourPath, set.Len())
	if err != nil {
		return nil, fmt.Errorf("tour: %w", err)
	}
	result.Tour = tour

	// A tour file carries no solver convention; auto means closed, as with
	// every supported solver.
	result.Closed = closure(opts.Closure).Resolve(true)
	result.Stats.TourLength = tour.Length(set, result.Closed)

	if err := r.renderInto(ctx, result, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// renderInto renders result.Tour, writes the SVG and any previews.
func (r *Runner) renderInto(ctx context.Context, result *Result, opts Options) error {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Output)
	start := time.Now()
	err := r.render(ctx, result, opts)
	result.Stats.RenderTime = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Output, result.Stats.RenderTime, err)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	r.Logger.Info("rendered drawing",
		"output", result.Output,
		"paths", result.Stats.Paths,
		"duration", result.Stats.RenderTime)
	return nil
}

func (r *Runner) render(ctx context.Context, result *Result, opts Options) error {
	doc, err := svg.Render(result.Points, result.Tour, opts.SVGOptions(result.Closed)...)
	if err != nil {
		return err
	}
	result.SVG = doc
	result.Stats.Paths = countPaths(len(result.Tour), result.Closed, opts.MaxSegments)

	if err := svg.WriteFile(opts.Output, doc); err != nil {
		return err
	}
	result.Output = opts.Output

	for _, format := range opts.Formats {
		if format == render.FormatSVG {
			continue
		}
		data, err := render.Convert(ctx, doc, format, opts.PreviewScale)
		if err != nil {
			return err
		}
		path := PreviewPath(opts.Output, format)
		if err := svg.WriteFile(path, data); err != nil {
			return err
		}
		result.Previews[format] = path
	}
	return nil
}

// workDir creates the per-run directory for problem and solution files.
func (r *Runner) workDir(opts Options, runID string) (string, error) {
	base := opts.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir, err := filepath.Abs(filepath.Join(base, "tspart-"+runID))
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeWrite, err, "resolve work directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(errs.ErrCodeWrite, err, "create work directory")
	}
	return dir, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// WriteProblem writes p to path in TSPLIB format.
func WriteProblem(path string, p *tsplib.Problem) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeWrite, err, "create %s", path)
	}
	if _, err := p.WriteTo(f); err != nil {
		f.Close()
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}

// SaveTour writes t to path in solution format, so it can be rendered again
// with the render command.
func SaveTour(path string, t tsplib.Tour) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeWrite, err, "create %s", path)
	}
	if err := tsplib.WriteSolution(f, t); err != nil {
		f.Close()
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}

func closure(s string) svg.Closure {
	c, _ := svg.ParseClosure(s)
	return c
}

// countPaths mirrors how the renderer splits a tour of n points.
func countPaths(n int, closed bool, maxSegments int) int {
	segments := n - 1
	if closed && n > 1 {
		segments++
	}
	if maxSegments == 0 || maxSegments >= segments {
		return 1
	}
	return (segments + maxSegments - 1) / maxSegments
}
