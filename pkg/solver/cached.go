package solver

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tspart/pkg/cache"
	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/observability"
)

// Cached wraps a Solver with a tour cache. The key is derived from the
// problem file contents (without its NAME line) and the solver settings, so
// the same stippling solved under another file name is still a hit.
//
// Cache backend failures are logged and never fail a run.
type Cached struct {
	Solver Solver
	Cache  cache.Cache
	Keyer  cache.Keyer
	Opts   cache.TourKeyOpts
	TTL    time.Duration
	Logger *log.Logger
}

// NewCached wraps s. Runs and Seed describe the settings s was built with;
// they become part of the cache key.
func NewCached(s Solver, c cache.Cache, keyer cache.Keyer, runs int, seed int64) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cached{
		Solver: s,
		Cache:  c,
		Keyer:  keyer,
		Opts:   cache.TourKeyOpts{Solver: s.Name(), Runs: runs, Seed: seed},
		TTL:    cache.TTLTour,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// Name returns the wrapped solver's name.
func (c *Cached) Name() string { return c.Solver.Name() }

// Closed returns the wrapped solver's convention.
func (c *Cached) Closed() bool { return c.Solver.Closed() }

// Solve implements Solver.
func (c *Cached) Solve(ctx context.Context, problemPath, solutionPath string) error {
	_, err := c.SolveWithCacheInfo(ctx, problemPath, solutionPath)
	return err
}

// SolveWithCacheInfo solves and reports whether the tour came from the cache.
func (c *Cached) SolveWithCacheInfo(ctx context.Context, problemPath, solutionPath string) (bool, error) {
	problem, err := os.ReadFile(problemPath)
	if err != nil {
		return false, errs.Wrap(errs.ErrCodeInternal, err, "read problem file")
	}
	key := c.Keyer.TourKey(cache.Hash(problemBody(problem)), c.Opts)

	data, hit, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.Logger.Warn("tour cache unavailable", "err", err)
	}
	if hit {
		if err := os.WriteFile(solutionPath, data, 0o644); err != nil {
			return false, errs.Wrap(errs.ErrCodeInternal, err, "write cached tour")
		}
		observability.Cache().OnCacheHit(ctx, cache.KeyTypeTour)
		c.Logger.Debug("tour cache hit", "solver", c.Name(), "key", key)
		return true, nil
	}
	observability.Cache().OnCacheMiss(ctx, cache.KeyTypeTour)

	if err := c.Solver.Solve(ctx, problemPath, solutionPath); err != nil {
		return false, err
	}

	data, err = os.ReadFile(solutionPath)
	if err != nil {
		return false, nil
	}
	if err := c.Cache.Set(ctx, key, data, c.TTL); err != nil {
		c.Logger.Warn("could not cache tour", "err", err)
		return false, nil
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeTour, len(data))
	return false, nil
}

// Invalidate removes the cached tour for the problem, used when a cached
// solution turned out not to match it.
func (c *Cached) Invalidate(ctx context.Context, problemPath string) error {
	problem, err := os.ReadFile(problemPath)
	if err != nil {
		return err
	}
	return c.Cache.Delete(ctx, c.Keyer.TourKey(cache.Hash(problemBody(problem)), c.Opts))
}

// problemBody strips a leading NAME line.
func problemBody(problem []byte) []byte {
	if bytes.HasPrefix(problem, []byte("NAME")) {
		if i := bytes.IndexByte(problem, '\n'); i >= 0 {
			return problem[i+1:]
		}
	}
	return problem
}

var _ Solver = (*Cached)(nil)
