// Package cache stores solver output between runs.
//
// Running a TSP solver on tens of thousands of stipples takes minutes, and the
// result depends only on the problem file and the solver settings. The
// pipeline hashes the TSPLIB problem, derives a key with a [Keyer], and keeps
// the solution file contents in a [Cache].
//
// Three backends are provided:
//
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for farms of render machines
//   - [NullCache]: stores nothing, used with --no-cache
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a cache backend cannot be reached.
var ErrUnavailable = errors.New("cache unavailable")

// TTLTour is the default lifetime of a cached tour.
const TTLTour = 30 * 24 * time.Hour

// Key types reported to cache hooks.
const (
	KeyTypeTour = "tour"
)

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// TourKeyOpts holds the solver settings that change the tour for a given
// problem.
type TourKeyOpts struct {
	Solver string `json:"solver"`
	Runs   int    `json:"runs"`
	Seed   int64  `json:"seed"`
}

// Keyer derives cache keys.
type Keyer interface {
	// TourKey returns the key of the tour for the problem with the given hash.
	TourKey(problemHash string, opts TourKeyOpts) string
}

// NullCache stores nothing; every Get is a miss.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }
