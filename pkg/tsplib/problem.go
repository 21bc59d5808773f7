// Package tsplib reads and writes the TSPLIB files exchanged with external
// TSP solvers.
//
// [NewProblem] quantizes a point set into an EUC_2D problem and
// [Problem.WriteTo] serializes it:
//
//	NAME: portrait
//	TYPE: TSP
//	COMMENT: scale=1 offset=0,0
//	DIMENSION: 3
//	EDGE_WEIGHT_TYPE: EUC_2D
//	NODE_COORD_SECTION
//	1 0 0
//	2 10 0
//	3 10 10
//	EOF
//
// Node i of the file is point i-1 of the set. Solvers read the coordinate
// section in order, so the 0-based positions they report are point indices.
//
// [ParseTour] reads solver output back into a [Tour].
package tsplib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/points"
)

const (
	// MaxCoordinate is the largest integer coordinate written to a problem.
	// EUC_2D distances are computed in integer arithmetic by Concorde; keeping
	// coordinates below 1e7 keeps squared distances well inside int64 and
	// float64 precision.
	MaxCoordinate = 10_000_000

	// DefaultResolution is the integer span used for non-integral inputs when
	// no scale is given: the longer side of the bounding box is mapped to
	// this many units.
	DefaultResolution = 10_000
)

// Problem is a point set quantized to integer solver coordinates.
type Problem struct {
	Name    string
	Scale   float64
	OffsetX float64
	OffsetY float64
	Coords  [][2]int64
}

// NewProblem quantizes set. Coordinates are translated so the bounding box
// starts at the origin, then multiplied by scale and rounded.
//
// A scale of zero selects one automatically: integral point sets whose span
// fits MaxCoordinate keep scale 1, other sets are mapped to
// DefaultResolution units. It fails with COORDINATE_RANGE when the scale is
// invalid or a scaled coordinate exceeds MaxCoordinate.
func NewProblem(name string, set *points.Set, scale float64) (*Problem, error) {
	b := set.Bounds()
	if scale == 0 {
		scale = AutoScale(set)
	}
	if scale < 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, errs.New(errs.ErrCodeCoordinateRange, "invalid scale factor %v", scale)
	}
	if span := b.Span() * scale; span > MaxCoordinate {
		return nil, errs.New(errs.ErrCodeCoordinateRange,
			"scaled span %.0f exceeds solver range %d (scale %v); use a smaller scale", span, MaxCoordinate, scale)
	}

	p := &Problem{
		Name:    sanitizeName(name),
		Scale:   scale,
		OffsetX: b.MinX,
		OffsetY: b.MinY,
		Coords:  make([][2]int64, set.Len()),
	}
	for i := 0; i < set.Len(); i++ {
		pt := set.At(i)
		p.Coords[i] = [2]int64{
			int64(math.Round((pt.X - b.MinX) * scale)),
			int64(math.Round((pt.Y - b.MinY) * scale)),
		}
	}
	return p, nil
}

// AutoScale returns the scale NewProblem uses when none is given.
func AutoScale(set *points.Set) float64 {
	span := set.Bounds().Span()
	if span == 0 {
		return 1
	}
	if set.IsIntegral() && span <= MaxCoordinate {
		return 1
	}
	return DefaultResolution / span
}

// Len returns the number of nodes.
func (p *Problem) Len() int { return len(p.Coords) }

// Unscale maps integer solver coordinates back to source coordinates.
// The result is within 0.5/Scale of the original point.
func (p *Problem) Unscale(x, y int64) (float64, float64) {
	return float64(x)/p.Scale + p.OffsetX, float64(y)/p.Scale + p.OffsetY
}

// WriteTo writes the problem in TSPLIB format.
func (p *Problem) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countWriter{w: bw}

	fmt.Fprintf(cw, "NAME: %s\n", p.Name)
	fmt.Fprintf(cw, "TYPE: TSP\n")
	fmt.Fprintf(cw, "COMMENT: scale=%g offset=%g,%g\n", p.Scale, p.OffsetX, p.OffsetY)
	fmt.Fprintf(cw, "DIMENSION: %d\n", len(p.Coords))
	fmt.Fprintf(cw, "EDGE_WEIGHT_TYPE: EUC_2D\n")
	fmt.Fprintf(cw, "NODE_COORD_SECTION\n")
	for i, c := range p.Coords {
		fmt.Fprintf(cw, "%d %d %d\n", i+1, c[0], c[1])
	}
	fmt.Fprintf(cw, "EOF\n")

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, bw.Flush()
}

// String returns the TSPLIB text.
func (p *Problem) String() string {
	var sb strings.Builder
	_, _ = p.WriteTo(&sb)
	return sb.String()
}

// sanitizeName keeps the NAME field on one line and free of separators.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == ':' || r < ' ' {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "tspart"
	}
	return name
}

type countWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countWriter) Write(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(b)
	c.n += int64(n)
	c.err = err
	return n, err
}
