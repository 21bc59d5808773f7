package source

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/tspart/pkg/points"
)

// Coords parses text files of point coordinates, one point per line:
//
//	# x-coord y-coord radius
//	0.0210369 0.00199109 0.0022353
//	0.0255807,0.00200347
//
// Two fields give (x, y); a third field is the point radius. Blank lines and
// lines starting with "#" are skipped. Coordinates must be finite and
// non-negative.
type Coords struct{}

// Name returns "coords".
func (Coords) Name() string { return "coords" }

// Parse decodes a coordinate list. Any UTF-8 text without NUL bytes is
// claimed as a coordinate list, so malformed rows are reported by line.
func (Coords) Parse(data []byte) (*points.Set, error) {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return nil, ErrNotThisFormat
	}

	var pts []points.Point
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, err := parseCoordLine(n, line)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return points.New("coords", pts), nil
}

func parseCoordLine(n int, line string) (points.Point, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
	if len(fields) != 2 && len(fields) != 3 {
		return points.Point{}, lineError(n, line, "expected 2 or 3 numbers, got %d fields", len(fields))
	}

	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return points.Point{}, lineError(n, line, "invalid number %q", f)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return points.Point{}, lineError(n, line, "non-finite number %q", f)
		}
		if v < 0 {
			return points.Point{}, lineError(n, line, "negative value %q", f)
		}
		vals[i] = v
	}
	return points.Point{X: vals[0], Y: vals[1], Radius: vals[2]}, nil
}
