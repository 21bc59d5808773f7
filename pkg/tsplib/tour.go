package tsplib

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/points"
)

// Tour is a visiting order: a permutation of the point indices 0..n-1.
type Tour []int

// Length returns the Euclidean length of the tour through set.
// A closed tour includes the edge from the last point back to the first.
func (t Tour) Length(set *points.Set, closed bool) float64 {
	if len(t) < 2 {
		return 0
	}
	var d float64
	for i := 1; i < len(t); i++ {
		d += points.Dist(set.At(t[i-1]), set.At(t[i]))
	}
	if closed {
		d += points.Dist(set.At(t[len(t)-1]), set.At(t[0]))
	}
	return d
}

// Validate checks that t is a permutation of 0..n-1.
func (t Tour) Validate(n int) error {
	if len(t) != n {
		return errs.New(errs.ErrCodeInvalidTour, "tour has %d entries, want %d", len(t), n)
	}
	seen := make([]bool, n)
	for pos, idx := range t {
		if idx < 0 || idx >= n {
			return errs.New(errs.ErrCodeInvalidTour, "tour position %d: index %d out of range [0, %d)", pos, idx, n)
		}
		if seen[idx] {
			return errs.New(errs.ErrCodeInvalidTour, "tour position %d: duplicate index %d (missing index %d)",
				pos, idx, firstMissing(t, n))
		}
		seen[idx] = true
	}
	return nil
}

func firstMissing(t Tour, n int) int {
	seen := make([]bool, n)
	for _, idx := range t {
		if idx >= 0 && idx < n {
			seen[idx] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			return i
		}
	}
	return -1
}

// ReadTour parses the tour file at path for a problem of n points.
func ReadTour(path string, n int) (Tour, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidTour, err, "open tour file")
	}
	defer f.Close()
	return ParseTour(f, n)
}

// ParseTour parses solver output for a problem of n points and validates
// that it is a permutation of 0..n-1.
//
// Three layouts are recognized:
//
//   - TSPLIB tour files (TYPE: TOUR, TOUR_SECTION, 1-based ids, "-1" and
//     EOF terminators), as written by LKH.
//   - Concorde solution files: a node count followed by 0-based indices,
//     any number per line.
//   - Concorde edge lists (linkern -o): an "n m" header followed by
//     "from to weight" lines that walk the cycle.
//
// Lines starting with "#" are ignored.
func ParseTour(r io.Reader, n int) (Tour, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidTour, err, "read tour")
	}
	if len(lines) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidTour, "tour file is empty")
	}

	var t Tour
	switch {
	case isTSPLIBTour(lines):
		t, err = parseTSPLIBTour(lines)
	case isEdgeList(lines):
		t, err = parseEdgeList(lines, n)
	default:
		t, err = parseSolution(lines, n)
	}
	if err != nil {
		return nil, err
	}
	if err := t.Validate(n); err != nil {
		return nil, err
	}
	return t, nil
}

// tourLine is a significant line with its 1-based number.
type tourLine struct {
	n      int
	fields []string
}

func readLines(r io.Reader) ([]tourLine, error) {
	var lines []tourLine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		lines = append(lines, tourLine{n: n, fields: strings.Fields(s)})
	}
	return lines, sc.Err()
}

func isTSPLIBTour(lines []tourLine) bool {
	for _, l := range lines {
		if strings.HasPrefix(strings.ToUpper(l.fields[0]), "TOUR_SECTION") {
			return true
		}
	}
	return false
}

func isEdgeList(lines []tourLine) bool {
	if len(lines[0].fields) != 2 || len(lines) < 2 {
		return false
	}
	for _, l := range lines[1:] {
		if len(l.fields) != 3 {
			return false
		}
	}
	return true
}

func parseTSPLIBTour(lines []tourLine) (Tour, error) {
	var t Tour
	inSection := false
	for _, l := range lines {
		if !inSection {
			if strings.HasPrefix(strings.ToUpper(l.fields[0]), "TOUR_SECTION") {
				inSection = true
			}
			continue
		}
		for _, f := range l.fields {
			if strings.EqualFold(f, "EOF") {
				return t, nil
			}
			id, err := atoi(l.n, f)
			if err != nil {
				return nil, err
			}
			if id == -1 {
				return t, nil
			}
			t = append(t, id-1)
		}
	}
	return t, nil
}

func parseEdgeList(lines []tourLine, n int) (Tour, error) {
	count, err := atoi(lines[0].n, lines[0].fields[0])
	if err != nil {
		return nil, err
	}
	if count != n {
		return nil, errs.New(errs.ErrCodeInvalidTour, "tour declares %d points, want %d", count, n)
	}

	t := make(Tour, 0, len(lines)-1)
	prev := -1
	for _, l := range lines[1:] {
		from, err := atoi(l.n, l.fields[0])
		if err != nil {
			return nil, err
		}
		to, err := atoi(l.n, l.fields[1])
		if err != nil {
			return nil, err
		}
		if prev >= 0 && from != prev {
			return nil, errs.New(errs.ErrCodeInvalidTour,
				"line %d: edge %d-%d does not continue from %d", l.n, from, to, prev)
		}
		t = append(t, from)
		prev = to
	}
	if len(t) > 0 && prev != t[0] {
		return nil, errs.New(errs.ErrCodeInvalidTour, "edge list does not close the cycle at %d", t[0])
	}
	return t, nil
}

func parseSolution(lines []tourLine, n int) (Tour, error) {
	count, err := atoi(lines[0].n, lines[0].fields[0])
	if err != nil {
		return nil, err
	}
	if count != n {
		return nil, errs.New(errs.ErrCodeInvalidTour, "tour declares %d points, want %d", count, n)
	}

	t := make(Tour, 0, n)
	for i, l := range lines {
		fields := l.fields
		if i == 0 {
			fields = fields[1:]
		}
		for _, f := range fields {
			idx, err := atoi(l.n, f)
			if err != nil {
				return nil, err
			}
			t = append(t, idx)
		}
	}
	return t, nil
}

func atoi(line int, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidTour, "line %d: invalid index %q", line, s)
	}
	return v, nil
}

// WriteSolution writes t in Concorde solution format (count, then indices,
// ten per line).
func WriteSolution(w io.Writer, t Tour) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(t))
	for i, idx := range t {
		sep := " "
		if i%10 == 9 || i == len(t)-1 {
			sep = "\n"
		}
		fmt.Fprintf(bw, "%d%s", idx, sep)
	}
	return bw.Flush()
}
