// Package source reads stipple point sets from input files.
//
// Input formats are tried in a fixed order; each [Format] either returns a
// point set or reports [ErrNotThisFormat]. The first format that recognizes
// the data wins. A format that recognizes the data but finds it malformed
// fails the whole load, so errors always point at the offending line or
// raster row instead of falling through to the next format.
//
// # Formats
//
//   - [PBM]: Portable Bitmap, ASCII (P1) and raw (P4). Every black pixel is a point.
//   - [Coords]: text with one "x y" or "x y radius" row per line. Fields may be
//     separated by whitespace or commas; lines starting with "#" are comments.
//
// # Usage
//
//	set, err := source.Load("portrait.pbm")
//	if errors.Is(err, errors.ErrCodeEmptyInput) {
//	    // nothing to draw
//	}
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/points"
)

// ErrNotThisFormat is returned by a Format that does not recognize its input.
var ErrNotThisFormat = errors.New("not this format")

// Format parses one input file format.
type Format interface {
	// Name returns the format identifier (e.g., "pbm", "coords").
	Name() string
	// Parse returns the points in data, or ErrNotThisFormat if data is not
	// in this format.
	Parse(data []byte) (*points.Set, error)
}

// DefaultFormats returns the formats tried by Load, in order.
// Coords comes last since it accepts any text file.
func DefaultFormats() []Format {
	return []Format{PBM{}, Coords{}}
}

// Load reads the file at path and parses it with the given formats
// (DefaultFormats when none are given).
func Load(path string, formats ...Format) (*points.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInputFormat, err, "read %s", path)
	}
	return Parse(filepath.Base(path), data, formats...)
}

// Parse parses data with the given formats (DefaultFormats when none are
// given). The name is only used in error messages.
func Parse(name string, data []byte, formats ...Format) (*points.Set, error) {
	if len(formats) == 0 {
		formats = DefaultFormats()
	}

	for _, f := range formats {
		set, err := f.Parse(data)
		if errors.Is(err, ErrNotThisFormat) {
			continue
		}
		if err != nil {
			if errs.GetCode(err) != "" {
				return nil, err
			}
			return nil, errs.Wrap(errs.ErrCodeInputFormat, err, "%s (%s)", name, f.Name())
		}
		if set.Len() == 0 {
			return nil, errs.New(errs.ErrCodeEmptyInput, "%s contains no points", name)
		}
		return set, nil
	}

	return nil, errs.New(errs.ErrCodeInputFormat,
		"%s is not a supported file type (must be a PBM bitmap or a list of coordinates)", name)
}

// Count returns the number of points in the file at path.
func Count(path string, formats ...Format) (int, error) {
	set, err := Load(path, formats...)
	if err != nil {
		return 0, err
	}
	return set.Len(), nil
}

// lineError builds a ParseError for line n (1-based).
func lineError(n int, content, reason string, args ...any) error {
	return &errs.ParseError{Line: n, Content: content, Reason: fmt.Sprintf(reason, args...)}
}
