package source

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/tspart/pkg/points"
)

// PBM parses Portable Bitmap files in ASCII (P1) and raw (P4) encodings.
//
// A set bit is black and becomes a point at (column, row), with row 0 at the
// top of the image. Points are emitted in raster order.
type PBM struct{}

// Name returns "pbm".
func (PBM) Name() string { return "pbm" }

// Parse decodes a PBM image.
func (PBM) Parse(data []byte) (*points.Set, error) {
	if len(data) < 3 || data[0] != 'P' || (data[1] != '1' && data[1] != '4') || !isSpace(data[2]) {
		return nil, ErrNotThisFormat
	}
	raw := data[1] == '4'

	h := &pbmHeader{data: data, pos: 2}
	width, err := h.int("width")
	if err != nil {
		return nil, err
	}
	height, err := h.int("height")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid bitmap dimensions %dx%d", width, height)
	}

	var pts []points.Point
	if raw {
		if h.pos >= len(data) {
			return nil, fmt.Errorf("premature end of bitmap data at row 0 of %d", height)
		}
		// Exactly one whitespace byte separates the header from the raster.
		pts, err = decodeP4(data[h.pos+1:], width, height)
	} else {
		pts, err = decodeP1(data[h.pos:], width, height)
	}
	if err != nil {
		return nil, err
	}
	return points.NewRaster("pbm", width, height, pts), nil
}

// pbmHeader tokenizes the whitespace- and comment-separated header fields.
type pbmHeader struct {
	data []byte
	pos  int
}

func (h *pbmHeader) int(field string) (int, error) {
	h.skip()
	start := h.pos
	for h.pos < len(h.data) && !isSpace(h.data[h.pos]) && h.data[h.pos] != '#' {
		h.pos++
	}
	tok := string(h.data[start:h.pos])
	if tok == "" {
		return 0, fmt.Errorf("missing bitmap %s", field)
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("invalid bitmap %s %q", field, tok)
	}
	return n, nil
}

// skip advances past whitespace and "#" comments.
func (h *pbmHeader) skip() {
	for h.pos < len(h.data) {
		switch c := h.data[h.pos]; {
		case isSpace(c):
			h.pos++
		case c == '#':
			if i := bytes.IndexByte(h.data[h.pos:], '\n'); i >= 0 {
				h.pos += i + 1
			} else {
				h.pos = len(h.data)
			}
		default:
			return
		}
	}
}

func decodeP1(body []byte, width, height int) ([]points.Point, error) {
	var pts []points.Point
	col, row := 0, 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case isSpace(c):
			continue
		case c == '#':
			j := bytes.IndexByte(body[i:], '\n')
			if j < 0 {
				i = len(body)
			} else {
				i += j
			}
			continue
		case c != '0' && c != '1':
			return nil, fmt.Errorf("invalid bitmap content %q at row %d", c, row)
		}

		if row >= height {
			return nil, fmt.Errorf("too much bitmap data (expected %d rows)", height)
		}
		if c == '1' {
			pts = append(pts, points.Point{X: float64(col), Y: float64(row)})
		}
		if col++; col == width {
			col = 0
			row++
		}
	}
	if row != height || col != 0 {
		return nil, fmt.Errorf("premature end of bitmap data at row %d of %d", row, height)
	}
	return pts, nil
}

func decodeP4(body []byte, width, height int) ([]points.Point, error) {
	stride := width >> 3
	if width&7 != 0 {
		stride++
	}
	// Compare by division so huge headers cannot overflow stride*height.
	if height > len(body)/stride {
		return nil, fmt.Errorf("premature end of bitmap data at row %d of %d", len(body)/stride, height)
	}
	// A single trailing whitespace byte is tolerated.
	if extra := body[stride*height:]; len(extra) > 1 || (len(extra) == 1 && !isSpace(extra[0])) {
		return nil, fmt.Errorf("too much bitmap data (%d bytes after %d rows)", len(extra), height)
	}

	var pts []points.Point
	for row := 0; row < height; row++ {
		line := body[row*stride : (row+1)*stride]
		for col := 0; col < width; col++ {
			if line[col>>3]&(0x80>>(col&7)) != 0 {
				pts = append(pts, points.Point{X: float64(col), Y: float64(row)})
			}
		}
	}
	return pts, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
