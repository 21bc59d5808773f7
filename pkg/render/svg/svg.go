// Package svg renders a tour through a point set as a continuous-line SVG
// drawing for pen plotters.
//
// The tour becomes one path of relative line segments starting at the first
// tour point:
//
//	<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
//	  <path style="fill:none;stroke:#000000;stroke-width:1" d="m 0,0 10,0 0,10 Z"/>
//	</svg>
//
// [WithMaxSegments] splits long tours into several paths for plotters with
// limited path buffers; consecutive paths share their boundary point so the
// drawing stays continuous. Output is deterministic: rendering the same
// inputs twice yields identical bytes.
package svg

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/points"
	"github.com/matzehuels/tspart/pkg/tsplib"
)

// Closure selects whether the path returns to its starting point.
type Closure string

const (
	// ClosureAuto follows the solver's convention.
	ClosureAuto   Closure = "auto"
	ClosureOpen   Closure = "open"
	ClosureClosed Closure = "closed"
)

// ParseClosure validates a closure name. Empty means ClosureAuto.
func ParseClosure(s string) (Closure, error) {
	switch c := Closure(strings.ToLower(s)); c {
	case "":
		return ClosureAuto, nil
	case ClosureAuto, ClosureOpen, ClosureClosed:
		return c, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidOption, "invalid closure: %q (must be one of: auto, open, closed)", s)
	}
}

// Resolve returns whether the path is closed, given whether the solver
// reports cycles.
func (c Closure) Resolve(solverClosed bool) bool {
	switch c {
	case ClosureOpen:
		return false
	case ClosureClosed:
		return true
	default:
		return solverClosed
	}
}

// Canvas selects the drawing frame.
type Canvas string

const (
	// CanvasExtents fits the frame to the point coordinates.
	CanvasExtents Canvas = "extents"
	// CanvasSource uses the bitmap frame the points came from, when known.
	CanvasSource Canvas = "source"
)

// ParseCanvas validates a canvas name. Empty means CanvasExtents.
func ParseCanvas(s string) (Canvas, error) {
	switch c := Canvas(strings.ToLower(s)); c {
	case "":
		return CanvasExtents, nil
	case CanvasExtents, CanvasSource:
		return c, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidOption, "invalid canvas: %q (must be one of: extents, source)", s)
	}
}

// Defaults.
const (
	DefaultStroke      = "#000000"
	DefaultStrokeWidth = 1.0
	DefaultFill        = "none"
)

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	closed      bool
	canvas      Canvas
	margin      float64
	stroke      string
	strokeWidth float64
	fill        string
	layer       string
	maxSegments int
	dots        bool
	dotScale    float64
	comment     string
}

// WithClosed draws the segment from the last point back to the first.
func WithClosed(closed bool) Option { return func(r *renderer) { r.closed = closed } }

// WithCanvas selects the drawing frame.
func WithCanvas(c Canvas) Option { return func(r *renderer) { r.canvas = c } }

// WithMargin adds a blank border around the frame.
func WithMargin(m float64) Option { return func(r *renderer) { r.margin = m } }

// WithStroke sets the line color.
func WithStroke(color string) Option { return func(r *renderer) { r.stroke = color } }

// WithStrokeWidth sets the line width in user units.
func WithStrokeWidth(w float64) Option { return func(r *renderer) { r.strokeWidth = w } }

// WithFill sets the fill color. It only applies to a single closed path;
// split or open paths are never filled.
func WithFill(color string) Option { return func(r *renderer) { r.fill = color } }

// WithLayer wraps the drawing in an Inkscape layer with the given label.
func WithLayer(label string) Option { return func(r *renderer) { r.layer = label } }

// WithMaxSegments limits each path to n line segments. Zero means no limit.
func WithMaxSegments(n int) Option { return func(r *renderer) { r.maxSegments = n } }

// WithDots draws a circle at every point that carries a radius, with the
// radius multiplied by scale.
func WithDots(scale float64) Option {
	return func(r *renderer) {
		r.dots = true
		r.dotScale = scale
	}
}

// WithComment adds an XML comment after the declaration.
func WithComment(text string) Option { return func(r *renderer) { r.comment = text } }

func newRenderer(opts ...Option) renderer {
	r := renderer{
		closed:      true,
		canvas:      CanvasExtents,
		stroke:      DefaultStroke,
		strokeWidth: DefaultStrokeWidth,
		fill:        DefaultFill,
		dotScale:    1,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *renderer) validate() error {
	if err := errs.ValidateColor(r.stroke); err != nil {
		return err
	}
	if err := errs.ValidateColor(r.fill); err != nil {
		return err
	}
	if err := errs.ValidateLayerLabel(r.layer); err != nil {
		return err
	}
	if strings.Contains(r.comment, "--") {
		return errs.New(errs.ErrCodeInvalidOption, "comment must not contain \"--\"")
	}
	if !(r.strokeWidth > 0) || math.IsInf(r.strokeWidth, 0) {
		return errs.New(errs.ErrCodeInvalidOption, "stroke width must be positive, got %v", r.strokeWidth)
	}
	if r.margin < 0 || math.IsNaN(r.margin) || math.IsInf(r.margin, 0) {
		return errs.New(errs.ErrCodeInvalidOption, "margin must be non-negative, got %v", r.margin)
	}
	if r.maxSegments < 0 {
		return errs.New(errs.ErrCodeInvalidOption, "max segments must be non-negative, got %d", r.maxSegments)
	}
	if r.dots && !(r.dotScale > 0) {
		return errs.New(errs.ErrCodeInvalidOption, "dot scale must be positive, got %v", r.dotScale)
	}
	if _, err := ParseCanvas(string(r.canvas)); err != nil {
		return err
	}
	return nil
}

// frame is the drawing area and the translation applied to points.
type frame struct {
	width, height float64
	dx, dy        float64
}

func (r *renderer) frame(set *points.Set) frame {
	if r.canvas == CanvasSource && set.HasFrame() {
		return frame{
			width:  float64(set.Width) + 2*r.margin,
			height: float64(set.Height) + 2*r.margin,
			dx:     r.margin,
			dy:     r.margin,
		}
	}
	b := set.Bounds()
	return frame{
		width:  b.Width() + 2*r.margin,
		height: b.Height() + 2*r.margin,
		dx:     r.margin - b.MinX,
		dy:     r.margin - b.MinY,
	}
}

// Render returns the SVG document for tour through set.
func Render(set *points.Set, tour tsplib.Tour, opts ...Option) ([]byte, error) {
	doc, err := Document(set, tour, opts...)
	if err != nil {
		return nil, err
	}
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "serialize svg")
	}
	return out, nil
}

// Document builds the SVG DOM for tour through set.
func Document(set *points.Set, tour tsplib.Tour, opts ...Option) (*etree.Document, error) {
	if set.Len() == 0 {
		return nil, errs.New(errs.ErrCodeEmptyInput, "nothing to render")
	}
	if err := tour.Validate(set.Len()); err != nil {
		return nil, err
	}
	r := newRenderer(opts...)
	if err := r.validate(); err != nil {
		return nil, err
	}
	f := r.frame(set)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="no"`)
	if r.comment != "" {
		doc.CreateComment(" " + r.comment + " ")
	}

	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	if r.layer != "" {
		root.CreateAttr("xmlns:inkscape", "http://www.inkscape.org/namespaces/inkscape")
	}
	root.CreateAttr("version", "1.1")
	root.CreateAttr("width", num(f.width))
	root.CreateAttr("height", num(f.height))
	root.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", num(f.width), num(f.height)))

	parent := root
	if r.layer != "" {
		parent = root.CreateElement("g")
		parent.CreateAttr("id", "layer1")
		parent.CreateAttr("inkscape:groupmode", "layer")
		parent.CreateAttr("inkscape:label", r.layer)
	}

	paths := r.paths(set, tour, f)
	fill := "none"
	if len(paths) == 1 && r.closed {
		fill = r.fill
	}
	style := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s", fill, r.stroke, num(r.strokeWidth))
	for _, d := range paths {
		p := parent.CreateElement("path")
		p.CreateAttr("style", style)
		p.CreateAttr("d", d)
	}

	if r.dots && set.HasRadii() {
		g := parent.CreateElement("g")
		g.CreateAttr("id", "dots")
		g.CreateAttr("style", fmt.Sprintf("fill:%s;stroke:none", r.stroke))
		for _, idx := range tour {
			pt := set.At(idx)
			if pt.Radius <= 0 {
				continue
			}
			c := g.CreateElement("circle")
			c.CreateAttr("cx", num(pt.X+f.dx))
			c.CreateAttr("cy", num(pt.Y+f.dy))
			c.CreateAttr("r", num(pt.Radius*r.dotScale))
		}
	}
	return doc, nil
}

// paths returns the d attributes of the tour paths. Points are rounded to
// the output precision first and segments are the differences of rounded
// points, so relative moves never accumulate rounding error.
func (r *renderer) paths(set *points.Set, tour tsplib.Tour, f frame) []string {
	route := make([][2]int64, 0, len(tour)+1)
	for _, idx := range tour {
		pt := set.At(idx)
		route = append(route, [2]int64{milli(pt.X + f.dx), milli(pt.Y + f.dy)})
	}
	segments := len(route) - 1
	closing := r.closed && len(route) > 1
	if closing {
		segments++
	}

	limit := r.maxSegments
	if limit == 0 || limit >= segments {
		// One path: a closed tour ends with Z.
		var sb strings.Builder
		writeMove(&sb, route[0])
		for i := 1; i < len(route); i++ {
			writeDelta(&sb, route[i-1], route[i])
		}
		if r.closed {
			sb.WriteString(" Z")
		}
		return []string{sb.String()}
	}

	// Split: draw the closing segment explicitly so every path is open.
	if closing {
		route = append(route, route[0])
	}
	var out []string
	for start := 0; start < len(route)-1; start += limit {
		end := min(start+limit, len(route)-1)
		var sb strings.Builder
		writeMove(&sb, route[start])
		for i := start + 1; i <= end; i++ {
			writeDelta(&sb, route[i-1], route[i])
		}
		out = append(out, sb.String())
	}
	return out
}

func writeMove(sb *strings.Builder, p [2]int64) {
	sb.WriteString("m ")
	sb.WriteString(fixed(p[0]))
	sb.WriteByte(',')
	sb.WriteString(fixed(p[1]))
}

func writeDelta(sb *strings.Builder, from, to [2]int64) {
	sb.WriteByte(' ')
	sb.WriteString(fixed(to[0] - from[0]))
	sb.WriteByte(',')
	sb.WriteString(fixed(to[1] - from[1]))
}

// milli rounds v to thousandths.
func milli(v float64) int64 { return int64(math.Round(v * 1000)) }

// fixed formats a thousandths count as a decimal with at most 3 places.
func fixed(m int64) string {
	neg := m < 0
	if neg {
		m = -m
	}
	s := strconv.FormatInt(m/1000, 10)
	if frac := m % 1000; frac != 0 {
		s += strings.TrimRight(fmt.Sprintf(".%03d", frac), "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}

// num formats v with at most 3 decimal places.
func num(v float64) string { return fixed(milli(v)) }
