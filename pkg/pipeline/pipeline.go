// Package pipeline provides the conversion pipeline for tspart.
//
// This package implements the complete load → problem → solve → tour →
// render pipeline used by every CLI command. One explicit [Options] value is
// threaded through all stages; nothing is read from global state, so tests
// can inject a fake solver and a temporary directory.
//
// # Architecture
//
// The pipeline consists of five stages:
//
//  1. Load: Parse the PBM bitmap or coordinate list into points
//  2. Problem: Quantize the points and write a TSPLIB problem file
//  3. Solve: Run the external solver (or reuse a cached tour)
//  4. Tour: Parse and validate the solver's tour
//  5. Render: Write the SVG drawing and optional previews
//
// Problem and solution files live in a per-run work directory that is
// removed when the run ends, on success and on failure.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "portrait.pbm",
//	    Runs:   3,
//	    Layer:  "TSP art",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Output, result.Stats.TourLength)
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/points"
	"github.com/matzehuels/tspart/pkg/render"
	"github.com/matzehuels/tspart/pkg/render/svg"
	"github.com/matzehuels/tspart/pkg/solver"
	"github.com/matzehuels/tspart/pkg/tsplib"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Config
// =============================================================================

const (
	// DefaultSolverKind is the solver used when none is configured.
	DefaultSolverKind = solver.KindLinkern

	// DefaultRuns is the number of linkern runs.
	DefaultRuns = 1

	// DefaultPreviewScale is the PNG preview scale factor.
	DefaultPreviewScale = 2.0

	// DefaultDotScale scales point radii when dots are drawn.
	DefaultDotScale = 1.0
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	render.FormatSVG: true,
	render.FormatPNG: true,
	render.FormatPDF: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the conversion pipeline.
// The toml tags name the keys of the configuration file.
type Options struct {
	// Input options
	Input string `toml:"-"`

	// Problem options
	Scale float64 `toml:"scale"`

	// Solver options
	Solver     string        `toml:"solver"`      // executable name or path
	SolverKind string        `toml:"solver_kind"` // linkern or concorde
	Runs       int           `toml:"runs"`
	Seed       int64         `toml:"seed"`
	Timeout    time.Duration `toml:"timeout"`
	NoCache    bool          `toml:"-"`

	// Render options
	Output       string   `toml:"-"`
	Formats      []string `toml:"formats"` // svg plus optional png/pdf previews
	PreviewScale float64  `toml:"preview_scale"`
	Stroke       string   `toml:"stroke"`
	StrokeWidth  float64  `toml:"stroke_width"`
	Fill         string   `toml:"fill"`
	Margin       float64  `toml:"margin"`
	Layer        string   `toml:"layer"`
	MaxSegments  int      `toml:"max_segments"`
	Closure      string   `toml:"closure"`
	Canvas       string   `toml:"canvas"`
	Dots         bool     `toml:"dots"`
	DotScale     float64  `toml:"dot_scale"`

	// Work files
	TempDir  string `toml:"temp_dir"`
	KeepTemp bool   `toml:"keep_temp"`
	SaveTour string `toml:"-"`

	// Runtime options (not serialized)
	Logger    *log.Logger   `toml:"-"`
	TSPSolver solver.Solver `toml:"-"` // overrides Solver/SolverKind

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID names the run's work directory.
	RunID string

	// Points is the loaded point set.
	Points *points.Set

	// Problem is the quantized TSPLIB problem.
	Problem *tsplib.Problem

	// Tour is the validated visiting order.
	Tour tsplib.Tour

	// Closed reports whether the rendered path returns to its start.
	Closed bool

	// SVG is the rendered document.
	SVG []byte

	// Output is the path the SVG was written to.
	Output string

	// Previews maps preview formats to the files written for them.
	Previews map[string]string

	// WorkDir is the kept work directory, when KeepTemp is set.
	WorkDir string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the tour came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PointCount int
	Scale      float64
	TourLength float64
	Paths      int
	LoadTime   time.Duration
	SolveTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TourHit bool // Whether the tour came from the cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidOption, "invalid format: %q (must be one of: svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset fields with their defaults.
func (o *Options) SetDefaults() {
	o.SetSolverDefaults()
	o.SetRenderDefaults()
}

// SetSolverDefaults sets default values for the solve stage.
func (o *Options) SetSolverDefaults() {
	if o.SolverKind == "" {
		o.SolverKind = DefaultSolverKind
	}
	if o.Runs == 0 {
		o.Runs = DefaultRuns
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.PreviewScale == 0 {
		o.PreviewScale = DefaultPreviewScale
	}
	if o.Stroke == "" {
		o.Stroke = svg.DefaultStroke
	}
	if o.StrokeWidth == 0 {
		o.StrokeWidth = svg.DefaultStrokeWidth
	}
	if o.Fill == "" {
		o.Fill = svg.DefaultFill
	}
	if o.Closure == "" {
		o.Closure = string(svg.ClosureAuto)
	}
	if o.Canvas == "" {
		o.Canvas = string(svg.CanvasExtents)
	}
	if o.DotScale == 0 {
		o.DotScale = DefaultDotScale
	}
	if o.Output == "" && o.Input != "" {
		o.Output = DefaultOutput(o.Input)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// Validate rejects unknown enum values and out-of-range numbers.
func (o *Options) Validate() error {
	if o.Input == "" {
		return errs.New(errs.ErrCodeInvalidOption, "input file is required")
	}
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// ValidateForSolve checks the problem and solver settings.
func (o *Options) ValidateForSolve() error {
	if o.Scale < 0 {
		return errs.New(errs.ErrCodeInvalidOption, "scale must be positive, got %v", o.Scale)
	}
	if o.Runs < 1 {
		return errs.New(errs.ErrCodeInvalidOption, "runs must be at least 1, got %d", o.Runs)
	}
	if o.Timeout < 0 {
		return errs.New(errs.ErrCodeInvalidOption, "timeout must not be negative, got %s", o.Timeout)
	}
	if o.TSPSolver != nil {
		return nil
	}
	if _, err := solver.New(o.SolverKind, solver.Options{}); err != nil {
		return err
	}
	if o.Solver != "" {
		return errs.ValidateExecutable(o.Solver)
	}
	return nil
}

// ValidateForRender checks the presentation settings.
func (o *Options) ValidateForRender() error {
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if _, err := svg.ParseClosure(o.Closure); err != nil {
		return err
	}
	if _, err := svg.ParseCanvas(o.Canvas); err != nil {
		return err
	}
	if err := errs.ValidateColor(o.Stroke); err != nil {
		return err
	}
	if err := errs.ValidateColor(o.Fill); err != nil {
		return err
	}
	if o.Fill != svg.DefaultFill && o.MaxSegments > 0 {
		return errs.New(errs.ErrCodeInvalidOption, "fill requires a single path (max segments 0)")
	}
	if o.StrokeWidth <= 0 {
		return errs.New(errs.ErrCodeInvalidOption, "stroke width must be positive, got %v", o.StrokeWidth)
	}
	if o.Margin < 0 {
		return errs.New(errs.ErrCodeInvalidOption, "margin must not be negative, got %v", o.Margin)
	}
	if o.MaxSegments < 0 {
		return errs.New(errs.ErrCodeInvalidOption, "max segments must not be negative, got %d", o.MaxSegments)
	}
	if o.PreviewScale <= 0 {
		return errs.New(errs.ErrCodeInvalidOption, "preview scale must be positive, got %v", o.PreviewScale)
	}
	if o.DotScale <= 0 {
		return errs.New(errs.ErrCodeInvalidOption, "dot scale must be positive, got %v", o.DotScale)
	}
	return errs.ValidateLayerLabel(o.Layer)
}

// NewSolver builds the configured solver, or returns the injected one.
func (o *Options) NewSolver() (solver.Solver, error) {
	if o.TSPSolver != nil {
		return o.TSPSolver, nil
	}
	return solver.New(o.SolverKind, solver.Options{
		Executable: o.Solver,
		Runs:       o.Runs,
		Seed:       o.Seed,
		Timeout:    o.Timeout,
		Logger:     o.Logger,
	})
}

// SVGOptions returns the renderer options for a tour from a solver that
// does or does not report cycles.
func (o *Options) SVGOptions(solverClosed bool) []svg.Option {
	closure, _ := svg.ParseClosure(o.Closure)
	canvas, _ := svg.ParseCanvas(o.Canvas)
	opts := []svg.Option{
		svg.WithClosed(closure.Resolve(solverClosed)),
		svg.WithCanvas(canvas),
		svg.WithMargin(o.Margin),
		svg.WithStroke(o.Stroke),
		svg.WithStrokeWidth(o.StrokeWidth),
		svg.WithFill(o.Fill),
		svg.WithLayer(o.Layer),
		svg.WithMaxSegments(o.MaxSegments),
		svg.WithComment("Created with tspart"),
	}
	if o.Dots {
		opts = append(opts, svg.WithDots(o.DotScale))
	}
	return opts
}

// DefaultOutput derives the SVG path from the input path: the extension is
// replaced with ".svg", or ".SVG" for upper-case ".PBM"/".PTS" inputs.
func DefaultOutput(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if ext == ".PBM" || ext == ".PTS" {
		return base + ".SVG"
	}
	return base + ".svg"
}

// PreviewPath returns the preview file path for format next to output.
func PreviewPath(output, format string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "." + format
}

// ProblemName derives the TSPLIB NAME from the input path.
func ProblemName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (o *Options) String() string {
	return fmt.Sprintf("%s → %s (%s, runs=%d)", o.Input, o.Output, o.SolverKind, o.Runs)
}
