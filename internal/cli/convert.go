package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/pipeline"
	"github.com/matzehuels/tspart/pkg/source"
)

// drawFlags holds the command-line flags shared by convert and render.
// Only flags set on the command line override the configuration file.
type drawFlags struct {
	output       string
	formats      string
	previewScale float64
	stroke       string
	strokeWidth  float64
	fill         string
	margin       float64
	layer        string
	maxSegments  int
	closure      string
	canvas       string
	dots         bool
	dotScale     float64
}

// solveFlags holds the solver flags of the convert command.
type solveFlags struct {
	solver     string
	solverKind string
	runs       int
	seed       int64
	timeout    time.Duration
	scale      float64
	keepTemp   bool
	tempDir    string
	saveTour   string
	noCache    bool
	count      bool
}

func (f *drawFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "output SVG file (default: <input>.svg)")
	fs.StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	fs.Float64Var(&f.previewScale, "preview-scale", pipeline.DefaultPreviewScale, "PNG preview scale factor")
	fs.StringVar(&f.stroke, "stroke", "", "stroke color (default #000000)")
	fs.Float64Var(&f.strokeWidth, "stroke-width", 0, "stroke width in user units (default 1)")
	fs.StringVar(&f.fill, "fill", "", "fill color for a single closed path (default none)")
	fs.Float64Var(&f.margin, "margin", 0, "blank border around the drawing")
	fs.StringVarP(&f.layer, "layer", "L", "", "wrap the drawing in an Inkscape layer with this label")
	fs.IntVarP(&f.maxSegments, "max-segments", "m", 0, "split the path into paths of at most N segments (0 = no limit)")
	fs.StringVar(&f.closure, "closure", "", "path closure: auto (default), open, closed")
	fs.StringVar(&f.canvas, "canvas", "", "drawing frame: extents (default), source")
	fs.BoolVar(&f.dots, "dots", false, "draw a dot at every point that has a radius")
	fs.Float64Var(&f.dotScale, "dot-scale", pipeline.DefaultDotScale, "dot radius multiplier")
}

func (f *drawFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	if fs.Changed("output") {
		opts.Output = f.output
	}
	if fs.Changed("format") {
		opts.Formats = parseFormats(f.formats)
	}
	if fs.Changed("preview-scale") {
		opts.PreviewScale = f.previewScale
	}
	if fs.Changed("stroke") {
		opts.Stroke = f.stroke
	}
	if fs.Changed("stroke-width") {
		opts.StrokeWidth = f.strokeWidth
	}
	if fs.Changed("fill") {
		opts.Fill = f.fill
	}
	if fs.Changed("margin") {
		opts.Margin = f.margin
	}
	if fs.Changed("layer") {
		opts.Layer = f.layer
	}
	if fs.Changed("max-segments") {
		opts.MaxSegments = f.maxSegments
	}
	if fs.Changed("closure") {
		opts.Closure = f.closure
	}
	if fs.Changed("canvas") {
		opts.Canvas = f.canvas
	}
	if fs.Changed("dots") {
		opts.Dots = f.dots
	}
	if fs.Changed("dot-scale") {
		opts.DotScale = f.dotScale
	}
}

func (f *solveFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.solver, "solver", "", "solver executable name or path (default: the solver kind)")
	fs.StringVar(&f.solverKind, "solver-kind", "", "solver: linkern (default), concorde")
	fs.IntVarP(&f.runs, "runs", "r", pipeline.DefaultRuns, "number of linkern runs")
	fs.Int64Var(&f.seed, "seed", 0, "solver random seed (0 = solver default)")
	fs.DurationVar(&f.timeout, "timeout", 0, "stop the solver after this long (0 = no limit)")
	fs.Float64Var(&f.scale, "scale", 0, "coordinate scale factor for the solver (0 = automatic)")
	fs.BoolVar(&f.keepTemp, "keep-temp", false, "keep the problem and solution files")
	fs.StringVar(&f.tempDir, "temp-dir", "", "directory for work files (default: system temp dir)")
	fs.StringVar(&f.saveTour, "save-tour", "", "also write the tour to this file")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the tour cache")
	fs.BoolVarP(&f.count, "count", "c", false, "report the number of points and exit")
}

func (f *solveFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	if fs.Changed("solver") {
		opts.Solver = f.solver
	}
	if fs.Changed("solver-kind") {
		opts.SolverKind = f.solverKind
	}
	if fs.Changed("runs") {
		opts.Runs = f.runs
	}
	if fs.Changed("seed") {
		opts.Seed = f.seed
	}
	if fs.Changed("timeout") {
		opts.Timeout = f.timeout
	}
	if fs.Changed("scale") {
		opts.Scale = f.scale
	}
	if fs.Changed("keep-temp") {
		opts.KeepTemp = f.keepTemp
	}
	if fs.Changed("temp-dir") {
		opts.TempDir = f.tempDir
	}
	if fs.Changed("save-tour") {
		opts.SaveTour = f.saveTour
	}
	if fs.Changed("no-cache") {
		opts.NoCache = f.noCache
	}
}

// convertCommand creates the convert command that runs the full pipeline.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		draw  drawFlags
		solve solveFlags
	)

	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Convert a PBM bitmap or point list into a continuous-line SVG",
		Long: `Convert a PBM bitmap or point list into a continuous-line SVG.

Every black pixel of a PBM bitmap (or every line of a coordinate list) becomes
a point. The points are written as a TSPLIB problem, the solver finds a short
tour through them, and the tour is drawn as a single SVG path.

Solved tours are cached, so re-rendering with other drawing options does not
run the solver again.

Examples:
  tspart convert portrait.pbm
  tspart convert stipple.pts -r 5 --layer "TSP art"
  tspart convert portrait.pbm -m 500 --format svg,png
  tspart convert portrait.pbm --count`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := c.resolveInput(args)
			if err != nil {
				return err
			}
			if solve.count {
				return c.runCount(input)
			}

			cfg, _, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			opts := cfg.Convert
			opts.Input = input
			solve.apply(cmd, &opts)
			draw.apply(cmd, &opts)

			return c.runConvert(cmd, opts, cfg.Cache)
		},
	}

	solve.register(cmd)
	draw.register(cmd)

	return cmd
}

// resolveInput returns the input argument, or asks for one when running
// on a terminal.
func (c *CLI) resolveInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", errs.New(errs.ErrCodeInvalidOption, "input file is required")
	}
	path, err := pickInput(".")
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", errs.New(errs.ErrCodeInvalidOption, "no input file selected")
	}
	return path, nil
}

// runConvert executes the pipeline and reports the result.
func (c *CLI) runConvert(cmd *cobra.Command, opts pipeline.Options, cc CacheConfig) error {
	ctx := cmd.Context()

	runner := c.newRunner(cmd, cc, opts.NoCache)
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := c.startSpinner(ctx, "Solving tour...")
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.StopWithError("Interrupted")
			return ctx.Err()
		}
		spinner.Stop()
		return err
	}

	spinner.StopWithSuccess("Drawing complete")
	printFile(result.Output)
	for _, format := range opts.Formats {
		if path, ok := result.Previews[format]; ok {
			printFile(path)
		}
	}
	printStats(result.Stats, result.CacheInfo.TourHit)
	if result.WorkDir != "" {
		printDetail("Work files: %s", result.WorkDir)
	}
	return nil
}

// runCount reports the points in input without solving.
func (c *CLI) runCount(input string) error {
	set, err := source.Load(input)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	fmt.Println(countTable(input, set))
	return nil
}

// startSpinner shows a spinner on interactive terminals.
func (c *CLI) startSpinner(ctx context.Context, message string) *Spinner {
	s := newSpinnerWithContext(ctx, message)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		s.Start()
	}
	return s
}
