// Package pkg provides the libraries behind tspart, which draws images as a
// single continuous line.
//
// # Overview
//
// tspart turns a stippled bitmap or a list of points into a traveling
// salesman problem, hands it to an external solver and draws the resulting
// tour as an SVG path for pen plotters. The pkg directory is organized by
// pipeline stage:
//
//  1. [source] - Input parsing (PBM bitmaps, coordinate lists)
//  2. [tsplib] - TSPLIB problem files and solver tours
//  3. [solver] - linkern and concorde drivers with a tour cache
//  4. [render] - SVG drawing and PNG/PDF previews
//  5. [pipeline] - Orchestration (load → problem → solve → render)
//
// # Architecture
//
// The data flow through tspart:
//
//	PBM bitmap / coordinate list
//	         ↓
//	    [source] package (points.Set)
//	         ↓
//	    [tsplib] package (problem file)
//	         ↓
//	    [solver] package (tour, cached by problem)
//	         ↓
//	    [render/svg] package (continuous-line SVG)
//
// # Quick Start
//
// Run the whole pipeline:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/tspart/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Input: "portrait.pbm",
//	    Runs:  3,
//	})
//	// result.Output == "portrait.svg"
//
// Or drive the stages yourself:
//
//	set, _ := source.Load("stipple.pts")
//	problem, _ := tsplib.NewProblem("stipple", set, 0)
//	// write problem to stipple.tsp, then:
//	_ = solver.NewLinkern(solver.Options{}).Solve(ctx, "stipple.tsp", "stipple.sol")
//	tour, _ := tsplib.ReadTour("stipple.sol", set.Len())
//	doc, _ := svg.Render(set, tour, svg.WithMaxSegments(500))
//
// # Supporting Packages
//
//   - [cache] - Tour cache backends (file, Redis, null)
//   - [errors] - Error codes shared by every stage
//   - [observability] - Hooks for logging and metrics
//   - [points] - The point set type
//
// [source]: github.com/matzehuels/tspart/pkg/source
// [tsplib]: github.com/matzehuels/tspart/pkg/tsplib
// [solver]: github.com/matzehuels/tspart/pkg/solver
// [render]: github.com/matzehuels/tspart/pkg/render
// [render/svg]: github.com/matzehuels/tspart/pkg/render/svg
// [pipeline]: github.com/matzehuels/tspart/pkg/pipeline
// [cache]: github.com/matzehuels/tspart/pkg/cache
// [errors]: github.com/matzehuels/tspart/pkg/errors
// [observability]: github.com/matzehuels/tspart/pkg/observability
// [points]: github.com/matzehuels/tspart/pkg/points
package pkg
