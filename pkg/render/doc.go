// Package render turns solved tours into drawings.
//
// The [svg] subpackage produces the plotter-ready SVG document. This package
// converts any SVG into raster or print previews with the external
// rsvg-convert tool (from librsvg):
//
//	doc, err := svg.Render(set, tour, svg.WithStroke("black"))
//	png, err := render.ToPNG(ctx, doc, 2.0) // 2x scale
//	pdf, err := render.ToPDF(ctx, doc)
//
// Previews are optional; plotters consume the SVG directly.
//
// [svg]: github.com/matzehuels/tspart/pkg/render/svg
package render
