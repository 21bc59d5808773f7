package svg

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/tspart/pkg/errors"
	"github.com/matzehuels/tspart/pkg/points"
	"github.com/matzehuels/tspart/pkg/tsplib"
)

func triangle() *points.Set {
	return points.New("coords", []points.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}})
}

// parse renders and reads the document back.
func parse(t *testing.T, set *points.Set, tour tsplib.Tour, opts ...Option) *etree.Element {
	t.Helper()
	out, err := Render(set, tour, opts...)
	require.NoError(t, err)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.SelectElement("svg")
	require.NotNil(t, root)
	return root
}

func pathData(root *etree.Element) []string {
	var ds []string
	for _, p := range root.FindElements("//path") {
		ds = append(ds, p.SelectAttrValue("d", ""))
	}
	return ds
}

func TestRenderTriangle(t *testing.T) {
	root := parse(t, triangle(), tsplib.Tour{0, 1, 2})

	assert.Equal(t, "10", root.SelectAttrValue("width", ""))
	assert.Equal(t, "10", root.SelectAttrValue("height", ""))
	assert.Equal(t, "0 0 10 10", root.SelectAttrValue("viewBox", ""))
	assert.Equal(t, []string{"m 0,0 10,0 0,10 Z"}, pathData(root))

	style := root.FindElement("//path").SelectAttrValue("style", "")
	assert.Equal(t, "fill:none;stroke:#000000;stroke-width:1", style)
}

func TestRenderFollowsTourOrder(t *testing.T) {
	root := parse(t, triangle(), tsplib.Tour{2, 0, 1}, WithClosed(false))
	assert.Equal(t, []string{"m 10,10 -10,-10 10,0"}, pathData(root))
}

func TestRenderDeterministic(t *testing.T) {
	set := points.New("coords", []points.Point{
		{X: 0.1234, Y: 5.5}, {X: 3.3333, Y: 2.2222}, {X: 7.0005, Y: 0.0004},
	})
	a, err := Render(set, tsplib.Tour{1, 2, 0}, WithLayer("TSP art"), WithMaxSegments(1))
	require.NoError(t, err)
	b, err := Render(set, tsplib.Tour{1, 2, 0}, WithLayer("TSP art"), WithMaxSegments(1))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderNoDrift(t *testing.T) {
	// Thirds cannot be represented with 3 decimals; the deltas must still
	// sum to the rounded absolute position of the last point.
	var pts []points.Point
	for i := 0; i < 30; i++ {
		pts = append(pts, points.Point{X: float64(i) / 3, Y: 0})
	}
	tour := make(tsplib.Tour, len(pts))
	for i := range tour {
		tour[i] = i
	}
	root := parse(t, points.New("coords", pts), tour, WithClosed(false))

	fields := strings.Fields(pathData(root)[0])[1:]
	var sum int64
	for _, f := range fields {
		x := strings.SplitN(f, ",", 2)[0]
		sum += milli(mustFloat(t, x))
	}
	assert.Equal(t, milli(29.0/3), sum)
}

func TestRenderMaxSegments(t *testing.T) {
	set := points.New("coords", []points.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 1},
	})
	tour := tsplib.Tour{0, 1, 2, 3, 4}

	tests := []struct {
		name   string
		opts   []Option
		want   []string
		filled bool
	}{
		{
			name: "closed split",
			opts: []Option{WithMaxSegments(2), WithFill("red")},
			want: []string{"m 0,0 1,0 1,0", "m 2,0 1,0 0,1", "m 3,1 -3,-1"},
		},
		{
			name: "open split",
			opts: []Option{WithMaxSegments(3), WithClosed(false)},
			want: []string{"m 0,0 1,0 1,0 1,0", "m 3,0 0,1"},
		},
		{
			name:   "limit equals segments",
			opts:   []Option{WithMaxSegments(5), WithFill("red")},
			want:   []string{"m 0,0 1,0 1,0 1,0 0,1 Z"},
			filled: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parse(t, set, tour, tt.opts...)
			assert.Equal(t, tt.want, pathData(root))
			style := root.FindElement("//path").SelectAttrValue("style", "")
			assert.Equal(t, tt.filled, strings.HasPrefix(style, "fill:red"), style)
		})
	}
}

func TestRenderCanvas(t *testing.T) {
	raster := points.NewRaster("pbm", 20, 30, []points.Point{{X: 5, Y: 5}, {X: 15, Y: 25}})
	tour := tsplib.Tour{0, 1}

	root := parse(t, raster, tour, WithCanvas(CanvasSource), WithMargin(2))
	assert.Equal(t, "24", root.SelectAttrValue("width", ""))
	assert.Equal(t, "34", root.SelectAttrValue("height", ""))
	assert.Equal(t, []string{"m 7,7 10,20 Z"}, pathData(root))

	root = parse(t, raster, tour, WithMargin(1))
	assert.Equal(t, "12", root.SelectAttrValue("width", ""))
	assert.Equal(t, "22", root.SelectAttrValue("height", ""))
	assert.Equal(t, []string{"m 1,1 10,20 Z"}, pathData(root))

	// Coordinate lists have no frame and fall back to extents.
	coords := points.New("coords", raster.Points())
	root = parse(t, coords, tour, WithCanvas(CanvasSource))
	assert.Equal(t, "10", root.SelectAttrValue("width", ""))
}

func TestRenderLayerAndDots(t *testing.T) {
	set := points.New("coords", []points.Point{{X: 0, Y: 0, Radius: 0.5}, {X: 4, Y: 0, Radius: 1}})
	root := parse(t, set, tsplib.Tour{0, 1},
		WithLayer(`Eggbot "TSP" <art>`), WithDots(2), WithStroke("blue"), WithStrokeWidth(0.25))

	layer := root.SelectElement("g")
	require.NotNil(t, layer)
	assert.Equal(t, "layer", layer.SelectAttrValue("inkscape:groupmode", ""))
	assert.Equal(t, `Eggbot "TSP" <art>`, layer.SelectAttrValue("inkscape:label", ""))

	circles := root.FindElements("//circle")
	require.Len(t, circles, 2)
	assert.Equal(t, "1", circles[0].SelectAttrValue("r", ""))
	assert.Equal(t, "4", circles[1].SelectAttrValue("cx", ""))
	assert.Equal(t, "2", circles[1].SelectAttrValue("r", ""))

	style := root.FindElement("//path").SelectAttrValue("style", "")
	assert.Equal(t, "fill:none;stroke:blue;stroke-width:0.25", style)
}

func TestRenderSinglePoint(t *testing.T) {
	root := parse(t, points.New("coords", []points.Point{{X: 3, Y: 4}}), tsplib.Tour{0})
	assert.Equal(t, []string{"m 0,0 Z"}, pathData(root))
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		set  *points.Set
		tour tsplib.Tour
		opts []Option
		code errs.Code
	}{
		{"empty", points.New("coords", nil), nil, nil, errs.ErrCodeEmptyInput},
		{"bad tour", triangle(), tsplib.Tour{0, 1, 1}, nil, errs.ErrCodeInvalidTour},
		{"short tour", triangle(), tsplib.Tour{0, 1}, nil, errs.ErrCodeInvalidTour},
		{"stroke injection", triangle(), tsplib.Tour{0, 1, 2}, []Option{WithStroke("red;opacity:0")}, errs.ErrCodeInvalidOption},
		{"zero width", triangle(), tsplib.Tour{0, 1, 2}, []Option{WithStrokeWidth(0)}, errs.ErrCodeInvalidOption},
		{"negative margin", triangle(), tsplib.Tour{0, 1, 2}, []Option{WithMargin(-1)}, errs.ErrCodeInvalidOption},
		{"negative segments", triangle(), tsplib.Tour{0, 1, 2}, []Option{WithMaxSegments(-1)}, errs.ErrCodeInvalidOption},
		{"bad canvas", triangle(), tsplib.Tour{0, 1, 2}, []Option{WithCanvas("page")}, errs.ErrCodeInvalidOption},
		{"comment", triangle(), tsplib.Tour{0, 1, 2}, []Option{WithComment("a -- b")}, errs.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.set, tt.tour, tt.opts...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.GetCode(err), "got %v", err)
		})
	}
}

func TestParseClosureAndCanvas(t *testing.T) {
	c, err := ParseClosure("")
	require.NoError(t, err)
	assert.Equal(t, ClosureAuto, c)
	assert.True(t, c.Resolve(true))
	assert.False(t, c.Resolve(false))
	assert.True(t, ClosureClosed.Resolve(false))
	assert.False(t, ClosureOpen.Resolve(true))

	_, err = ParseClosure("loop")
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidOption))

	cv, err := ParseCanvas("SOURCE")
	require.NoError(t, err)
	assert.Equal(t, CanvasSource, cv)
}

func TestFixed(t *testing.T) {
	tests := map[int64]string{
		0:     "0",
		1000:  "1",
		1500:  "1.5",
		-1500: "-1.5",
		1:     "0.001",
		-20:   "-0.02",
		12340: "12.34",
	}
	for in, want := range tests {
		assert.Equal(t, want, fixed(in), "fixed(%d)", in)
	}
	assert.Equal(t, "0.333", num(1.0/3))
	assert.Equal(t, "0", num(-0.0001))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.svg")

	require.NoError(t, WriteFile(path, []byte("<svg/>")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	err = WriteFile(filepath.Join(dir, "missing", "out.svg"), []byte("<svg/>"))
	assert.True(t, errs.Is(err, errs.ErrCodeWrite), "got %v", err)
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}
