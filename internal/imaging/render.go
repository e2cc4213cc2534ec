package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"golang.org/x/image/vector"

	"github.com/ironsheep/dotmarker/internal/geometry"
	"github.com/ironsheep/dotmarker/internal/marker"
)

// circleKappa places cubic Bézier control points for a quarter circle.
const circleKappa = 0.5522847498

// RenderOptions controls how markers are drawn.
type RenderOptions struct {
	// PixelsPerUnit converts marker units (e.g. mm) to pixels.
	PixelsPerUnit float64 `json:"pixels_per_unit"`

	// Margin is the white border around each marker in pixels.
	Margin int `json:"margin"`

	// Label prints the marker ID below the marker. It needs a margin of at
	// least 10 pixels.
	Label bool `json:"label"`

	// Columns is the number of markers per row on a sheet. Zero picks a
	// roughly square layout.
	Columns int `json:"columns"`

	// Border outlines the marker square with a one pixel line.
	Border bool `json:"border"`
}

// DefaultRenderOptions returns 10 pixels per unit with a labelled margin.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{PixelsPerUnit: 10, Margin: 20, Label: true}
}

func (o RenderOptions) validate() error {
	if o.PixelsPerUnit <= 0 || math.IsNaN(o.PixelsPerUnit) || math.IsInf(o.PixelsPerUnit, 0) {
		return fmt.Errorf("pixels per unit must be positive, got %g", o.PixelsPerUnit)
	}
	if o.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", o.Margin)
	}
	if o.Columns < 0 {
		return fmt.Errorf("columns must not be negative, got %d", o.Columns)
	}
	return nil
}

func (o RenderOptions) markerSide(def marker.Definition) int {
	return int(math.Ceil(def.Width*o.PixelsPerUnit)) + 2*o.Margin
}

// RenderMarker draws one marker as black anti-aliased dots on white.
//
// Marker point (u, v) lands at pixel position (Margin + u·PixelsPerUnit,
// Margin + v·PixelsPerUnit).
func RenderMarker(def marker.Definition, opts RenderOptions) (*image.Gray, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	side := opts.markerSide(def)
	img := image.NewGray(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	drawMarker(img, image.Point{}, def, opts)
	return img, nil
}

// RenderSheet lays out every marker of set on one page, row by row.
func RenderSheet(set *marker.Set, opts RenderOptions) (*image.Gray, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if set == nil || len(set.Markers) == 0 {
		return nil, fmt.Errorf("marker set is empty")
	}

	cols := opts.Columns
	if cols == 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(set.Markers)))))
	}
	rows := (len(set.Markers) + cols - 1) / cols

	cell := 0
	for _, def := range set.Markers {
		if s := opts.markerSide(def); s > cell {
			cell = s
		}
	}

	img := image.NewGray(image.Rect(0, 0, cols*cell, rows*cell))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for i, def := range set.Markers {
		origin := image.Pt((i%cols)*cell, (i/cols)*cell)
		drawMarker(img, origin, def, opts)
	}
	return img, nil
}

func drawMarker(img *image.Gray, origin image.Point, def marker.Definition, opts RenderOptions) {
	side := opts.markerSide(def)
	z := vector.NewRasterizer(side, side)
	r := float32(def.DotDiameter * opts.PixelsPerUnit / 2)
	for _, p := range def.Dots {
		c := markerToPixel(p, opts)
		addCircle(z, float32(c.X), float32(c.Y), r)
	}
	if opts.Border {
		corners := def.Corners()
		for i := range corners {
			a := markerToPixel(corners[i], opts)
			b := markerToPixel(corners[(i+1)%4], opts)
			addSegment(z, a, b, 1)
		}
	}
	rect := image.Rect(origin.X, origin.Y, origin.X+side, origin.Y+side)
	z.Draw(img, rect, image.Black, image.Point{})

	if opts.Label && opts.Margin >= labelHeight+3 {
		y := origin.Y + side - opts.Margin + 3
		drawLabel(img, origin.X+opts.Margin, y, "#"+strconv.Itoa(def.ID), color.Black, nil)
	}
}

// markerToPixel maps a marker point to its rendered pixel position.
func markerToPixel(p geometry.Point2D, opts RenderOptions) geometry.Point2D {
	m := float64(opts.Margin)
	return geometry.Point2D{X: m + p.X*opts.PixelsPerUnit, Y: m + p.Y*opts.PixelsPerUnit}
}

// addCircle appends a closed circle path made of four cubic segments.
func addCircle(z *vector.Rasterizer, cx, cy, r float32) {
	k := float32(circleKappa) * r
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
}
