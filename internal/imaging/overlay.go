package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"

	"github.com/ironsheep/dotmarker/internal/geometry"
	"github.com/ironsheep/dotmarker/internal/recognition"
)

// goldenAngle spreads consecutive marker hues around the color wheel.
const goldenAngle = 137.50776405

// OverlayOptions controls DrawDetections.
type OverlayOptions struct {
	// LineWidth is the outline stroke width in pixels.
	LineWidth float64 `json:"line_width"`

	// ShowObservations marks every accepted dot, detected or not.
	ShowObservations bool `json:"show_observations"`

	// ObservationColor is a hex color ("#RRGGBB") for observation marks.
	// Empty selects gray.
	ObservationColor string `json:"observation_color,omitempty"`
}

// DefaultOverlayOptions returns a 2 pixel outline with observations shown.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{LineWidth: 2, ShowObservations: true}
}

// MarkerColor returns the overlay color of a marker ID. Each ID keeps its
// color across frames.
func MarkerColor(id int) color.RGBA {
	hue := math.Mod(float64(id)*goldenAngle, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// DrawDetections copies img and draws the frame's results on top: each
// detection's outline, inliers and ID in its marker color, and optionally
// every observation as a small cross.
func DrawDetections(img image.Image, frame *recognition.Frame, opts OverlayOptions) (*image.RGBA, error) {
	if img == nil || frame == nil {
		return nil, fmt.Errorf("nil image or frame")
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1
	}

	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	if opts.ShowObservations {
		obsColor := color.RGBA{128, 128, 128, 255}
		if opts.ObservationColor != "" {
			c, err := colorful.Hex(opts.ObservationColor)
			if err != nil {
				return nil, fmt.Errorf("invalid observation color %q: %w", opts.ObservationColor, err)
			}
			r, g, b := c.RGB255()
			obsColor = color.RGBA{R: r, G: g, B: b, A: 255}
		}
		for _, o := range frame.Observations {
			drawCross(out, o.Center, 3, obsColor)
		}
	}

	for _, det := range frame.Detections {
		c := MarkerColor(det.MarkerID)
		src := image.NewUniform(c)

		z := vector.NewRasterizer(out.Bounds().Dx(), out.Bounds().Dy())
		for i := range det.Corners {
			addSegment(z, det.Corners[i], det.Corners[(i+1)%4], opts.LineWidth)
		}
		for _, in := range det.Inliers {
			addCircle(z, float32(in.Image.X), float32(in.Image.Y), float32(2*opts.LineWidth))
		}
		z.Draw(out, out.Bounds(), src, image.Point{})

		label := "#" + strconv.Itoa(det.MarkerID)
		w, _ := labelSize(label)
		drawLabel(out, int(det.Center.X)-w/2, int(det.Center.Y)-3, label, color.White, c)
	}
	return out, nil
}

// addSegment appends the rectangle covering a stroke of the given width
// from a to b.
func addSegment(z *vector.Rasterizer, a, b geometry.Point2D, width float64) {
	d := b.Sub(a)
	length := math.Hypot(d.X, d.Y)
	if length == 0 {
		return
	}
	n := geometry.Point2D{X: -d.Y / length, Y: d.X / length}.Scale(width / 2)
	// Wound like addCircle so overlapping shapes do not cancel.
	p0, p1 := a.Sub(n), b.Sub(n)
	p2, p3 := b.Add(n), a.Add(n)
	z.MoveTo(float32(p0.X), float32(p0.Y))
	z.LineTo(float32(p1.X), float32(p1.Y))
	z.LineTo(float32(p2.X), float32(p2.Y))
	z.LineTo(float32(p3.X), float32(p3.Y))
	z.ClosePath()
}

func drawCross(img *image.RGBA, p geometry.Point2D, arm int, c color.RGBA) {
	x, y := int(p.X), int(p.Y)
	bounds := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if image.Pt(x+d, y).In(bounds) {
			img.SetRGBA(x+d, y, c)
		}
		if image.Pt(x, y+d).In(bounds) {
			img.SetRGBA(x, y+d, c)
		}
	}
}
