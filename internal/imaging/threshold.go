package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// Threshold converts a capture into the binary mask the detector consumes.
// Dark pixels become foreground.
//
// Parameters:
//   - img: Source image in any color model.
//   - cfg: Method and parameters; validated before use.
//
// # Methods
//
//   - global: pixels below cfg.Level are foreground
//   - otsu: like global, with the level chosen by Otsu's method
//   - local_mean: pixels below cfg.Scale times the mean of the surrounding
//     cfg.BlockSize window are foreground; robust to uneven lighting
//
// A Gaussian blur of cfg.BlurRadius is applied first when positive.
func Threshold(img image.Image, cfg config.Threshold) (*geometry.Binary, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src := img
	if cfg.BlurRadius > 0 {
		src = blur.Gaussian(img, cfg.BlurRadius)
	}
	gray := Grayscale(src)

	switch cfg.Method {
	case config.ThresholdGlobal:
		return binaryFromSegment(segment.Threshold(gray, uint8(cfg.Level))), nil
	case config.ThresholdOtsu:
		return binaryFromSegment(segment.Threshold(gray, OtsuLevel(gray))), nil
	default:
		return localMean(rasterFromGray(gray), cfg.BlockSize, cfg.Scale), nil
	}
}

// binaryFromSegment maps the black pixels of a segmented image to
// foreground.
func binaryFromSegment(g *image.Gray) *geometry.Binary {
	b := g.Bounds()
	out := geometry.NewBinary(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if g.Pix[y*g.Stride+x] == 0 {
				out.Set(x, y, 1)
			}
		}
	}
	return out
}

// OtsuLevel returns the gray level that best separates the histogram of g
// into two classes. Pixels strictly below the level form the dark class.
func OtsuLevel(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}
	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i * n)
	}

	var sumDark float64
	dark := 0
	bestVar := -1.0
	best := 0
	for t := 0; t < 256; t++ {
		dark += hist[t]
		if dark == 0 {
			continue
		}
		light := total - dark
		if light == 0 {
			break
		}
		sumDark += float64(t * hist[t])
		meanDark := sumDark / float64(dark)
		meanLight := (sumAll - sumDark) / float64(light)
		between := float64(dark) * float64(light) * (meanDark - meanLight) * (meanDark - meanLight)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	// Levels 0..best are dark.
	if best >= 255 {
		return 255
	}
	return uint8(best + 1)
}

// localMean marks pixels darker than scale times the mean of the block×block
// window centred on them, using a summed area table.
func localMean(gray *geometry.Raster[uint8], block int, scale float64) *geometry.Binary {
	w, h := gray.Width, gray.Height
	out := geometry.NewBinary(w, h)
	if w == 0 || h == 0 {
		return out
	}

	stride := w + 1
	sat := make([]uint64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row uint64
		for x := 0; x < w; x++ {
			row += uint64(gray.At(x, y))
			sat[(y+1)*stride+x+1] = sat[y*stride+x+1] + row
		}
	}

	half := block / 2
	for y := 0; y < h; y++ {
		y0, y1 := clamp(y-half, 0, h), clamp(y+half+1, 0, h)
		for x := 0; x < w; x++ {
			x0, x1 := clamp(x-half, 0, w), clamp(x+half+1, 0, w)
			sum := sat[y1*stride+x1] - sat[y0*stride+x1] - sat[y1*stride+x0] + sat[y0*stride+x0]
			mean := float64(sum) / float64((x1-x0)*(y1-y0))
			if float64(gray.At(x, y)) < mean*scale {
				out.Set(x, y, 1)
			}
		}
	}
	return out
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
