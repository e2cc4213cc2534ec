package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/dotmarker/internal/geometry"
)

// GrayRaster converts img to an 8-bit luminance raster.
func GrayRaster(img image.Image) *geometry.Raster[uint8] {
	return rasterFromGray(Grayscale(img))
}

// Grayscale converts img to luminance. bild returns the result as RGBA with
// equal channels, so the red channel is copied out. The result is anchored
// at the origin.
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.Grayscale(img)
	b := rgba.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := g.Pix[y*g.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return g
}

func rasterFromGray(g *image.Gray) *geometry.Raster[uint8] {
	b := g.Bounds()
	r := geometry.NewRaster[uint8](b.Dx(), b.Dy())
	for y := 0; y < r.Height; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+r.Width]
		copy(r.Pix[y*r.Width:(y+1)*r.Width], row)
	}
	return r
}

// BinaryImage renders a mask the way it would be printed: foreground black
// on a white background.
func BinaryImage(b *geometry.Binary) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i, v := range b.Pix {
		y, x := i/b.Width, i%b.Width
		if v != 0 {
			img.Pix[y*img.Stride+x] = 0
		} else {
			img.Pix[y*img.Stride+x] = 255
		}
	}
	return img
}
