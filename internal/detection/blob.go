package detection

import (
	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// Point represents a pixel coordinate.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Blob is one connected foreground region.
type Blob struct {
	// Pixels lists every pixel of the region in discovery order.
	Pixels []Point

	// Contour lists the region pixels with a 4-neighbour in the background.
	Contour []Point

	// TouchesBorder is set when any pixel lies on the image border.
	TouchesBorder bool
}

var (
	fourNeighbours  = []Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	eightNeighbours = []Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
)

func neighbourhood(rule config.ConnectRule) []Point {
	if rule == config.ConnectEight {
		return eightNeighbours
	}
	return fourNeighbours
}

// findBlobs labels the foreground of img, scanning rows top to bottom, so
// the blob order is deterministic.
func findBlobs(img *geometry.Binary, rule config.ConnectRule) []Blob {
	visited := make([]bool, len(img.Pix))
	steps := neighbourhood(rule)
	blobs := make([]Blob, 0)

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := y*img.Width + x
			if img.Pix[i] != 0 && !visited[i] {
				blobs = append(blobs, floodFill(img, visited, x, y, steps))
			}
		}
	}
	return blobs
}

func floodFill(img *geometry.Binary, visited []bool, startX, startY int, steps []Point) Blob {
	var blob Blob
	stack := []Point{{X: startX, Y: startY}}
	visited[startY*img.Width+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blob.Pixels = append(blob.Pixels, p)

		if p.X == 0 || p.Y == 0 || p.X == img.Width-1 || p.Y == img.Height-1 {
			blob.TouchesBorder = true
		}
		if isBoundary(img, p) {
			blob.Contour = append(blob.Contour, p)
		}

		for _, s := range steps {
			nx, ny := p.X+s.X, p.Y+s.Y
			if !img.InBounds(nx, ny) {
				continue
			}
			j := ny*img.Width + nx
			if visited[j] || img.Pix[j] == 0 {
				continue
			}
			visited[j] = true
			stack = append(stack, Point{X: nx, Y: ny})
		}
	}
	return blob
}

// isBoundary reports whether p has a background 4-neighbour. Pixels outside
// the image count as background.
func isBoundary(img *geometry.Binary, p Point) bool {
	for _, s := range fourNeighbours {
		nx, ny := p.X+s.X, p.Y+s.Y
		if !img.InBounds(nx, ny) || img.At(nx, ny) == 0 {
			return true
		}
	}
	return false
}
