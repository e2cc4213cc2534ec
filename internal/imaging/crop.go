package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/dotmarker/internal/recognition"
)

// CropResult contains the cropped image data
type CropResult struct {
	// Region is the cropped rectangle in source image coordinates.
	Region      image.Rectangle `json:"region"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	ImageBase64 string          `json:"image_base64"`
	MimeType    string          `json:"mime_type"`
}

// Crop extracts region from img, scales it by scale (1.0 keeps the size)
// and returns it as base64 PNG. region uses image coordinates with an
// exclusive bottom-right corner.
func Crop(img image.Image, region image.Rectangle, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: x1 must be < x2, y1 must be < y2", region)
	}
	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}

	cropped := imaging.Crop(img, region)
	if scale != 1.0 && scale > 0 {
		newWidth := int(math.Round(float64(cropped.Bounds().Dx()) * scale))
		newHeight := int(math.Round(float64(cropped.Bounds().Dy()) * scale))
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %g leaves an empty image", scale)
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}
	return &CropResult{
		Region:      region,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// CropDetection cuts out the image area covered by a detected marker. The
// bounding box of the projected corners grows by margin (a fraction of its
// size on each side) and is clipped to the image.
func CropDetection(img image.Image, det recognition.Detection, margin, scale float64) (*CropResult, error) {
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %g", margin)
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range det.Corners {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	if math.IsInf(minX, 0) || math.IsNaN(minX) || math.IsInf(maxX, 0) || math.IsNaN(maxX) {
		return nil, fmt.Errorf("detection of marker %d has no finite corners", det.MarkerID)
	}

	padX := (maxX - minX) * margin
	padY := (maxY - minY) * margin
	region := image.Rect(
		int(math.Floor(minX-padX)), int(math.Floor(minY-padY)),
		int(math.Ceil(maxX+padX)), int(math.Ceil(maxY+padY)),
	).Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("marker %d lies outside the image", det.MarkerID)
	}
	return Crop(img, region, scale)
}

// EncodePNG returns img as base64 encoded PNG.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
