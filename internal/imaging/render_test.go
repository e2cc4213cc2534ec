package imaging

import (
	"math"
	"testing"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/marker"
	"github.com/ironsheep/dotmarker/internal/recognition"
)

func testSet(t *testing.T) *marker.Set {
	t.Helper()
	set, err := marker.GenerateSet(marker.SetParams{
		Params:  marker.Params{DotCount: 30, Width: 80, DotDiameter: 5},
		Seed:    marker.DefaultSeed,
		Markers: 4,
		Units:   "mm",
	})
	if err != nil {
		t.Fatalf("GenerateSet failed: %v", err)
	}
	return set
}

func TestRenderMarker(t *testing.T) {
	def := testSet(t).Markers[0]
	opts := RenderOptions{PixelsPerUnit: 5, Margin: 20}

	img, err := RenderMarker(def, opts)
	if err != nil {
		t.Fatalf("RenderMarker failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 440 || b.Dy() != 440 {
		t.Fatalf("size: got %dx%d, want 440x440", b.Dx(), b.Dy())
	}
	for _, p := range def.Dots {
		c := markerToPixel(p, opts)
		if v := img.GrayAt(int(c.X), int(c.Y)).Y; v != 0 {
			t.Errorf("dot center (%.1f,%.1f) = %d, want black", c.X, c.Y, v)
		}
	}
	if v := img.GrayAt(0, 0).Y; v != 255 {
		t.Errorf("margin pixel = %d, want white", v)
	}
}

func TestRenderMarker_Border(t *testing.T) {
	def := testSet(t).Markers[0]
	opts := RenderOptions{PixelsPerUnit: 5, Margin: 20, Border: true}

	img, err := RenderMarker(def, opts)
	if err != nil {
		t.Fatalf("RenderMarker failed: %v", err)
	}
	// The line straddles x = 20, so pixels 19 and 20 are half covered.
	for y := 30; y < 410; y++ {
		if img.GrayAt(19, y).Y == 255 && img.GrayAt(20, y).Y == 255 {
			t.Fatalf("border missing at y=%d", y)
		}
	}
	if v := img.GrayAt(5, 5).Y; v != 255 {
		t.Errorf("pixel outside border = %d, want white", v)
	}
}

func TestRenderMarker_Invalid(t *testing.T) {
	def := testSet(t).Markers[0]
	for _, opts := range []RenderOptions{{PixelsPerUnit: 0}, {PixelsPerUnit: 1, Margin: -1}, {PixelsPerUnit: math.NaN()}} {
		if _, err := RenderMarker(def, opts); err == nil {
			t.Errorf("RenderMarker(%+v) should fail", opts)
		}
	}
}

func TestRenderSheet(t *testing.T) {
	set := testSet(t)
	img, err := RenderSheet(set, RenderOptions{PixelsPerUnit: 2, Margin: 12, Label: true})
	if err != nil {
		t.Fatalf("RenderSheet failed: %v", err)
	}
	// 4 markers on a 2x2 grid of 184 pixel cells.
	if b := img.Bounds(); b.Dx() != 368 || b.Dy() != 368 {
		t.Fatalf("size: got %dx%d, want 368x368", b.Dx(), b.Dy())
	}

	// The label of marker 3 sits in the bottom margin of the last cell.
	dark := 0
	for y := 184 + 172; y < 368; y++ {
		for x := 184; x < 184+40; x++ {
			if img.GrayAt(x, y).Y < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("expected label pixels below marker 3")
	}

	if _, err := RenderSheet(&marker.Set{}, DefaultRenderOptions()); err == nil {
		t.Error("RenderSheet should fail for an empty set")
	}
}

func TestRender_RecognitionRoundTrip(t *testing.T) {
	set := testSet(t)
	rec, err := recognition.NewRecognizer(config.WithMarkerLength(80), set)
	if err != nil {
		t.Fatalf("NewRecognizer failed: %v", err)
	}

	opts := RenderOptions{PixelsPerUnit: 5, Margin: 20}
	img, err := RenderMarker(set.Markers[3], opts)
	if err != nil {
		t.Fatalf("RenderMarker failed: %v", err)
	}
	binary, err := Threshold(img, config.Threshold{Method: config.ThresholdGlobal, Level: 128})
	if err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}

	frame, err := rec.Process(binary)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(frame.Detections) != 1 || frame.Detections[0].MarkerID != 3 {
		t.Fatalf("expected marker 3, got %+v", frame.Detections)
	}

	// Marker corner (0,0) is rendered at the margin.
	corner := frame.Detections[0].Corners[0]
	if math.Abs(corner.X-20) > 1 || math.Abs(corner.Y-20) > 1 {
		t.Errorf("corner at (%.2f,%.2f), want (20,20)", corner.X, corner.Y)
	}
}
