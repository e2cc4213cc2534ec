package recognition

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
	"github.com/ironsheep/dotmarker/internal/llah"
)

func newTestRecognizer(t *testing.T) *Recognizer {
	t.Helper()
	rec, err := NewRecognizer(config.WithMarkerLength(80), testMarkerSet(t))
	require.NoError(t, err)
	return rec
}

func TestProcess_RoundTrip(t *testing.T) {
	rec := newTestRecognizer(t)
	def := rec.Set().Markers[2]
	h := placement(def.Width)

	frame, err := rec.Process(renderDots(def.Dots, def.DotDiameter, h))
	require.NoError(t, err)
	require.Len(t, frame.Observations, 30)
	require.Len(t, frame.Detections, 1)

	det := frame.Detections[0]
	require.Equal(t, 2, det.MarkerID)
	require.Equal(t, 1.0, det.InlierFraction)
	require.Len(t, det.Inliers, det.Correspondences)

	for i, corner := range def.Corners() {
		want := h.Apply(corner)
		require.InDelta(t, want.X, det.Corners[i].X, 1.0, "corner %d", i)
		require.InDelta(t, want.Y, det.Corners[i].Y, 1.0, "corner %d", i)
	}
	for _, in := range det.Inliers {
		require.InDelta(t, 0, h.Apply(def.Dots[in.Point]).Distance(in.Image), 0.5,
			"observation %d paired with the wrong dot %d", in.Observation, in.Point)
	}
}

func TestProcess_EachMarker(t *testing.T) {
	rec := newTestRecognizer(t)
	for _, def := range rec.Set().Markers {
		frame, err := rec.Process(renderDots(def.Dots, def.DotDiameter, placement(def.Width)))
		require.NoError(t, err)
		require.Len(t, frame.Detections, 1, "marker %d", def.ID)
		require.Equal(t, def.ID, frame.Detections[0].MarkerID)
	}
}

func TestProcess_Occlusion(t *testing.T) {
	rec := newTestRecognizer(t)

	// Hide 30% of the dots of every marker, at random, over several draws.
	for seed := int64(1); seed <= 10; seed++ {
		for _, def := range rec.Set().Markers {
			rng := rand.New(rand.NewSource(seed))
			hide := len(def.Dots) * 3 / 10
			hidden := make(map[int]bool)
			for _, i := range rng.Perm(len(def.Dots))[:hide] {
				hidden[i] = true
			}
			visible := make([]geometry.Point2D, 0, len(def.Dots)-len(hidden))
			for i, p := range def.Dots {
				if !hidden[i] {
					visible = append(visible, p)
				}
			}

			frame, err := rec.Process(renderDots(visible, def.DotDiameter, placement(def.Width)))
			require.NoError(t, err)
			require.Len(t, frame.Observations, len(visible))
			require.NotEmpty(t, frame.Detections, "seed %d marker %d", seed, def.ID)

			det := frame.Detections[0]
			require.Equal(t, def.ID, det.MarkerID, "seed %d", seed)
			require.GreaterOrEqual(t, det.InlierFraction, 0.7, "seed %d marker %d", seed, def.ID)
			for _, in := range det.Inliers {
				require.False(t, hidden[in.Point], "seed %d marker %d: hidden dot %d reported as an inlier", seed, def.ID, in.Point)
			}
		}
	}
}

func TestProcess_RandomNoise(t *testing.T) {
	rec := newTestRecognizer(t)

	for seed := int64(7); seed < 12; seed++ {
		rng := rand.New(rand.NewSource(seed))
		dots := make([]geometry.Point2D, 0, 40)
		for len(dots) < 40 {
			p := geometry.Pt(40+rng.Float64()*(testImageSize-80), 40+rng.Float64()*(testImageSize-80))
			clear := true
			for _, q := range dots {
				if p.Distance(q) < 45 {
					clear = false
					break
				}
			}
			if clear {
				dots = append(dots, p)
			}
		}

		img := geometry.NewBinary(testImageSize, testImageSize)
		for _, p := range dots {
			fillDisc(img, p, 10)
		}

		frame, err := rec.Process(img)
		require.NoError(t, err)
		require.Len(t, frame.Observations, 40)
		require.Empty(t, frame.Detections, "seed %d", seed)
	}
}

func TestProcess_EmptyImage(t *testing.T) {
	rec := newTestRecognizer(t)
	frame, err := rec.Process(geometry.NewBinary(64, 64))
	require.NoError(t, err)
	require.Empty(t, frame.Detections)
	require.Empty(t, frame.Observations)

	_, err = rec.Process(nil)
	require.Error(t, err)
}

func TestProcess_Concurrent(t *testing.T) {
	rec := newTestRecognizer(t)
	images := make([]*geometry.Binary, len(rec.Set().Markers))
	want := make([]*Frame, len(images))
	for i, def := range rec.Set().Markers {
		images[i] = renderDots(def.Dots, def.DotDiameter, placement(def.Width))
		frame, err := rec.Process(images[i])
		require.NoError(t, err)
		want[i] = frame
	}

	got := make([]*Frame, len(images))
	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = rec.Process(images[i])
		}(i)
	}
	wg.Wait()

	for i := range images {
		if diff := cmp.Diff(want[i], got[i]); diff != "" {
			t.Errorf("frame %d differs when processed concurrently (-sequential +concurrent):\n%s", i, diff)
		}
	}
}

func TestProcessGray_EdgeCheck(t *testing.T) {
	cfg := config.WithMarkerLength(80)
	cfg.CheckEdge.Enabled = true
	rec, err := NewRecognizer(cfg, testMarkerSet(t))
	require.NoError(t, err)

	def := rec.Set().Markers[1]
	img := renderDots(def.Dots, def.DotDiameter, placement(def.Width))

	// A flat gray image has no edges; every dot fails the check.
	flat := geometry.NewRaster[uint8](testImageSize, testImageSize)
	flat.Fill(128)
	frame, err := ProcessGray(rec, img, flat)
	require.NoError(t, err)
	require.Empty(t, frame.Observations)
	require.Equal(t, 30, frame.Rejected.EdgeScore)

	// Dark dots on white pass.
	gray := geometry.NewRaster[uint8](testImageSize, testImageSize)
	for i, v := range img.Pix {
		if v != 0 {
			gray.Pix[i] = 10
		} else {
			gray.Pix[i] = 240
		}
	}
	frame, err = ProcessGray(rec, img, gray)
	require.NoError(t, err)
	require.Len(t, frame.Detections, 1)
	require.Equal(t, 1, frame.Detections[0].MarkerID)
}

func TestNewRecognizer_Validation(t *testing.T) {
	set := testMarkerSet(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero marker length", func(c *config.Config) { c.MarkerLength = 0 }},
		{"combination not below neighbours", func(c *config.Config) { c.LLAH.SizeOfCombinationM = c.LLAH.NumberOfNeighborsN }},
		{"marker length differs from set", func(c *config.Config) { c.MarkerLength = 100 }},
		{"zero iterations", func(c *config.Config) { c.RANSAC.Iterations = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.WithMarkerLength(80)
			tt.mutate(&cfg)
			_, err := NewRecognizer(cfg, set)
			require.ErrorIs(t, err, config.ErrConfiguration)
		})
	}

	_, err := NewRecognizer(config.WithMarkerLength(80), nil)
	require.ErrorIs(t, err, config.ErrConfiguration)
}

func TestNewRecognizerWithTable(t *testing.T) {
	set := testMarkerSet(t)
	cfg := config.WithMarkerLength(80)
	table, err := llah.Register(set, cfg.LLAH)
	require.NoError(t, err)

	rec, err := NewRecognizerWithTable(cfg, set, table)
	require.NoError(t, err)
	require.Same(t, table, rec.Table())

	other := cfg
	other.LLAH.QuantizationK = 16
	_, err = NewRecognizerWithTable(other, set, table)
	require.ErrorIs(t, err, config.ErrConfiguration)
}
