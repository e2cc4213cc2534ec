package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestFitHomography_ExactFourPoints(t *testing.T) {
	want := Homography{1.2, 0.1, 30, -0.05, 0.9, 12, 0.0004, -0.0002, 1}
	src := []Point2D{{0, 0}, {80, 0}, {80, 80}, {0, 80}}
	dst := make([]Point2D, len(src))
	for i, p := range src {
		dst[i] = want.Apply(p)
	}

	got, err := FitHomography(src, dst)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}

	for _, p := range []Point2D{{10, 10}, {40, 70}, {75, 5}, {33, 33}} {
		if e := got.ReprojectionError(p, want.Apply(p)); e > 1e-6 {
			t.Errorf("reprojection error at %v: %g", p, e)
		}
	}
}

func TestFitHomography_Similarity(t *testing.T) {
	want := SimilarityHomography(5, 0.4, 120, 60)
	rng := rand.New(rand.NewSource(7))
	src := make([]Point2D, 25)
	dst := make([]Point2D, 25)
	for i := range src {
		src[i] = Pt(rng.Float64()*80, rng.Float64()*80)
		dst[i] = want.Apply(src[i])
	}

	got, err := FitHomography(src, dst)
	if err != nil {
		t.Fatalf("FitHomography failed: %v", err)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6*math.Max(1, math.Abs(want[i])) {
			t.Errorf("coefficient %d: got %g, want %g", i, got[i], want[i])
		}
	}
}

func TestFitHomography_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		src  []Point2D
	}{
		{"too few", []Point2D{{0, 0}, {1, 0}, {0, 1}}},
		{"coincident", []Point2D{{5, 5}, {5, 5}, {5, 5}, {5, 5}}},
		{"collinear", []Point2D{{0, 0}, {1, 1}, {2, 2}, {3, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]Point2D, len(tt.src))
			copy(dst, tt.src)
			_, err := FitHomography(tt.src, dst)
			if !errors.Is(err, ErrDegenerate) {
				t.Errorf("expected ErrDegenerate, got %v", err)
			}
		})
	}
}

func TestFitHomography_MismatchedLengths(t *testing.T) {
	_, err := FitHomography(make([]Point2D, 4), make([]Point2D, 5))
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestTriangleArea_Sign(t *testing.T) {
	a, b, c := Pt(0, 0), Pt(4, 0), Pt(0, 3)
	if got := TriangleArea(a, b, c); got != 6 {
		t.Errorf("TriangleArea: got %g, want 6", got)
	}
	if got := TriangleArea(a, c, b); got != -6 {
		t.Errorf("TriangleArea reversed: got %g, want -6", got)
	}
}
