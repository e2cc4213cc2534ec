package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/dotmarker/internal/imaging"
	"github.com/ironsheep/dotmarker/internal/marker"
	"github.com/ironsheep/dotmarker/internal/recognition"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// fixture generates a four marker set through the CLI, renders markers 1
// and 3 and writes a global threshold configuration.
func fixture(t *testing.T) (dir, definition, config string) {
	t.Helper()
	dir = t.TempDir()
	definition = filepath.Join(dir, "markers.yaml")
	config = filepath.Join(dir, "config.json")

	_, _, err := execute(t, "generate", "-u", "4", "-o", definition)
	require.NoError(t, err)
	for _, id := range []string{"1", "3"} {
		out := filepath.Join(dir, "marker"+id+".png")
		_, _, err := execute(t, "render", definition, "-m", id, "--ppu", "5", "--label=false", "-o", out)
		require.NoError(t, err)
	}

	cfg := `{"marker_length": 80, "threshold": {"method": "global", "level": 128}}`
	require.NoError(t, os.WriteFile(config, []byte(cfg), 0o600))
	return dir, definition, config
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	definition := filepath.Join(dir, "set.yaml")
	sheet := filepath.Join(dir, "sheet.png")

	_, stderr, err := execute(t, "generate", "-n", "25", "-u", "3", "-s", "99", "-o", definition, "--png", sheet, "--ppu", "2")
	require.NoError(t, err)
	require.Contains(t, stderr, "Wrote 3 markers of 25 dots")

	set, err := marker.LoadYAML(definition)
	require.NoError(t, err)
	require.Len(t, set.Markers, 3)
	require.Equal(t, uint64(99), set.Seed)
	require.Len(t, set.Markers[0].Dots, 25)

	img, err := imaging.Open(sheet)
	require.NoError(t, err)
	// Two columns of 160 pixel markers with 20 pixel margins.
	require.Equal(t, image.Rect(0, 0, 400, 400), img.Bounds())
}

func TestGenerate_RequiresOutput(t *testing.T) {
	_, _, err := execute(t, "generate")
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	_, definition, _ := fixture(t)

	stdout, _, err := execute(t, "verify", definition)
	require.NoError(t, err)
	require.Contains(t, stdout, "4 markers regenerate")

	// A moved dot no longer matches its seed.
	set, err := marker.LoadYAML(definition)
	require.NoError(t, err)
	dot := &set.Markers[2].Dots[0]
	if dot.X > 40 {
		dot.X -= 0.5
	} else {
		dot.X += 0.5
	}
	require.NoError(t, marker.SaveYAML(definition, set))

	_, _, err = execute(t, "verify", definition)
	require.Error(t, err)
}

func TestRender_UnknownMarker(t *testing.T) {
	_, definition, _ := fixture(t)
	_, _, err := execute(t, "render", definition, "-m", "7", "-o", filepath.Join(t.TempDir(), "x.png"))
	require.Error(t, err)
}

func TestRunDetect(t *testing.T) {
	dir, definition, config := fixture(t)

	blank := image.NewGray(image.Rect(0, 0, 300, 200))
	draw.Draw(blank, blank.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	blankPath := filepath.Join(dir, "blank.png")
	require.NoError(t, imaging.Save(blank, blankPath))

	paths := []string{
		filepath.Join(dir, "marker3.png"),
		blankPath,
		filepath.Join(dir, "marker1.png"),
	}
	overlays := filepath.Join(dir, "overlays")

	var out, progress bytes.Buffer
	opts := detectOptions{Definition: definition, Config: config, Workers: 3, OverlayDir: overlays, Quiet: true}
	require.NoError(t, runDetect(context.Background(), opts, paths, &out, &progress))

	dec := json.NewDecoder(&out)
	var reports []recognition.Report
	for dec.More() {
		var r recognition.Report
		require.NoError(t, dec.Decode(&r))
		reports = append(reports, r)
	}
	require.Len(t, reports, 3)

	for i, r := range reports {
		require.Equal(t, paths[i], r.Source, "reports keep argument order")
		_, err := uuid.Parse(r.FrameID)
		require.NoError(t, err)
	}
	require.Len(t, reports[0].Detections, 1)
	require.Equal(t, 3, reports[0].Detections[0].MarkerID)
	require.Empty(t, reports[1].Detections)
	require.Equal(t, 300, reports[1].Width)
	require.Len(t, reports[2].Detections, 1)
	require.Equal(t, 1, reports[2].Detections[0].MarkerID)

	_, err := os.Stat(filepath.Join(overlays, "marker3_overlay.png"))
	require.NoError(t, err)
}

func TestRunDetect_FailedImage(t *testing.T) {
	dir, definition, config := fixture(t)
	missing := filepath.Join(dir, "missing.png")
	paths := []string{filepath.Join(dir, "marker1.png"), missing}

	var out, progress bytes.Buffer
	opts := detectOptions{Definition: definition, Config: config, Workers: 2, Quiet: true}
	err := runDetect(context.Background(), opts, paths, &out, &progress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 2 images failed")
	require.Contains(t, err.Error(), missing)

	// The readable image is still reported.
	require.Equal(t, 1, strings.Count(out.String(), "\n"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRunDetect_WriteFailure(t *testing.T) {
	dir, definition, config := fixture(t)
	paths := make([]string, 10)
	for i := range paths {
		paths[i] = filepath.Join(dir, "marker1.png")
	}

	before := runtime.NumGoroutine()
	var progress bytes.Buffer
	opts := detectOptions{Definition: definition, Config: config, Workers: 2, Quiet: true}
	err := runDetect(context.Background(), opts, paths, failingWriter{}, &progress)
	require.ErrorContains(t, err, "failed to write report")

	// Workers must not stay blocked on results after the early return.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunDetect_BadDefinition(t *testing.T) {
	var out, progress bytes.Buffer
	opts := detectOptions{Definition: filepath.Join(t.TempDir(), "none.yaml"), Workers: 1, Quiet: true}
	require.Error(t, runDetect(context.Background(), opts, []string{"x.png"}, &out, &progress))
}

func TestConfigPath(t *testing.T) {
	t.Setenv(configEnv, "/etc/dotmarker.json")
	require.Equal(t, "flag.json", configPath("flag.json"))
	require.Equal(t, "/etc/dotmarker.json", configPath(""))
}
