package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ironsheep/dotmarker/internal/imaging"
	"github.com/ironsheep/dotmarker/internal/monitoring"
	"github.com/ironsheep/dotmarker/internal/recognition"
)

type detectOptions struct {
	Definition string
	Config     string
	Workers    int
	OverlayDir string
	Quiet      bool
}

func newDetectCmd() *cobra.Command {
	var opts detectOptions

	cmd := &cobra.Command{
		Use:   "detect <image>...",
		Short: "Identify markers in images and print one JSON report per image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Config = configPath(opts.Config)
			return runDetect(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.Definition, "definition", "D", "", "Marker set YAML file")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Recognizer configuration JSON (default $DOTMARKER_CONFIG)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "j", runtime.NumCPU(), "Number of images processed in parallel")
	cmd.Flags().StringVar(&opts.OverlayDir, "overlay", "", "Directory for copies of the images with detections drawn")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Hide the progress bar")
	_ = cmd.MarkFlagRequired("definition")

	return cmd
}

// detectTask is one image queued for the worker pool.
type detectTask struct {
	Index int
	Path  string
}

// detectResult wraps the output from a worker to be sent to the aggregator
type detectResult struct {
	Index  int
	Report recognition.Report
	Err    error
}

// runDetect registers the marker set once and fans the images out over a
// pool of workers sharing the Recognizer. Reports are written to out as
// JSON lines in argument order; the progress bar goes to progress.
func runDetect(ctx context.Context, opts detectOptions, paths []string, out, progress io.Writer) error {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	rec, err := recognition.Load(opts.Definition, opts.Config)
	if err != nil {
		return err
	}
	monitoring.Debugf("registered %d markers, %d table entries", len(rec.Set().Markers), rec.Table().Len())
	if opts.OverlayDir != "" {
		if err := os.MkdirAll(opts.OverlayDir, 0o755); err != nil {
			return fmt.Errorf("failed to create overlay directory: %w", err)
		}
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("detecting"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!opts.Quiet),
	)

	// Canceled on early return so workers stop instead of blocking on
	// results nobody reads.
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan detectTask, opts.Workers)
	results := make(chan detectResult, opts.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				report, err := detectFile(rec, task.Path, opts.OverlayDir)
				select {
				case results <- detectResult{Index: task.Index, Report: report, Err: err}:
				case <-workCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i, path := range paths {
			select {
			case tasks <- detectTask{Index: i, Path: path}:
			case <-workCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Workers finish out of order; reports are emitted in argument order.
	pending := make(map[int]detectResult)
	next := 0
	enc := json.NewEncoder(out)
	var failed []string
	for res := range results {
		_ = bar.Add(1)
		pending[res.Index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if r.Err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", paths[r.Index], r.Err))
				continue
			}
			if err := enc.Encode(r.Report); err != nil {
				cancel()
				for range results {
				}
				return fmt.Errorf("failed to write report: %w", err)
			}
		}
	}
	_ = bar.Finish()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d images failed:\n  %s", len(failed), len(paths), strings.Join(failed, "\n  "))
	}
	return nil
}

// detectFile recognizes one image and optionally saves its overlay.
func detectFile(rec *recognition.Recognizer, path, overlayDir string) (recognition.Report, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return recognition.Report{}, err
	}
	frame, err := imaging.Detect(rec, img)
	if err != nil {
		return recognition.Report{}, err
	}

	b := img.Bounds()
	report := recognition.NewReport(uuid.NewString(), path, b.Dx(), b.Dy(), frame)
	monitoring.Debugf("%s: frame %s, %d observations, %d detections", path, report.FrameID, report.Observations, len(report.Detections))

	if overlayDir != "" {
		overlay, err := imaging.DrawDetections(img, frame, imaging.DefaultOverlayOptions())
		if err != nil {
			return recognition.Report{}, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_overlay.png"
		if err := imaging.Save(overlay, filepath.Join(overlayDir, name)); err != nil {
			return recognition.Report{}, err
		}
	}
	return report, nil
}
