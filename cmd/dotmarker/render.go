package main

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dotmarker/internal/imaging"
	"github.com/ironsheep/dotmarker/internal/marker"
)

func newRenderCmd() *cobra.Command {
	var (
		markerID int
		output   string
		opts     = imaging.DefaultRenderOptions()
	)

	cmd := &cobra.Command{
		Use:   "render <definition.yaml>",
		Short: "Render one marker or the whole set as a printable PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := marker.LoadYAML(args[0])
			if err != nil {
				return err
			}

			var img image.Image
			if markerID < 0 {
				img, err = imaging.RenderSheet(set, opts)
			} else {
				def, ok := set.Marker(markerID)
				if !ok {
					return fmt.Errorf("marker %d not in %s", markerID, args[0])
				}
				img, err = imaging.RenderMarker(def, opts)
			}
			if err != nil {
				return err
			}
			if err := imaging.Save(img, output); err != nil {
				return err
			}
			b := img.Bounds()
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %dx%d image to %s\n", b.Dx(), b.Dy(), output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&markerID, "marker", "m", -1, "Marker to render; negative renders the whole set")
	cmd.Flags().Float64Var(&opts.PixelsPerUnit, "ppu", opts.PixelsPerUnit, "Pixels per marker unit")
	cmd.Flags().IntVar(&opts.Margin, "margin", opts.Margin, "White margin around each marker in pixels")
	cmd.Flags().BoolVar(&opts.Label, "label", opts.Label, "Print the marker ID in the margin")
	cmd.Flags().BoolVar(&opts.Border, "border", opts.Border, "Outline the marker square")
	cmd.Flags().IntVar(&opts.Columns, "columns", 0, "Markers per row on a sheet (0 = square layout)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
