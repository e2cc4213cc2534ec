package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/dotmarker/internal/imaging"
	"github.com/ironsheep/dotmarker/internal/marker"
)

type generateOptions struct {
	Dots          int
	Markers       int
	Width         float64
	DotDiameter   float64
	Seed          uint64
	Units         string
	Output        string
	SheetPath     string
	PixelsPerUnit float64
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a marker set and save it as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Dots, "dots", "n", 30, "Dots per marker")
	cmd.Flags().IntVarP(&opts.Markers, "unique", "u", 1, "Number of unique markers")
	cmd.Flags().Float64VarP(&opts.Width, "width", "w", 80, "Marker side length in units")
	cmd.Flags().Float64VarP(&opts.DotDiameter, "diameter", "d", 5, "Dot diameter in units")
	cmd.Flags().Uint64VarP(&opts.Seed, "seed", "s", marker.DefaultSeed, "Random seed")
	cmd.Flags().StringVar(&opts.Units, "units", "mm", "Unit label stored in the file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Path of the YAML file to write")
	cmd.Flags().StringVar(&opts.SheetPath, "png", "", "Also render every marker to this PNG sheet")
	cmd.Flags().Float64Var(&opts.PixelsPerUnit, "ppu", 10, "Pixels per unit for --png")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	set, err := marker.GenerateSet(marker.SetParams{
		Params: marker.Params{
			DotCount:    opts.Dots,
			Width:       opts.Width,
			DotDiameter: opts.DotDiameter,
		},
		Seed:    opts.Seed,
		Markers: opts.Markers,
		Units:   opts.Units,
	})
	if err != nil {
		return err
	}
	if err := marker.SaveYAML(opts.Output, set); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d markers of %d dots to %s\n", len(set.Markers), opts.Dots, opts.Output)

	if opts.SheetPath == "" {
		return nil
	}
	render := imaging.DefaultRenderOptions()
	render.PixelsPerUnit = opts.PixelsPerUnit
	sheet, err := imaging.RenderSheet(set, render)
	if err != nil {
		return err
	}
	if err := imaging.Save(sheet, opts.SheetPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote sheet to %s\n", opts.SheetPath)
	return nil
}

func newVerifyCmd() *cobra.Command {
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "verify <definition.yaml>",
		Short: "Check that a marker set regenerates from its seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := marker.LoadYAML(args[0])
			if err != nil {
				return err
			}
			if err := marker.VerifyRegeneration(set, tolerance); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d markers regenerate from seed %d\n", args[0], len(set.Markers), set.Seed)
			return nil
		},
	}
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-6, "Largest allowed dot position difference")
	return cmd
}
