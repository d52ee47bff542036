package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/config"
	"github.com/thvl3/scrubkit/pkg/palette"
)

var paletteCmd = &cobra.Command{
	Use:   "palette [file|url|data-url]",
	Short: "Extract a representative colour palette",
	Args:  cobra.ExactArgs(1),
	RunE:  runPalette,
}

func init() {
	flags := paletteCmd.Flags()
	flags.Bool("json", false, "print the palette as JSON")
	flags.String("algorithm", string(palette.AlgorithmMedianCut), "extraction algorithm")
	config.BindPaletteFlags(flags)
	rootCmd.AddCommand(paletteCmd)
}

func runPalette(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	algorithm, _ := cmd.Flags().GetString("algorithm")

	opts := palette.Options{
		SampleBound:       cfg.Palette.SampleBound,
		AlphaThreshold:    cfg.Palette.AlphaThreshold,
		AlphaThresholdSet: true,
		Depth:             cfg.Palette.Depth,
		AdaptiveDepth:     cfg.Palette.AdaptiveDepth,
	}
	extractor, err := palette.NewExtractor(palette.Algorithm(algorithm), opts)
	if err != nil {
		return err
	}

	file, err := newFileHandler().OpenSource(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	count := cfg.Palette.Count
	colors, err := extractor.Extract(cmd.Context(), file.Data, count)
	if err != nil {
		return fmt.Errorf("extracting palette from %s: %w", file.Name, err)
	}
	logger.Debug("palette extracted", "file", file.Name, "algorithm", extractor.Algorithm(), "colors", len(colors))

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(palette.Result(file.Name, extractor.Algorithm(), count, colors))
	}

	if len(colors) == 0 {
		printWarning("No opaque pixels, palette is empty")
		return nil
	}
	if count > len(colors) {
		printInfo("Requested %d colours, image yields %d", count, len(colors))
	}
	for _, c := range colors {
		fmt.Fprintf(stdout, "%s  %s  %s\n", swatch(c), c.Hex, c.RGB())
	}
	return nil
}

// swatch renders the hex code on a block of the colour itself
func swatch(c palette.Color) string {
	fg := color.RGB(255, 255, 255)
	if c.Contrast() == palette.Black {
		fg = color.RGB(0, 0, 0)
	}
	return fg.AddBgRGB(int(c.R), int(c.G), int(c.B)).Sprintf(" %s ", c.Hex)
}
