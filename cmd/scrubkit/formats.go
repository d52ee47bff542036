package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/inspect"
	"github.com/thvl3/scrubkit/pkg/palette"
	"github.com/thvl3/scrubkit/pkg/scrub"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported formats and how each is scrubbed",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, args []string) error {
	registry := scrub.NewRegistry(logger)

	fmt.Fprintln(stdout, "Lossless scrubbers:")
	for _, t := range registry.GetSupportedTypes() {
		for _, s := range registry.GetScrubbersForType(t) {
			fmt.Fprintf(stdout, "- %s: %s\n    %s\n", t, s.Name(), s.Description())
		}
	}

	codec := imaging.NewCodec()
	var reencoded []string
	for _, t := range []string{imaging.TypeJPEG, imaging.TypePNG, imaging.TypeGIF, imaging.TypeBMP, imaging.TypeTIFF, imaging.TypeWebP} {
		if codec.CanEncode(t) {
			reencoded = append(reencoded, t)
		}
	}
	fmt.Fprintf(stdout, "\nCanvas fallback (decode and re-encode):\n- %s\n", strings.Join(reencoded, ", "))
	fmt.Fprintf(stdout, "- %s is decoded for palettes but cannot be written\n", imaging.TypeWebP)

	fmt.Fprintf(stdout, "\nInspection:\n- %s\n", strings.Join(inspect.DefaultRegistry().GetSupportedTypes(), ", "))

	var algs []string
	for _, a := range palette.DefaultRegistry(palette.DefaultOptions()).Algorithms() {
		algs = append(algs, string(a))
	}
	fmt.Fprintf(stdout, "\nPalette algorithms:\n- %s\n", strings.Join(algs, ", "))
	return nil
}
