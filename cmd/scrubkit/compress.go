package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/filehandler"
	"github.com/thvl3/scrubkit/pkg/models"
	"github.com/thvl3/scrubkit/pkg/pipeline"
)

var compressCmd = &cobra.Command{
	Use:   "compress [file|dir|url]...",
	Short: "Shrink images by re-encoding at a lower quality",
	Long: `Re-encode each input at --quality, a fraction in (0, 1]. PNG has no lossy
mode, so a PNG compressed below 1 is written as JPEG. Results are saved as
<name>_compressed.<ext>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompress,
}

func init() {
	flags := compressCmd.Flags()
	flags.Float64P("quality", "q", 0.75, "encoder quality in (0, 1]")
	flags.StringP("out", "o", "", "directory for compressed files (default: next to each source)")
	flags.BoolP("recursive", "r", false, "descend into sub-directories")
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, args []string) error {
	quality, _ := cmd.Flags().GetFloat64("quality")
	outDir, _ := cmd.Flags().GetString("out")
	recursive, _ := cmd.Flags().GetBool("recursive")

	if !(quality > 0 && quality <= 1) {
		return fmt.Errorf("%w, got %v", pipeline.ErrInvalidQuality, quality)
	}

	return eachInput(cmd, args, recursive, func(file models.File, input string) error {
		printInfo("Compressing %s at %.0f%%", file.Name, quality*100)
		blob, err := pipeline.New(nil).Compress(cmd.Context(), file.Data, file.Type, quality)
		if err != nil {
			return err
		}

		ratio := 100.0
		if file.Size() > 0 {
			ratio = float64(blob.Size()) / float64(file.Size()) * 100
		}
		fmt.Fprintf(stdout, "    Size: %s -> %s (%.0f%%)\n",
			humanize.Bytes(uint64(file.Size())), humanize.Bytes(uint64(blob.Size())), ratio)
		if blob.Size() >= file.Size() {
			printWarning("%s did not get smaller", file.Name)
		}

		outPath := filepath.Join(outputDir(input, outDir), filehandler.RenamedOutput(file.Name, "", "_compressed", blob.Type))
		return saveBlob(blob, outPath)
	})
}
