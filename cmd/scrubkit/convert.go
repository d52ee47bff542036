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

var convertCmd = &cobra.Command{
	Use:   "convert [file|dir|url]...",
	Short: "Re-encode images in another format",
	Long: `Decode each input and write it in the format given by --to. Transparent
areas are filled with white when converting to JPEG. The output keeps the
source name with the new extension.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	flags := convertCmd.Flags()
	flags.String("to", "", "target format: jpeg, png, gif, bmp or tiff (or a mime type)")
	flags.StringP("out", "o", "", "directory for converted files (default: next to each source)")
	flags.BoolP("recursive", "r", false, "descend into sub-directories")
	convertCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	outDir, _ := cmd.Flags().GetString("out")
	recursive, _ := cmd.Flags().GetBool("recursive")

	target, err := filehandler.TypeForFormat(to)
	if err != nil {
		return err
	}

	return eachInput(cmd, args, recursive, func(file models.File, input string) error {
		printInfo("Converting %s to %s", file.Name, target)
		blob, err := pipeline.New(nil).Convert(cmd.Context(), file.Data, target)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outputDir(input, outDir), filehandler.RenamedOutput(file.Name, "", "", target))
		if filepath.Clean(outPath) == filepath.Clean(input) {
			return fmt.Errorf("output would overwrite %s, pass --out", input)
		}
		fmt.Fprintf(stdout, "    Size: %s -> %s\n", humanize.Bytes(uint64(file.Size())), humanize.Bytes(uint64(blob.Size())))
		return saveBlob(blob, outPath)
	})
}

// eachInput opens every input, directories expanded, and runs fn on it.
// Failures are reported per file and counted into the returned error.
func eachInput(cmd *cobra.Command, args []string, recursive bool, fn func(file models.File, input string) error) error {
	inputs, err := expandInputs(args, recursive)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		printWarning("No image files found")
		return nil
	}

	handler := newFileHandler()
	failed := 0
	for _, input := range inputs {
		file, err := handler.OpenSource(cmd.Context(), input)
		if err == nil {
			err = fn(file, input)
		}
		if err != nil {
			printError("%s: %v", input, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}
