package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/config"
	"github.com/thvl3/scrubkit/pkg/filehandler"
	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
	"github.com/thvl3/scrubkit/pkg/scrub"
	"github.com/thvl3/scrubkit/pkg/scrubber"
)

var scrubCmd = &cobra.Command{
	Use:   "scrub [file|dir|url]...",
	Short: "Remove metadata from images",
	Long: `Remove metadata from JPEG and PNG files by dropping the segments that carry
it, keeping pixel data byte-for-byte. Other formats, and files whose structure
cannot be parsed, are decoded and re-encoded instead.

Each input is written as <prefix><name> next to the source, or into --out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrub,
}

func init() {
	flags := scrubCmd.Flags()
	flags.StringP("out", "o", "", "directory for scrubbed files (default: next to each source)")
	flags.StringP("type", "t", "", "declared mime type, overriding detection")
	flags.BoolP("recursive", "r", false, "descend into sub-directories")
	flags.Bool("data-url", false, "print each result as a data: URL instead of writing files")
	config.BindScrubFlags(flags)
	rootCmd.AddCommand(scrubCmd)
}

func runScrub(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out")
	declared, _ := cmd.Flags().GetString("type")
	recursive, _ := cmd.Flags().GetBool("recursive")
	asDataURL, _ := cmd.Flags().GetBool("data-url")

	inputs, err := expandInputs(args, recursive)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		printWarning("No image files found")
		return nil
	}

	svc := scrub.NewService(logger, &imaging.Codec{JPEGQuality: cfg.Scrub.JPEGQuality})
	svc.ForceCanvas = cfg.Scrub.ForceCanvas
	handler := newFileHandler()

	var results []*models.ScrubResult
	failed := 0
	for _, input := range inputs {
		result, err := scrubOne(cmd, svc, handler, input, declared, outDir, asDataURL)
		if err != nil {
			printError("%s: %v", input, err)
			failed++
			continue
		}
		results = append(results, result)
	}

	if len(inputs) > 1 {
		printScrubSummary(results, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be scrubbed", failed, len(inputs))
	}
	return nil
}

// expandInputs replaces directories with the images they contain
func expandInputs(args []string, recursive bool) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		if filehandler.IsURL(arg) || imaging.IsDataURL(arg) {
			inputs = append(inputs, arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		files, err := filehandler.GatherFiles(arg, recursive)
		if err != nil {
			return nil, err
		}
		printInfo("Found %d images in %s", len(files), arg)
		inputs = append(inputs, files...)
	}
	return inputs, nil
}

func scrubOne(cmd *cobra.Command, svc *scrubber.Service, handler *filehandler.Handler, input, declared, outDir string, asDataURL bool) (*models.ScrubResult, error) {
	file, err := handler.OpenSource(cmd.Context(), input)
	if err != nil {
		return nil, err
	}
	if declared != "" {
		file.Type = declared
	}

	printInfo("Scrubbing %s as %s", file.Name, file.Type)
	result, err := svc.Scrub(cmd.Context(), file)
	if err != nil {
		return nil, err
	}

	displayScrubResult(result)

	if asDataURL {
		fmt.Fprintln(stdout, imaging.EncodeDataURL(result.Blob.Data, result.Blob.Type))
		return result, nil
	}

	outPath := filehandler.OutputPath(outputDir(input, outDir), cfg.Scrub.OutputPrefix, file.Name)
	if err := saveBlob(result.Blob, outPath); err != nil {
		return nil, err
	}
	return result, nil
}

func displayScrubResult(result *models.ScrubResult) {
	if result.Lossless() {
		printSuccess("Lossless scrub with %s", result.Scrubber)
	} else {
		printWarning("Re-encoded through canvas fallback")
		if result.FallbackReason != "" {
			fmt.Fprintf(stdout, "    Reason: %s\n", result.FallbackReason)
		}
	}

	if len(result.Dropped) > 0 {
		kinds := make([]string, 0, len(result.Dropped))
		for _, d := range result.Dropped {
			kinds = append(kinds, d.Kind)
		}
		fmt.Fprintf(stdout, "    Dropped: %s\n", strings.Join(kinds, ", "))
	} else if result.Lossless() {
		fmt.Fprintln(stdout, "    Dropped: nothing, file was already clean")
	}

	fmt.Fprintf(stdout, "    Size: %s -> %s\n",
		humanize.Bytes(uint64(result.InputSize)), humanize.Bytes(uint64(result.OutputSize)))
	logger.Debug("digests", "file", result.Filename, "input", result.InputDigest, "output", result.OutputDigest)
	fmt.Fprintf(stdout, "    Time: %v\n", result.ScrubDuration)
}

func printScrubSummary(results []*models.ScrubResult, failed int) {
	var lossless, reencoded int
	var saved int64
	for _, r := range results {
		if r.Lossless() {
			lossless++
		} else {
			reencoded++
		}
		saved += int64(r.InputSize - r.OutputSize)
	}

	fmt.Fprintln(stdout, "\n=== Scrub Summary ===")
	fmt.Fprintf(stdout, "Total files: %d\n", len(results)+failed)
	fmt.Fprintf(stdout, "%s Lossless: %d\n", successColor("[+]"), lossless)
	if reencoded > 0 {
		fmt.Fprintf(stdout, "%s Re-encoded: %d\n", warningColor("[!]"), reencoded)
	}
	if failed > 0 {
		fmt.Fprintf(stdout, "%s Failed: %d\n", errorColor("[-]"), failed)
	}
	if saved > 0 {
		fmt.Fprintf(stdout, "Metadata removed: %s\n", humanize.Bytes(uint64(saved)))
	}
}
