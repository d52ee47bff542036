package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/inspect"
	"github.com/thvl3/scrubkit/pkg/models"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file|url]",
	Short: "List the metadata an image carries",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("json", false, "print the inventory as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	file, err := newFileHandler().OpenSource(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	result, inspectErr := inspect.Inspect(file.Data, file.Type)
	if result == nil {
		return inspectErr
	}
	result.Filename = file.Name

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		return inspectErr
	}

	displayInspection(result, file.Size())
	if inspectErr != nil {
		printWarning("Inventory is incomplete: %v", inspectErr)
	}
	return nil
}

func displayInspection(result *models.Inspection, size int) {
	fmt.Fprintln(stdout, "\n--- Metadata Inventory ---")
	fmt.Fprintf(stdout, "File: %s\n", result.Filename)
	fmt.Fprintf(stdout, "Format: %s\n", result.FileType)
	fmt.Fprintf(stdout, "Size: %s\n", humanize.Bytes(uint64(size)))
	if result.Width > 0 {
		fmt.Fprintf(stdout, "Dimensions: %d x %d\n", result.Width, result.Height)
	}

	fmt.Fprintln(stdout, "\nSegments:")
	for _, s := range result.Segments {
		mark := successColor("keep")
		if s.Scrubbed {
			mark = warningColor("drop")
		}
		label := s.Name
		if s.Signature != "" {
			label = fmt.Sprintf("%s (%s)", s.Name, s.Signature)
		}
		fmt.Fprintf(stdout, "  %s  %-10s %-8d %-10s %s\n", mark, s.Kind, s.Offset, humanize.Bytes(uint64(s.Length)), label)
	}

	if len(result.EXIF) > 0 {
		fmt.Fprintln(stdout, "\nEXIF:")
		keys := make([]string, 0, len(result.EXIF))
		for k := range result.EXIF {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(stdout, "  %-18s %s\n", k, result.EXIF[k])
		}
	}

	if len(result.Findings) > 0 {
		fmt.Fprintln(stdout, "\nFindings:")
		for i, f := range result.Findings {
			fmt.Fprintf(stdout, "%d. [%s] %s\n", i+1, f.Category, f.Description)
			if f.Details != "" {
				fmt.Fprintf(stdout, "   Details: %s\n", f.Details)
			}
		}
	}

	fmt.Fprintln(stdout)
	if result.HasGPS {
		printAlert("File embeds a GPS location")
	}
	if n := result.ScrubbableCount(); n > 0 {
		printWarning("%d segments would be removed by scrub", n)
	} else {
		printSuccess("No removable metadata found")
	}
	if result.TrailerLen > 0 {
		printWarning("%s of data follow the end of the image", humanize.Bytes(uint64(result.TrailerLen)))
	}
}
