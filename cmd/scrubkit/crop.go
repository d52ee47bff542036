package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/filehandler"
	"github.com/thvl3/scrubkit/pkg/pipeline"
)

var cropCmd = &cobra.Command{
	Use:   "crop [file|url|data-url]",
	Short: "Cut a rectangle out of an image",
	Long: `Cut the rectangle given by --rect x,y,width,height (pixels from the top-left
corner) out of the input and save it as cropped_<name>. The output is JPEG
unless --to says otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

func init() {
	flags := cropCmd.Flags()
	flags.String("rect", "", "crop rectangle as x,y,width,height")
	flags.String("to", "jpeg", "output format")
	flags.StringP("out", "o", "", "directory for the cropped file (default: next to the source)")
	cropCmd.MarkFlagRequired("rect")
	rootCmd.AddCommand(cropCmd)
}

// parseRect reads "x,y,width,height" into a rectangle
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("%w: %q is not x,y,width,height", pipeline.ErrInvalidCrop, s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("%w: %q is not x,y,width,height", pipeline.ErrInvalidCrop, s)
		}
		v[i] = n
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

func runCrop(cmd *cobra.Command, args []string) error {
	rectFlag, _ := cmd.Flags().GetString("rect")
	to, _ := cmd.Flags().GetString("to")
	outDir, _ := cmd.Flags().GetString("out")

	r, err := parseRect(rectFlag)
	if err != nil {
		return err
	}
	target, err := filehandler.TypeForFormat(to)
	if err != nil {
		return err
	}

	file, err := newFileHandler().OpenSource(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printInfo("Cropping %s to %dx%d at (%d, %d)", file.Name, r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
	blob, err := pipeline.New(nil).Crop(cmd.Context(), file.Data, r, target)
	if err != nil {
		return err
	}

	outPath := filepath.Join(outputDir(args[0], outDir), filehandler.RenamedOutput(file.Name, "cropped_", "", blob.Type))
	return saveBlob(blob, outPath)
}
