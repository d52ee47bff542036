package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/config"
	"github.com/thvl3/scrubkit/pkg/filehandler"
	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
)

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	cfg    = config.Default()
	logger = slog.Default()
)

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func printAlert(format string, args ...interface{}) {
	fmt.Fprintf(stdout, "%s %s\n", alertColor("[!!!]"), fmt.Sprintf(format, args...))
}

var rootCmd = &cobra.Command{
	Use:   "scrubkit",
	Short: "Strip image metadata and extract colour palettes",
	Long: `scrubkit removes EXIF, XMP, comments and text chunks from JPEG and PNG
files without re-encoding the pixels, falling back to a decode and re-encode
for anything it cannot slice. It can also list the metadata a file carries
and extract a representative colour palette.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to a YAML config file (default $"+config.EnvVar+")")
	flags.BoolP("verbose", "v", false, "log at debug level")
	config.BindFlags(flags)
}

// setup loads the configuration and builds the logger for every command
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := loaded.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		loaded.Log.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := loaded.Log.NewLogger(stderr)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

func newFileHandler() *filehandler.Handler {
	return filehandler.New(cfg.Files.MaxSize, cfg.Files.DownloadTimeout)
}

// outputDir is --out when given, else the directory of a local input, else
// the working directory
func outputDir(input, outDir string) string {
	if outDir != "" {
		return outDir
	}
	if filehandler.IsURL(input) || imaging.IsDataURL(input) {
		return "."
	}
	return filepath.Dir(input)
}

func saveBlob(blob *models.Blob, outPath string) error {
	if err := filehandler.SaveFile(blob.Data, outPath); err != nil {
		return err
	}
	printSuccess("Saved %s", outPath)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
