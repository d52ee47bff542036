package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thvl3/scrubkit/pkg/palette"
)

var contrastCmd = &cobra.Command{
	Use:   "contrast [hex]...",
	Short: "Print the legible text colour for a background",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContrast,
}

func init() {
	rootCmd.AddCommand(contrastCmd)
}

func runContrast(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		c, err := palette.ParseHex(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s %s\n", c.Hex, c.Contrast())
	}
	return nil
}
