package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomvoet/imgconv/internal/codec"
	"github.com/tomvoet/imgconv/internal/format"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List known formats and which encoders are available",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(_ *cobra.Command, _ []string) error {
	c := codec.New(codec.Options{Quality: cfg.QualityByMime(), Logger: log})
	if err := c.Init(); err != nil {
		return fmt.Errorf("init codec: %w", err)
	}
	reg := c.Registry()

	fmt.Println()
	fmt.Println("  Output formats:")
	for _, e := range format.Output() {
		mark := "✓"
		if reg.Get(e.MimeType) == nil {
			mark = "✗"
		}
		fmt.Printf("    %s %-6s %s\n", mark, e.Extension, e.MimeType)
	}
	fmt.Println()
	fmt.Println("  Input-only formats:")
	for _, e := range format.Input()[len(format.Output()):] {
		fmt.Printf("      %-6s %s\n", e.Extension, e.MimeType)
	}
	fmt.Println()
	fmt.Printf("  Accept filter: %s\n", format.AcceptFilter())
	fmt.Printf("  %s\n", reg)
	fmt.Println()
	return nil
}
