package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomvoet/imgconv/internal/format"
	"github.com/tomvoet/imgconv/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a batch output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for manifest inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}

	m, err := manifest.Read(path)
	if err != nil {
		return err
	}

	printStats(m)
	return nil
}

type bucket struct {
	count int
	bytes int64
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Target:           %s\n", m.Target)
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:          %d (queue depth %d, isolated %t)\n",
			m.BuildInfo.Workers, m.BuildInfo.QueueDepth, m.BuildInfo.Isolated)
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total files:      %d\n", s.TotalFiles)
	fmt.Printf("  Converted:        %d\n", s.Converted)
	fmt.Printf("  Failed:           %d\n", s.Failed)
	fmt.Printf("  Input size:       %s\n", humanize.Bytes(uint64(s.TotalInputBytes)))
	fmt.Printf("  Output size:      %s\n", humanize.Bytes(uint64(s.TotalOutputBytes)))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Size ratio:       %.1f%% of original\n", ratio)
	}
	fmt.Println()

	// Per-source-format breakdown, in registry order.
	bySource := map[string]bucket{}
	kinds := map[string]int{}
	var slowest []string
	for key, e := range m.Files {
		b := bySource[e.Source.Type]
		b.count++
		b.bytes += e.Source.Size
		bySource[e.Source.Type] = b
		if e.Error != nil {
			kinds[e.Error.Kind]++
		}
		if e.Output != nil {
			slowest = append(slowest, key)
		}
	}

	fmt.Println("  Source formats:")
	for _, f := range format.Input() {
		if b, ok := bySource[f.MimeType]; ok {
			fmt.Printf("    %-6s  %4d files  %s\n", f.Extension, b.count, humanize.Bytes(uint64(b.bytes)))
		}
	}
	fmt.Println()

	if len(kinds) > 0 {
		var names []string
		for k := range kinds {
			names = append(names, k)
		}
		sort.Strings(names)
		fmt.Println("  Failures by kind:")
		for _, k := range names {
			fmt.Printf("    %-24s %4d\n", k, kinds[k])
		}
		fmt.Println()
	}

	if len(slowest) > 0 {
		sort.Slice(slowest, func(i, j int) bool {
			return m.Files[slowest[i]].Output.DurationMS > m.Files[slowest[j]].Output.DurationMS
		})
		n := min(len(slowest), 5)
		fmt.Printf("  Slowest %d:\n", n)
		for _, key := range slowest[:n] {
			fmt.Printf("    %-40s %6d ms\n", truncKey(key, 40), m.Files[key].Output.DurationMS)
		}
		fmt.Println()
	}
}
