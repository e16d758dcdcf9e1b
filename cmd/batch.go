package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomvoet/imgconv/internal/manifest"
	"github.com/tomvoet/imgconv/internal/pipeline"
	"github.com/tomvoet/imgconv/internal/settings"
)

var (
	batchTo      string
	batchOutDir  string
	batchWorkers int
	batchWidth   uint32
	batchHeight  uint32
	batchQuality int
	batchIsolate bool
	batchUpload  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Convert every image in a directory tree and write a manifest",
	Long: `Scans the input directory for files whose extension is a known input
format, converts each to the target format, and writes a manifest.

Output filenames are content-addressed: <key>.<hash>.ext, where key is the
source path without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchTo, "to", "t", "", "output format, as MIME type or extension")
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", "./imgconv_out", "output directory")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "parallel workers (0 = config workers)")
	batchCmd.Flags().Uint32Var(&batchWidth, "width", 0, "raster width for SVG input")
	batchCmd.Flags().Uint32Var(&batchHeight, "height", 0, "raster height for SVG input")
	batchCmd.Flags().IntVarP(&batchQuality, "quality", "q", 0, "quality 1-100 for lossy formats (0 = config default)")
	batchCmd.Flags().BoolVar(&batchIsolate, "isolate", false, "convert in child processes")
	batchCmd.Flags().BoolVar(&batchUpload, "upload", false, "also upload results to the configured bucket")
	_ = batchCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	start := time.Now()

	target, err := parseTarget(batchTo)
	if err != nil {
		return err
	}
	if batchQuality < 0 || batchQuality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", batchQuality)
	}

	// Resolve absolute paths.
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(batchOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Workers
	}
	isolate := batchIsolate || cfg.Isolate

	log.Debugf("input:   %s", absInput)
	log.Debugf("output:  %s", absOutput)
	log.Debugf("target:  %s (workers=%d, isolate=%t)", target, workers, isolate)

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	d, err := newDispatcher(workers, isolate)
	if err != nil {
		return err
	}
	defer d.Close()

	s, err := newSink(ctx, absOutput, batchUpload)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Config{
		InputDir:  absInput,
		OutputDir: absOutput,
		Target:    target,
		SettingsFor: func(inType string, data []byte) settings.Settings {
			return requestSettings(inType, data, batchWidth, batchHeight, batchQuality)
		},
		Dispatcher:  d,
		Sink:        s,
		Concurrency: workers * (cfg.QueueDepth + 1),
		BuildInfo: &manifest.BuildInfo{
			Workers:    workers,
			QueueDepth: cfg.QueueDepth,
			Isolated:   isolate,
		},
		Log: log,
	})

	m, err := p.Run(ctx)
	if m == nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if werr := manifest.WriteJSON(m, manifestPath); werr != nil {
		return fmt.Errorf("write manifest: %w", werr)
	}

	printBatchReport(m, time.Since(start))

	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func printBatchReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║              imgconv batch complete              ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	stats := m.Stats
	fmt.Printf("  Target:      %s\n", m.Target)
	fmt.Printf("  Files:       %d\n", stats.TotalFiles)
	fmt.Printf("  Converted:   %d\n", stats.Converted)
	if stats.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", stats.Failed)
	}
	fmt.Printf("  Input size:  %s\n", humanize.Bytes(uint64(stats.TotalInputBytes)))
	fmt.Printf("  Output size: %s\n", humanize.Bytes(uint64(stats.TotalOutputBytes)))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.BuildInfo != nil {
		mode := "goroutines"
		if m.BuildInfo.Isolated {
			mode = "processes"
		}
		fmt.Printf("  Workers:     %d %s (queue depth %d)\n", m.BuildInfo.Workers, mode, m.BuildInfo.QueueDepth)
	}
	fmt.Println()

	// Top 10 heaviest converted files.
	type fileSize struct {
		key        string
		inputSize  int64
		outputSize int64
	}
	var items []fileSize
	for key, e := range m.Files {
		if e.Output != nil {
			items = append(items, fileSize{key, e.Source.Size, e.Output.Size})
		}
	}
	if len(items) > 0 {
		sort.Slice(items, func(i, j int) bool {
			return items[i].inputSize > items[j].inputSize
		})
		n := min(len(items), 10)
		fmt.Printf("  Top %d heaviest (original → converted):\n", n)
		for _, it := range items[:n] {
			fmt.Printf("    %-40s %8s → %8s\n",
				truncKey(it.key, 40),
				humanize.Bytes(uint64(it.inputSize)),
				humanize.Bytes(uint64(it.outputSize)),
			)
		}
		fmt.Println()
	}

	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, humanize.Bytes(uint64(len(data))))
	fmt.Println()
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
