package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomvoet/imgconv/internal/format"
	"github.com/tomvoet/imgconv/internal/hasher"
	"github.com/tomvoet/imgconv/internal/logging"
	"github.com/tomvoet/imgconv/internal/protocol"
	"github.com/tomvoet/imgconv/internal/sink"
)

var (
	convertTo      string
	convertFrom    string
	convertOutDir  string
	convertWidth   uint32
	convertHeight  uint32
	convertQuality int
	convertIsolate bool
	convertUpload  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a single image to another format",
	Long: `Converts one file. The input format is taken from --from, or else from
the file extension; files with an unknown extension are sniffed by content.

The result is written next to the input (or into --out) with the input's
name and the target format's extension. If that would replace the input
itself, the content hash is added to the name as in batch output.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertTo, "to", "t", "", "output format, as MIME type or extension")
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "input MIME type (overrides the extension)")
	convertCmd.Flags().StringVarP(&convertOutDir, "out", "o", "", "output directory (default: config output_dir or the input's directory)")
	convertCmd.Flags().Uint32Var(&convertWidth, "width", 0, "raster width for SVG input")
	convertCmd.Flags().Uint32Var(&convertHeight, "height", 0, "raster height for SVG input")
	convertCmd.Flags().IntVarP(&convertQuality, "quality", "q", 0, "quality 1-100 for lossy formats (0 = config default)")
	convertCmd.Flags().BoolVar(&convertIsolate, "isolate", false, "convert in a child process")
	convertCmd.Flags().BoolVar(&convertUpload, "upload", false, "also upload the result to the configured bucket")
	_ = convertCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	start := time.Now()

	outType, err := parseTarget(convertTo)
	if err != nil {
		return err
	}
	if convertQuality < 0 || convertQuality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", convertQuality)
	}

	f, err := format.FileFromPath(args[0])
	if err != nil {
		return err
	}
	f.Type = convertFrom
	inType := format.Resolve(f)
	clog := logging.Component(log, "convert")
	clog.Debugf("input: %s (%s, %s)", args[0], inType, humanize.Bytes(uint64(len(f.Data))))

	d, err := newDispatcher(1, convertIsolate || cfg.Isolate)
	if err != nil {
		return err
	}
	defer d.Close()

	req := protocol.NewRequest(f.Data, inType, outType, requestSettings(inType, f.Data, convertWidth, convertHeight, convertQuality))
	job, err := d.Dispatch(ctx, req)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	out, err := job.Wait(ctx, func(p protocol.Progress) {
		fmt.Fprintf(os.Stderr, "\r  %3.0f%%  %-24s", p.Progress, p.Message)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("convert %s: %w", args[0], err)
	}

	dir := outputDir(args[0])
	clog.Debugf("output: %s (%s)", dir, outType)
	s, err := newSink(ctx, dir, convertUpload)
	if err != nil {
		return err
	}
	loc, err := s.Save(ctx, outputName(args[0], dir, outType, out), out)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	fmt.Printf("  ✓ %s  %s → %s  (%s)\n",
		loc,
		humanize.Bytes(uint64(len(f.Data))),
		humanize.Bytes(uint64(len(out))),
		time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func outputDir(input string) string {
	switch {
	case convertOutDir != "":
		return convertOutDir
	case cfg.OutputDir != "":
		return cfg.OutputDir
	default:
		return filepath.Dir(input)
	}
}

// outputName names the result of converting input within dir. A result that
// would overwrite its own input gets a short content hash before the
// extension.
func outputName(input, dir, outType string, out []byte) string {
	name := sink.OutputName(input, outType)
	if !sameFile(filepath.Join(dir, name), input) {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + hasher.Short(hasher.Sum(out)) + ext
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
