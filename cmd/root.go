package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tomvoet/imgconv/internal/config"
	"github.com/tomvoet/imgconv/internal/logging"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string

	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "imgconv",
	Short: "Convert images between formats",
	Long: `imgconv converts raster and vector images between formats.

Conversions run in an isolated worker: an in-process goroutine by default,
or a child process with --isolate. Single files go through "convert",
whole directory trees through "batch", which also writes a manifest.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		log = logging.New(os.Stderr, verbose)
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		log.WithField("config", config.Path()).Debug("configuration loaded")
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (overrides the search path)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgconv %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}
