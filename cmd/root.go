package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pagepdf/config"
	"pagepdf/logger"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool

	// cfg is loaded before any command that downloads runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pagepdf",
	Short: "Turn image gallery pages into PDF documents",
	Long: "Download every image of a web gallery page, paginated galleries included,\n" +
		"and bind them in reading order into a single PDF (or EPUB).",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/pagepdf/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and starts logging, console plus the
// rotating debug file in the config directory.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	cfg = loaded

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Options{Level: cfg.LogLevel, DebugDir: dir, NoColor: noColor}); err != nil {
		return fmt.Errorf("failed to start logging: %w", err)
	}
	return nil
}

// noSetup skips config loading for commands that never download.
func noSetup(*cobra.Command, []string) error { return nil }

// Execute runs the CLI; canceling ctx stops running downloads.
func Execute(ctx context.Context) error {
	defer logger.Close()
	return rootCmd.ExecuteContext(ctx)
}
