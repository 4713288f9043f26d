// =============================================================================
// CSV to XML Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (csvxml)
//   ├── processCmd  (csvxml process)
//   ├── convertCmd  (csvxml convert FILE)
//   ├── validateCmd (csvxml validate)
//   └── versionCmd  (csvxml version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the main configuration (defaults, file, CSVXML_* env, flags)
//   2. Sets up structured logging on stderr
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csvxml/internal/config"
	"github.com/ginjaninja78/csvxml/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and logger are set by the root command before a subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     *slog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "csvxml",
	Short: "CSV to XML Converter - Turn tabular exports into XML documents",
	Long: `csvxml converts CSV and XLSX files into XML documents. Every record
becomes an element and every field a child element, with configurable element
and attribute names.

Key Features:
  - Conversion profiles matched to input files by name
  - Filtering, sorting and paging of records before conversion
  - Streaming CSV and XLSX readers with configurable encodings
  - Concurrent processing and automatic archival

Example Usage:
  csvxml process                          # Convert every file in the input directory
  csvxml convert data.csv --limit 10      # Convert one file to stdout
  csvxml validate                         # Check the configuration and profiles`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}

		mainConfig = cfg
		logger = logging.Setup(level, cfg.LogFormat, cmd.ErrOrStderr())
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the running conversions.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Flags named like a config key (dashes for underscores) override it
	// when set.

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "config.yaml", "Path to the main configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")

	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text, json")
	flags.String("input-dir", "", "Directory scanned for input files")
	flags.String("output-dir", "", "Directory receiving the XML files")
	flags.String("profiles-dir", "", "Directory holding the profile files")
	flags.Int("max-concurrency", 0, "Maximum number of files converted at once")
}
