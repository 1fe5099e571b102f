package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/cli/internal/output"
	"github.com/getmockd/httptape/pkg/config"
	"github.com/getmockd/httptape/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	jsonOutput bool
	logLevel   string

	// Loaded by the root command before any subcommand runs.
	cfg       *config.Config
	logger    = logging.Nop()
	logCloser io.Closer

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// errSilent is returned by commands that already reported the failure.
var errSilent = errors.New("")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "httptape",
	Short: "httptape inspects recorded HTTP fixture trees",
	Long: `httptape records HTTP responses to fixture files during a test run and
replays them afterwards. This tool inspects fixture trees: it shows where a
request would be stored, which layer would answer it, and what was captured.

Settings are read from httptape.yaml in the current directory, from the file
named by HTTPTAPE_CONFIG, or from --config.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "validate" || cmd.Name() == "version" {
			return nil
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		l, closer, err := cfg.Logger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger, logCloser = l, closer
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute runs the root command with args and reports errors to stderr.
func Execute(args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errSilent) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return err
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	if err := Execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discover httptape.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// printResult outputs a single operation result.
//
// Contract: when --json is active, ONLY the JSON encoding of data is written
// to stdout. textFn is called only in text mode.
func printResult(cmd *cobra.Command, data any, textFn func()) error {
	if jsonOutput {
		return output.JSON(cmd.OutOrStdout(), data)
	}
	textFn()
	return nil
}
