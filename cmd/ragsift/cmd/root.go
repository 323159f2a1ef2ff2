// Package cmd provides the CLI commands for ragsift.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ragsift/ragsift/internal/config"
	"github.com/ragsift/ragsift/internal/errors"
	"github.com/ragsift/ragsift/internal/logging"
	"github.com/ragsift/ragsift/internal/profiling"
	"github.com/ragsift/ragsift/pkg/version"
)

// Persistent output and logging flags, shared by every subcommand.
var (
	verboseMode bool
	quietMode   bool
	logFilePath string
	noColorMode bool

	loggingCleanup func()
)

// Profiling flags, for pipeline performance work.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profSession  *profiling.Session
)

// NewRootCmd creates the root command for the ragsift CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragsift",
		Short: "Search result enhancement for RAG retrieval backends",
		Long: `ragsift wraps a RAG retrieval backend with query expansion,
multi-factor relevance scoring, source quality scoring, and
cluster-based deduplication, then renders a ranked summary.

Point it at an MCP retrieval server (default http://localhost:8051/mcp)
or at a local document corpus with --backend local.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("ragsift version {{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "Enable debug logging (mirrored to stderr)")
	cmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Log errors only")
	cmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "Log file path (default ~/.ragsift/logs/ragsift.log)")
	cmd.PersistentFlags().BoolVar(&noColorMode, "no-color", false, "Disable styled output")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSourcesCmd())
	cmd.AddCommand(newCodeCmd())
	cmd.AddCommand(newRefineCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLoggingAndProfiling initializes file logging and, if requested,
// profiling for the invocation. A failure to open the log file degrades
// to discarded logs instead of blocking the search; a failure to open a
// requested profile aborts the run.
func startLoggingAndProfiling(cmd *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if verboseMode {
		cfg = logging.DebugConfig()
	}
	if quietMode {
		cfg.Level = "error"
	}
	if logFilePath != "" {
		cfg.FilePath = logFilePath
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: file logging disabled: %v\n", err)
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	} else {
		loggingCleanup = cleanup
		slog.SetDefault(logger)
	}

	opts := profiling.Options{
		CPUPath:   profileCPU,
		HeapPath:  profileMem,
		TracePath: profileTrace,
	}
	if opts.Enabled() {
		session, err := profiling.Start(opts)
		if err != nil {
			return err
		}
		profSession = session
		slog.Debug("profiling started",
			slog.String("cpu", profileCPU),
			slog.String("mem", profileMem),
			slog.String("trace", profileTrace))
	}

	return nil
}

// stopProfilingAndLogging flushes profiles, then closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var profErr error
	if profSession != nil {
		profErr = profSession.Stop()
		profSession = nil
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return profErr
}

// Execute runs the root command, rendering errors for end users.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
	}
	return err
}

// renderError formats an error for terminal display. Verbose runs get
// the full form with the error code. Otherwise structured pipeline
// errors distinguish "check your parameters" from "unexpected, logged",
// and anything else prints as-is.
func renderError(err error) string {
	if verboseMode {
		return errors.FormatForCLI(err)
	}
	if se, ok := err.(*errors.SiftError); ok {
		msg := se.UserMessage()
		if se.Suggestion != "" {
			msg += "\nHint: " + se.Suggestion
		}
		return msg
	}
	return "Error: " + err.Error()
}

// siftMessage extracts the bare message from a structured error, falling
// back to the standard rendering for plain errors.
func siftMessage(err error) string {
	if se, ok := err.(*errors.SiftError); ok {
		return se.Message
	}
	return err.Error()
}

// loadConfig resolves the effective configuration for the working
// directory: defaults, then user config, project config, and environment
// overrides.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	return config.Load(root)
}
