// Package cmd implements the arraygen command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/taxongrid/arraygen/internal/config"
	"github.com/taxongrid/arraygen/internal/observability"
)

// versionInfo holds build metadata injected at link time via SetVersionInfo.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	logLevel    string
	registryDir string
)

// flushLogs is set by the persistent pre-run and drained on exit.
var flushLogs = func() {}

var rootCmd = &cobra.Command{
	Use:   "arraygen",
	Short: "Plan and generate scheduler job arrays for classification batches",
	Long: `arraygen turns a batch job manifest into scheduler array artifacts:
an ordered work manifest, a slot dispatch script, and a merge script.
After the scheduler runs, it validates and registers the batch outputs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, flush, err := observability.Init(logLevel)
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid log level", err)
		}
		flushLogs = flush

		overrides := map[string]any{}
		if registryDir != "" {
			overrides["registry"] = map[string]any{"dir": registryDir}
		}
		if _, err := config.Load(cmd.Context(), overrides); err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&registryDir, "registry", "", "Run registry directory override")
}

// Execute runs the root command and exits the process with the error's
// exit code when one is carried.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	flushLogs()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ce *cliError
	if errors.As(err, &ce) {
		os.Exit(ce.code)
	}
	os.Exit(1)
}

// cliError carries a process exit code alongside the underlying error.
type cliError struct {
	code int
	msg  string
	err  error
}

func (e *cliError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *cliError) Unwrap() error {
	return e.err
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return &cliError{code: code, msg: message, err: err}
}
