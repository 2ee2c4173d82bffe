// Package cli implements the validate-xml command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	xmlvalidator "github.com/xmlvalid/validator"
	"github.com/xmlvalid/validator/config"
	"github.com/xmlvalid/validator/internal/platform"
	"github.com/xmlvalid/validator/report"
	"github.com/xmlvalid/validator/runner"
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "validate-xml [flags] <file|dir>...",
		Short: "Validate XML documents against the XSD schemas they declare",
		Long: `validate-xml validates XML documents concurrently against the schemas they
declare through xsi:schemaLocation or xsi:noNamespaceSchemaLocation. Remote
schemas are fetched once and cached on disk across runs.`,
		Version:       xmlvalidator.Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			var logOut io.Writer = cmd.ErrOrStderr()
			if cfg.LogFile != "" {
				logOut = platform.RotatingWriter(cfg.LogFile)
			}
			log, err := platform.ConfigureLogger(cfg.LogLevel, "text", logOut)
			if err != nil {
				return err
			}

			format, err := report.ParseFormat(cfg.Format)
			if err != nil {
				return err
			}

			r, err := runner.New(cfg.Options(), log)
			if err != nil {
				return err
			}
			defer r.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := r.Run(ctx, args)
			if err != nil {
				return err
			}

			if err := report.Write(cmd.OutOrStdout(), summary, report.Config{
				Format:  format,
				Color:   !cfg.NoColor && format == report.FormatText,
				Verbose: cfg.Verbose,
				Quiet:   cfg.Quiet,
			}); err != nil {
				return err
			}

			if code := summary.ExitCode(); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-file", "", "Write logs to this file (rotated) instead of stderr")
	cmd.PersistentFlags().String("cache-dir", "", "Schema cache directory")

	flags := cmd.Flags()
	flags.IntP("threads", "t", 0, "Number of parallel validation workers (default: CPU count)")
	flags.Bool("fail-fast", false, "Stop after the first invalid or errored document")
	flags.StringSliceP("extension", "e", nil, "File extensions to validate when walking directories")
	flags.StringSlice("include", nil, "Only walk files whose name matches these glob patterns")
	flags.StringSlice("exclude", nil, "Skip files whose name matches these glob patterns")
	flags.Duration("cache-ttl", 0, "Lifetime of disk-cached schemas")
	flags.Bool("no-disk-cache", false, "Disable the persistent schema cache")
	flags.Duration("timeout", 0, "Timeout per schema download")
	flags.Int("retry-attempts", -1, "Retry budget for failed schema downloads")
	flags.StringP("format", "o", "", "Output format (text, json, yaml)")
	flags.BoolP("verbose", "v", false, "List valid and skipped documents too")
	flags.BoolP("quiet", "q", false, "Only report invalid and errored documents")
	flags.Bool("no-color", false, "Disable colored output")

	cmd.AddCommand(newCacheCmd(&cfgFile))

	return cmd
}

// Execute runs the CLI and returns the process exit code: 0 when every
// document validated, 1 when any was invalid, 2 on system errors.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if exit, ok := err.(exitError); ok {
			return exit.code
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	return 0
}
