// Package cli provides the command-line interface for fieldcheck.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/check/builtin"
	"github.com/kingrea/fieldcheck/internal/config"
	"github.com/kingrea/fieldcheck/internal/logging"
	"github.com/kingrea/fieldcheck/internal/loop"
	"github.com/kingrea/fieldcheck/internal/record"
	"github.com/kingrea/fieldcheck/internal/schema"
	"github.com/kingrea/fieldcheck/internal/validation"
)

// Version is set at build time.
var Version = "0.1.0"

// ErrInvalid is returned when a validated record has failing fields.
var ErrInvalid = errors.New("record is invalid")

type sessionKey struct{}

// session is what PersistentPreRunE hands to every command.
type session struct {
	cfg    *config.Config
	logger *logging.Logger
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "fieldcheck",
		Short: "Asynchronous field validation",
		Long: `fieldcheck validates records against a schema of per-field checks.

Each field runs its checks in dependency order. A change to one attribute
re-validates the fields related to it, and slow checks may complete
asynchronously.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			logger, err := logging.New(
				logging.WithLevel(level),
				logging.WithFormat(logging.Format(cfg.Log.Format)),
				logging.WithOutput(cmd.ErrOrStderr()),
				logging.WithFile(cfg.Log.File),
			)
			if err != nil {
				return err
			}
			if cfg.FileUsed != "" {
				logger.Debug("configuration loaded", slog.String("file", cfg.FileUsed))
			}
			cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, &session{cfg: cfg, logger: logger}))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if s, ok := cmd.Context().Value(sessionKey{}).(*session); ok {
				return s.logger.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.FileName+")")
	flags.StringP("schema", "s", "", "schema file")
	flags.StringP("record", "r", "", "record document to validate (- for stdin)")
	flags.StringP("output", "o", "", "output format (text|json)")
	flags.Duration("latency", 0, "delay every check completion")
	flags.Bool("collect-all", false, "report every failing check of a field")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.String("log-file", "", "append logs to this file")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newValidateCommand(),
		newPlanCommand(),
		newChecksCommand(),
		newTraceCommand(),
		newFormCommand(),
		newInitCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func sessionFrom(cmd *cobra.Command) *session {
	if s, ok := cmd.Context().Value(sessionKey{}).(*session); ok {
		return s
	}
	cfg := &config.Config{
		Schema: config.SchemaFileName,
		Output: config.OutputText,
		Log:    config.LogConfig{Level: "info", Format: "text"},
	}
	return &session{cfg: cfg, logger: &logging.Logger{Logger: logging.Discard()}}
}

func (s *session) loadSchema() (schema.Schema, error) {
	return schema.LoadFile(s.cfg.Schema)
}

// loadRecord reads the record named by path, falling back to the
// configured record. No record at all is an empty one.
func (s *session) loadRecord(path string) (record.Attributes, error) {
	if path == "" {
		path = s.cfg.Record
	}
	if path == "" {
		return record.Attributes{}, nil
	}
	return schema.LoadAttributesFile(path)
}

// newValidator builds a validator for sch reading from source. When sched
// is set every evaluation is deferred onto it by the configured latency.
func (s *session) newValidator(sch schema.Schema, source validation.Source, sched loop.Scheduler) (*validation.Validator, error) {
	opts, err := sch.Options(builtin.Catalogue())
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		validation.WithLogger(s.logger.Logger),
		validation.WithCollectFailures(s.cfg.CollectAll),
	)
	if sched != nil {
		opts = append(opts, validation.WithEvaluatorWrapper(func(_, _ string, ev check.Evaluator) check.Evaluator {
			return loop.Defer(sched, s.cfg.Latency, ev)
		}))
	}
	return validation.New(source, sch.Fields, opts...)
}
