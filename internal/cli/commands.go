package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kingrea/fieldcheck/internal/check/builtin"
	"github.com/kingrea/fieldcheck/internal/config"
	"github.com/kingrea/fieldcheck/internal/loop"
	"github.com/kingrea/fieldcheck/internal/record"
	"github.com/kingrea/fieldcheck/internal/report"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [record]",
		Short: "Validate a record against the schema",
		Long: `Validate every schema field of a record and report the outcome.

The record is a YAML or JSON mapping of attribute names to values. It is
read from the argument, the --record flag or the configured record, in
that order; "-" reads stdin. The command exits non-zero when any field
fails.`,
		Example: `  # Validate a record with the schema in ./schema.yaml
  fieldcheck validate user.yaml

  # Simulate slow checks and report as JSON
  fieldcheck validate user.yaml --latency 200ms -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sessionFrom(cmd)
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			sch, err := s.loadSchema()
			if err != nil {
				return err
			}
			attrs, err := s.loadRecord(path)
			if err != nil {
				return err
			}

			l := loop.New()
			v, err := s.newValidator(sch, record.New(attrs), l)
			if err != nil {
				return err
			}
			started := v.Force(attrs)
			s.logger.Debug("validation started", slog.Any("fields", started), slog.String("validator", v.ID().String()))
			if err := l.RunUntilIdle(cmd.Context()); err != nil {
				return fmt.Errorf("validation interrupted: %w", err)
			}

			outcome := v.Outcome()
			if err := report.Outcome(cmd.OutOrStdout(), outcome, s.cfg.Output); err != nil {
				return err
			}
			if !outcome.Valid() {
				s.logger.Info("record invalid", slog.Any("fields", outcome.Failed()))
				return ErrInvalid
			}
			return nil
		},
	}
}

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show each field's check plan",
		Long: `Show the ordered checks every schema field runs, prerequisites
included, and the attributes whose changes re-validate it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := sessionFrom(cmd)
			sch, err := s.loadSchema()
			if err != nil {
				return err
			}
			v, err := s.newValidator(sch, record.New(nil), nil)
			if err != nil {
				return err
			}
			return report.Plans(cmd.OutOrStdout(), v, s.cfg.Output)
		},
	}
}

func newChecksCommand() *cobra.Command {
	var builtinOnly bool
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the available checks and patterns",
		Long: `List the registered checks with their prerequisites, and the named
patterns usable with match. Patterns declared by the schema are included
unless --builtin is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := sessionFrom(cmd)
			cat := builtin.Catalogue()
			if !builtinOnly {
				sch, err := s.loadSchema()
				if err != nil {
					return err
				}
				if cat, err = sch.Catalogue(cat); err != nil {
					return err
				}
			}
			return report.Catalogue(cmd.OutOrStdout(), cat, s.cfg.Output)
		},
	}
	cmd.Flags().BoolVar(&builtinOnly, "builtin", false, "list only the built-in checks and patterns")
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter configuration and schema",
		Long: `Write ` + config.FileName + ` and an example ` + config.SchemaFileName + ` into the
directory. Existing files are left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			written, err := config.Init(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(written) == 0 {
				_, _ = fmt.Fprintln(out, "Nothing to do: configuration already present")
				return nil
			}
			for _, path := range written {
				_, _ = fmt.Fprintf(out, "Created %s\n", path)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the fieldcheck version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fieldcheck v%s\n", Version)
		},
	}
}
