package cli

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/fieldcheck/internal/check/builtin"
	"github.com/kingrea/fieldcheck/internal/loop"
	"github.com/kingrea/fieldcheck/internal/record"
	"github.com/kingrea/fieldcheck/internal/report"
	"github.com/kingrea/fieldcheck/internal/series"
	"github.com/kingrea/fieldcheck/internal/tui"
	"github.com/kingrea/fieldcheck/internal/validation"
)

func newTraceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trace <field> [record]",
		Short: "Step through one field's checks",
		Long: `Run one field's checks as a series and print every step as it
completes. Plain failures are reported and the series continues; a fatal
failure stops it, and an optional field that is absent aborts it.`,
		Example: `  fieldcheck trace confirm user.yaml --latency 100ms`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := sessionFrom(cmd)
			field := args[0]
			var path string
			if len(args) > 1 {
				path = args[1]
			}
			sch, err := s.loadSchema()
			if err != nil {
				return err
			}
			if _, ok := sch.Field(field); !ok {
				return fmt.Errorf("field %q is not in the schema", field)
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
			steps, _ := v.Steps(field)
			trace, err := series.New(series.CheckEntries(steps), nil, series.WithLogger(s.logger.Logger))
			if err != nil {
				return err
			}

			var events []series.Event
			for _, kind := range []series.EventKind{series.EventStart, series.EventDone, series.EventError, series.EventEnd} {
				trace.Subscribe(kind, func(e series.Event) {
					s.logger.Debug("trace", slog.String("event", string(e.Kind)), slog.String("check", e.Key))
					events = append(events, e)
				})
			}
			trace.Run(attrs[field], attrs)
			if err := l.RunUntilIdle(cmd.Context()); err != nil {
				return fmt.Errorf("trace interrupted: %w", err)
			}
			return report.Trace(cmd.OutOrStdout(), field, events, s.cfg.Output)
		},
	}
}

func newFormCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "form [record]",
		Short: "Fill in a record interactively",
		Long: `Open a terminal form with one input per schema field. Fields are
validated as you type; related fields re-validate with them. The final
outcome is printed when the form closes.

Logs are best sent to a file with --log-file while the form is open.`,
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
			opts, err := sch.Options(builtin.Catalogue())
			if err != nil {
				return err
			}
			opts = append(opts, validation.WithCollectFailures(s.cfg.CollectAll))
			app, err := tui.NewApp(sch.Fields,
				tui.WithValidationOptions(opts...),
				tui.WithLatency(s.cfg.Latency),
				tui.WithInitial(attrs),
				tui.WithLogger(s.logger.Logger),
			)
			if err != nil {
				return err
			}

			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running form: %w", err)
			}
			return report.Outcome(cmd.OutOrStdout(), app.Validator().Outcome(), s.cfg.Output)
		},
	}
}
