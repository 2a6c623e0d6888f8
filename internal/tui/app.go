// internal/tui/app.go
//
// This is the interactive form for fieldcheck. Every schema field gets a
// text input; each keystroke updates the record model, which re-validates
// the changed field and everything related to it.
//
// Check evaluations are deferred through Scheduler, so their completions
// arrive as messages like any other input:
//
//	keystroke -> Update -> model.Update -> validator -> deferred task
//	task msg  -> Update -> check completes -> validator events -> View

package tui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/loop"
	"github.com/kingrea/fieldcheck/internal/record"
	"github.com/kingrea/fieldcheck/internal/report"
	"github.com/kingrea/fieldcheck/internal/schema"
	"github.com/kingrea/fieldcheck/internal/validation"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Width(16)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true).Width(16)
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// AppOption customizes App construction.
type AppOption func(*App)

// WithValidationOptions passes options through to the validator.
func WithValidationOptions(opts ...validation.Option) AppOption {
	return func(a *App) {
		a.validationOpts = append(a.validationOpts, opts...)
	}
}

// WithLatency delays every check evaluation by d.
func WithLatency(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.latency = d
		}
	}
}

// WithInitial seeds the form; seeded values are validated on start.
func WithInitial(attrs record.Attributes) AppOption {
	return func(a *App) {
		a.initial = attrs.Clone()
	}
}

// WithLogger sets the logger used by the app and its validator.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// App is the form model.
type App struct {
	validationOpts []validation.Option
	latency        time.Duration
	initial        record.Attributes
	logger         *slog.Logger

	scheduler *Scheduler
	model     *record.Model
	validator *validation.Validator

	fields []string
	inputs []textinput.Model
	focus  int

	statusMsg string
	submitted bool
	width     int
}

// NewApp builds the form and its validator for fields.
func NewApp(fields []validation.FieldSpec, opts ...AppOption) (*App, error) {
	a := &App{
		scheduler: &Scheduler{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	a.model = record.NewModel(a.initial)
	deferred := validation.WithEvaluatorWrapper(func(_, _ string, ev check.Evaluator) check.Evaluator {
		return loop.Defer(a.scheduler, a.latency, ev)
	})
	vopts := append([]validation.Option{validation.WithLogger(a.logger)}, a.validationOpts...)
	v, err := validation.New(a.model, fields, append(vopts, deferred)...)
	if err != nil {
		return nil, err
	}
	a.validator = v
	a.model.Attach(v)
	v.Subscribe(validation.EventSettled, a.onSettled)

	a.fields = v.Fields()
	a.inputs = make([]textinput.Model, len(a.fields))
	for i, name := range a.fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = strings.Join(mustPlan(v, name), " -> ")
		ti.CharLimit = 256
		ti.Width = 32
		ti.Cursor.SetMode(cursor.CursorStatic)
		if value, ok := a.initial[name]; ok && value != nil {
			ti.SetValue(fmt.Sprint(value))
		}
		a.inputs[i] = ti
	}
	if len(a.inputs) > 0 {
		a.inputs[0].Focus()
	}
	return a, nil
}

func mustPlan(v *validation.Validator, field string) []string {
	p, ok := v.Plan(field)
	if !ok {
		return nil
	}
	return p.Steps
}

// Validator exposes the form's validator.
func (a *App) Validator() *validation.Validator { return a.validator }

// Values returns the current record.
func (a *App) Values() record.Attributes { return a.model.Snapshot() }

func (a *App) onSettled(e validation.Event) {
	if !a.submitted {
		return
	}
	if e.Errors == 0 && a.validator.Outcome().Valid() {
		a.statusMsg = "all fields valid"
	} else {
		a.statusMsg = fmt.Sprintf("%d field(s) invalid", e.Errors)
	}
	a.logger.Info("form settled", slog.Int("errors", e.Errors))
}

// Init validates seeded values.
func (a *App) Init() tea.Cmd {
	if len(a.initial) == 0 {
		return nil
	}
	a.validator.Force(a.model.Snapshot())
	return a.scheduler.Drain()
}

// Update handles keys, window resizes and deferred check work.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
	case taskMsg:
		msg.execute()
	case tea.KeyMsg:
		cmd = a.handleKey(msg)
	}
	work := a.scheduler.Drain()
	switch {
	case cmd == nil:
		return a, work
	case work == nil:
		return a, cmd
	}
	return a, tea.Batch(cmd, work)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit
	case "tab", "down":
		a.moveFocus(1)
		return nil
	case "shift+tab", "up":
		a.moveFocus(-1)
		return nil
	case "enter":
		if a.focus < len(a.inputs)-1 {
			a.moveFocus(1)
			return nil
		}
		a.submit()
		return nil
	case "ctrl+s":
		a.submit()
		return nil
	}
	if len(a.inputs) == 0 {
		return nil
	}

	before := a.inputs[a.focus].Value()
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	if after := a.inputs[a.focus].Value(); after != before {
		name := a.fields[a.focus]
		a.model.Update(record.Attributes{name: schema.ParseScalar(after)})
		a.statusMsg = ""
	}
	return cmd
}

func (a *App) moveFocus(delta int) {
	if len(a.inputs) == 0 {
		return
	}
	a.inputs[a.focus].Blur()
	a.focus = (a.focus + delta + len(a.inputs)) % len(a.inputs)
	a.inputs[a.focus].Focus()
}

func (a *App) submit() {
	a.submitted = true
	a.statusMsg = "validating..."
	if len(a.validator.Force(a.model.Snapshot())) == 0 {
		a.statusMsg = ""
	}
}

// View renders the form.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fieldcheck"))
	b.WriteString("\n")

	outcome := a.validator.Outcome()
	for i, f := range outcome.Fields {
		label := labelStyle.Render(f.Name)
		if i == a.focus {
			label = focusStyle.Render("> " + f.Name)
		}
		fmt.Fprintf(&b, "%s %s  %s\n", label, a.inputs[i].View(), renderStatus(f))
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("pending: %d · errors: %d", outcome.Pending, outcome.Errors)
	if a.statusMsg != "" {
		summary += " · " + a.statusMsg
	}
	b.WriteString(summary)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab/shift+tab move · enter next/submit · ctrl+s submit · esc quit"))
	b.WriteString("\n")
	return b.String()
}

func renderStatus(f validation.FieldOutcome) string {
	status := report.FieldStatus(f)
	switch status {
	case report.StatusValid:
		return validStyle.Render("✓ " + status)
	case report.StatusInvalid:
		return invalidStyle.Render("✗ " + report.Failures(f.Result))
	case report.StatusPending:
		return pendingStyle.Render("… " + status)
	default:
		return mutedStyle.Render(status)
	}
}
