// Package report renders validation outcomes, plans and the check catalogue
// as terminal tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/runner"
	"github.com/kingrea/fieldcheck/internal/series"
	"github.com/kingrea/fieldcheck/internal/validation"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Status words used in text output.
const (
	StatusValid     = "valid"
	StatusInvalid   = "invalid"
	StatusPending   = "pending"
	StatusUnchecked = "unchecked"
)

// FieldStatus classifies one field of an outcome.
func FieldStatus(f validation.FieldOutcome) string {
	switch {
	case f.Pending:
		return StatusPending
	case !f.Checked:
		return StatusUnchecked
	case f.Result.Valid():
		return StatusValid
	default:
		return StatusInvalid
	}
}

func styleStatus(status string) string {
	switch status {
	case StatusValid:
		return passStyle.Render(status)
	case StatusInvalid:
		return failStyle.Render(status)
	case StatusPending:
		return pendingStyle.Render(status)
	default:
		return status
	}
}

// Failures renders a result as "check: payload" pairs in check order.
func Failures(result runner.Result) string {
	if result.Valid() {
		return ""
	}
	parts := make([]string, 0, len(result))
	for _, name := range result.Checks() {
		parts = append(parts, fmt.Sprintf("%s: %v", name, result[name]))
	}
	return strings.Join(parts, ", ")
}

type fieldJSON struct {
	Name   string   `json:"name"`
	Plan   []string `json:"plan"`
	Status string   `json:"status"`
	Result any      `json:"result"`
}

type outcomeJSON struct {
	Valid   bool        `json:"valid"`
	Errors  int         `json:"errors"`
	Pending int         `json:"pending"`
	Fields  []fieldJSON `json:"fields"`
}

// Outcome writes the state of every field.
func Outcome(w io.Writer, o validation.Outcome, format string) error {
	if format == FormatJSON {
		doc := outcomeJSON{Valid: o.Valid(), Errors: o.Errors, Pending: o.Pending}
		for _, f := range o.Fields {
			var result any
			if f.Checked {
				result = f.Result.Value()
			}
			doc.Fields = append(doc.Fields, fieldJSON{Name: f.Name, Plan: f.Plan, Status: FieldStatus(f), Result: result})
		}
		return writeJSON(w, doc)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Status", "Failures"})
	for _, f := range o.Fields {
		t.AppendRow(table.Row{f.Name, styleStatus(FieldStatus(f)), Failures(f.Result)})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d fields, %d invalid, %d pending)\n", len(o.Fields), o.Errors, o.Pending)
	return nil
}

// PlanRow describes one field's execution plan.
type PlanRow struct {
	Field     string   `json:"field"`
	Plan      []string `json:"plan"`
	Triggered []string `json:"triggered_by,omitempty"`
}

// Plans lists every field's plan and the attributes whose changes
// re-validate it.
func Plans(w io.Writer, v *validation.Validator, format string) error {
	rel := v.Relations()
	rows := make([]PlanRow, 0, len(v.Fields()))
	for _, name := range v.Fields() {
		p, _ := v.Plan(name)
		row := PlanRow{Field: name, Plan: append([]string{}, p.Steps...)}
		for _, source := range rel.Sources() {
			for _, target := range rel[source] {
				if target == name && source != name {
					row.Triggered = append(row.Triggered, source)
				}
			}
		}
		rows = append(rows, row)
	}
	if format == FormatJSON {
		return writeJSON(w, rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Plan", "Re-validated by"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Field, strings.Join(row.Plan, " -> "), strings.Join(row.Triggered, ", ")})
	}
	t.Render()
	return nil
}

// CheckRow describes one catalogue entry.
type CheckRow struct {
	Name        string   `json:"name"`
	Requires    []string `json:"requires"`
	Fatal       bool     `json:"fatal"`
	Description string   `json:"description"`
}

// Catalogue lists the registered checks and patterns.
func Catalogue(w io.Writer, cat *check.Catalogue, format string) error {
	var rows []CheckRow
	for _, name := range cat.CheckNames() {
		def, _ := cat.Check(name)
		rows = append(rows, CheckRow{Name: name, Requires: def.Requires, Fatal: def.Fatal, Description: def.Description})
	}
	if format == FormatJSON {
		patterns := map[string]string{}
		for _, name := range cat.PatternNames() {
			re, _ := cat.Pattern(name)
			patterns[name] = re.String()
		}
		return writeJSON(w, struct {
			Checks   []CheckRow        `json:"checks"`
			Patterns map[string]string `json:"patterns"`
		}{rows, patterns})
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Requires", "Fatal", "Description"})
	for _, row := range rows {
		fatal := ""
		if row.Fatal {
			fatal = "yes"
		}
		t.AppendRow(table.Row{row.Name, strings.Join(row.Requires, ", "), fatal, row.Description})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "patterns: %s\n", strings.Join(cat.PatternNames(), ", "))
	return nil
}

// TraceRow is one series event of a traced field.
type TraceRow struct {
	Event  string `json:"event"`
	Check  string `json:"check,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// TraceRows flattens series events in the order they were emitted.
func TraceRows(events []series.Event) []TraceRow {
	rows := make([]TraceRow, 0, len(events))
	for _, e := range events {
		row := TraceRow{Event: string(e.Kind), Check: e.Key}
		switch {
		case e.Err != nil:
			row.Detail = e.Err.Error()
		case e.Result != nil:
			row.Detail = fmt.Sprint(e.Result)
		}
		rows = append(rows, row)
	}
	return rows
}

// Trace writes the events of one traced run of field. A run that neither
// ended nor failed is reported as aborted.
func Trace(w io.Writer, field string, events []series.Event, format string) error {
	rows := TraceRows(events)
	if format == FormatJSON {
		return writeJSON(w, struct {
			Field  string     `json:"field"`
			Events []TraceRow `json:"events"`
		}{field, rows})
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(field)
	t.AppendHeader(table.Row{"#", "Event", "Check", "Detail"})
	for i, row := range rows {
		t.AppendRow(table.Row{i + 1, row.Event, row.Check, row.Detail})
	}
	t.Render()
	if n := len(rows); n > 0 {
		switch series.EventKind(rows[n-1].Event) {
		case series.EventEnd:
			_, _ = fmt.Fprintln(w, passStyle.Render("completed"))
		case series.EventError:
			_, _ = fmt.Fprintln(w, failStyle.Render("stopped by fatal failure"))
		default:
			_, _ = fmt.Fprintln(w, pendingStyle.Render("aborted"))
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
