package runner

import (
	"io"
	"log/slog"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/event"
	"github.com/kingrea/fieldcheck/internal/record"
)

// EventKind names a runner notification.
type EventKind string

const (
	// EventRun fires synchronously at the start of every run.
	EventRun EventKind = "run"
	// EventEnd fires once per run that is not superseded, carrying its
	// Result.
	EventEnd EventKind = "end"
)

// Event is the payload delivered to runner subscribers.
type Event struct {
	Kind   EventKind
	Field  string
	Ticket uint64
	Result Result
}

// Step is one configured check in a field's plan.
type Step struct {
	Name      string
	Fatal     bool
	Evaluator check.Evaluator
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger routes runner diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCollectFailures keeps running after plain failures and reports every
// failing check. A failing fatal check replaces whatever was collected and
// ends the run.
func WithCollectFailures(enabled bool) Option {
	return func(r *Runner) {
		r.collect = enabled
	}
}

// slot is the run state reused across every run of the field. ticket is its
// generation: bumping it orphans every completion handed out earlier.
// failures only fills in collect mode.
type slot struct {
	ticket   uint64
	pending  bool
	value    any
	attrs    record.Attributes
	pointer  int
	failures Result
	result   Result
}

// Runner owns one field's run state.
type Runner struct {
	field   string
	steps   []Step
	collect bool
	logger  *slog.Logger
	hub     *event.Hub[EventKind, Event]
	slot    slot
}

// New constructs a runner for field that executes steps in order.
func New(field string, steps []Step, opts ...Option) *Runner {
	r := &Runner{
		field:  field,
		steps:  append([]Step(nil), steps...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		hub:    event.NewHub[EventKind, Event](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Field returns the field name.
func (r *Runner) Field() string { return r.field }

// Steps returns the names of the steps in execution order.
func (r *Runner) Steps() []string {
	names := make([]string, len(r.steps))
	for i, step := range r.steps {
		names[i] = step.Name
	}
	return names
}

// Pending reports whether a run is in flight.
func (r *Runner) Pending() bool { return r.slot.pending }

// Ticket returns the ticket of the latest run.
func (r *Runner) Ticket() uint64 { return r.slot.ticket }

// Result returns the result of the latest finished run. It is nil while a
// run is pending.
func (r *Runner) Result() Result { return r.slot.result }

// Current names the check the pending run is waiting on.
func (r *Runner) Current() string {
	if !r.slot.pending || r.slot.pointer >= len(r.steps) {
		return ""
	}
	return r.steps[r.slot.pointer].Name
}

// Subscribe registers handler for kind.
func (r *Runner) Subscribe(kind EventKind, handler func(Event)) (unsubscribe func()) {
	return r.hub.Subscribe(kind, handler)
}

// Run starts a new run of the plan against value, superseding any run in
// flight. It returns the new run's ticket.
func (r *Runner) Run(attrs record.Attributes, value any) uint64 {
	r.slot.ticket++
	ticket := r.slot.ticket
	r.slot.pending = true
	r.slot.value = value
	r.slot.attrs = attrs
	r.slot.pointer = 0
	r.slot.failures = nil
	r.slot.result = nil

	r.hub.Emit(EventRun, Event{Kind: EventRun, Field: r.field, Ticket: ticket})
	r.advance(ticket)
	return ticket
}

// advance invokes steps until one completes asynchronously or the run ends.
// Synchronous completions return here instead of recursing.
func (r *Runner) advance(ticket uint64) {
	for r.live(ticket) {
		if r.slot.pointer >= len(r.steps) {
			r.finish(ticket, r.slot.failures)
			return
		}
		inv := &invocation{runner: r, ticket: ticket, index: r.slot.pointer}
		step := r.steps[inv.index]
		inv.calling = true
		step.Evaluator.Evaluate(r.slot.value, r.slot.attrs, inv.complete)
		inv.calling = false
		if !inv.resumed {
			return
		}
	}
}

func (r *Runner) live(ticket uint64) bool {
	return r.slot.pending && r.slot.ticket == ticket
}

// apply records one completion and reports whether the run continues.
func (r *Runner) apply(ticket uint64, step Step, failure any, meta check.Meta) bool {
	if check.Failed(failure) {
		if !r.collect || step.Fatal {
			r.finish(ticket, Result{step.Name: failure})
			return false
		}
		if r.slot.failures == nil {
			r.slot.failures = Result{}
		}
		r.slot.failures[step.Name] = failure
	}
	if meta.Abort {
		r.finish(ticket, Result{})
		return false
	}
	r.slot.pointer++
	return true
}

func (r *Runner) finish(ticket uint64, result Result) {
	if result == nil {
		result = Result{}
	}
	r.slot.pending = false
	r.slot.value = nil
	r.slot.attrs = nil
	r.slot.failures = nil
	r.slot.result = result
	r.hub.Emit(EventEnd, Event{Kind: EventEnd, Field: r.field, Ticket: ticket, Result: result})
}

// invocation is the handle one Evaluate call receives. It is only honoured
// while its ticket is current and only once.
type invocation struct {
	runner   *Runner
	ticket   uint64
	index    int
	calling  bool
	consumed bool
	resumed  bool
}

func (inv *invocation) complete(failure any, meta ...check.Meta) {
	r := inv.runner
	if inv.consumed {
		r.logger.Warn("duplicate completion ignored",
			slog.String("field", r.field), slog.Uint64("ticket", inv.ticket), slog.Int("step", inv.index))
		return
	}
	inv.consumed = true
	if !r.live(inv.ticket) || r.slot.pointer != inv.index {
		r.logger.Debug("stale completion discarded",
			slog.String("field", r.field), slog.Uint64("ticket", inv.ticket), slog.Uint64("current", r.slot.ticket))
		return
	}
	if !r.apply(inv.ticket, r.steps[inv.index], failure, check.MergeMeta(meta)) {
		return
	}
	if inv.calling {
		inv.resumed = true
		return
	}
	r.advance(inv.ticket)
}
