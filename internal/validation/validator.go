package validation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"

	"github.com/google/uuid"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/check/builtin"
	"github.com/kingrea/fieldcheck/internal/event"
	"github.com/kingrea/fieldcheck/internal/plan"
	"github.com/kingrea/fieldcheck/internal/record"
	"github.com/kingrea/fieldcheck/internal/runner"
)

// Source is the record whose current attribute values proposed snapshots
// are compared against.
type Source interface {
	Get(name string) any
}

// EvaluatorWrapper decorates the configured evaluator of one check on one
// field, for example to deliver its completion later.
type EvaluatorWrapper func(field, check string, ev check.Evaluator) check.Evaluator

// EventKind names a validator notification.
type EventKind string

const (
	// EventFieldRun fires when a field's run starts.
	EventFieldRun EventKind = "field:run"
	// EventFieldEnd fires when a field's run ends.
	EventFieldEnd EventKind = "field:end"
	// EventSettled fires whenever the pending count returns to zero.
	EventSettled EventKind = "settled"
)

// Event is the payload delivered to validator subscribers.
type Event struct {
	Kind    EventKind
	Field   string
	Ticket  uint64
	Result  runner.Result
	Pending int
	Errors  int
}

// Option configures a Validator.
type Option func(*Validator)

// WithCatalogue replaces the stock check catalogue.
func WithCatalogue(cat *check.Catalogue) Option {
	return func(v *Validator) {
		if cat != nil {
			v.catalogue = cat
		}
	}
}

// WithRelations adds explicit relation edges.
func WithRelations(rel Relations) Option {
	return func(v *Validator) {
		v.relations.Merge(rel)
	}
}

// WithLogger routes validator and runner diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithCollectFailures makes every runner report all failing checks instead
// of only the first. Fatal checks still end a run on failure.
func WithCollectFailures(enabled bool) Option {
	return func(v *Validator) {
		v.collect = enabled
	}
}

// WithEvaluatorWrapper decorates every configured evaluator.
func WithEvaluatorWrapper(wrap EvaluatorWrapper) Option {
	return func(v *Validator) {
		v.wrap = wrap
	}
}

// WithResultStore publishes field outcomes on results instead of a private
// record.
func WithResultStore(results *record.Record) Option {
	return func(v *Validator) {
		if results != nil {
			v.results = results
		}
	}
}

// Validator keeps the validation state of one record.
type Validator struct {
	id        uuid.UUID
	source    Source
	catalogue *check.Catalogue
	relations Relations
	logger    *slog.Logger
	collect   bool
	wrap      EvaluatorWrapper
	results   *record.Record
	hub       *event.Hub[EventKind, Event]

	fields  []string
	runners map[string]*runner.Runner
	plans   map[string]*plan.Plan
	steps   map[string][]runner.Step
	watched []string
	failed  map[string]bool
	pending int
	errors  int
}

// New configures a validator for fields read from source. Every
// configuration problem is reported; no validator is returned unless all
// fields build.
func New(source Source, fields []FieldSpec, opts ...Option) (*Validator, error) {
	if source == nil {
		return nil, fmt.Errorf("validation: source record is required")
	}
	v := &Validator{
		id:        uuid.New(),
		source:    source,
		relations: Relations{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		hub:       event.NewHub[EventKind, Event](),
		runners:   make(map[string]*runner.Runner, len(fields)),
		plans:     make(map[string]*plan.Plan, len(fields)),
		steps:     make(map[string][]runner.Step, len(fields)),
		failed:    make(map[string]bool, len(fields)),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.catalogue == nil {
		v.catalogue = builtin.Catalogue()
	}
	if v.results == nil {
		v.results = record.New(nil)
	}
	v.logger = v.logger.With(slog.String("validator", v.id.String()))

	resolver, err := plan.NewResolver(v.catalogue)
	if err != nil {
		return nil, err
	}
	built, err := compile(fields, v.catalogue, resolver, v.relations, v.wrap)
	if err != nil {
		return nil, err
	}
	for _, c := range built {
		name := c.spec.Name
		r := runner.New(name, c.steps,
			runner.WithLogger(v.logger),
			runner.WithCollectFailures(v.collect),
		)
		r.Subscribe(runner.EventRun, v.onRun)
		r.Subscribe(runner.EventEnd, v.onEnd)
		v.fields = append(v.fields, name)
		v.runners[name] = r
		v.plans[name] = c.plan
		v.steps[name] = c.steps
	}
	if err := v.checkRelations(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Validator) checkRelations() error {
	var errs []error
	for _, source := range v.relations.Sources() {
		if _, ok := v.runners[source]; !ok {
			v.watched = append(v.watched, source)
		}
		for _, target := range v.relations[source] {
			if _, ok := v.runners[target]; !ok {
				errs = append(errs, fmt.Errorf("validation: relation %s -> %s targets an unconfigured field", source, target))
			}
		}
	}
	return errors.Join(errs...)
}

// ID identifies the validator in logs.
func (v *Validator) ID() uuid.UUID { return v.id }

// Fields returns the configured field names in configuration order.
func (v *Validator) Fields() []string { return append([]string(nil), v.fields...) }

// Plan returns the execution plan of field.
func (v *Validator) Plan(field string) (*plan.Plan, bool) {
	p, ok := v.plans[field]
	return p, ok
}

// Steps returns the built steps of field's plan, in order. They share
// evaluators with the field's runner.
func (v *Validator) Steps(field string) ([]runner.Step, bool) {
	steps, ok := v.steps[field]
	if !ok {
		return nil, false
	}
	return append([]runner.Step(nil), steps...), true
}

// Relations returns a copy of the relation graph, including edges declared
// by checks.
func (v *Validator) Relations() Relations { return v.relations.clone() }

// Catalogue returns the catalogue the fields were built from.
func (v *Validator) Catalogue() *check.Catalogue { return v.catalogue }

// Results is the record on which field outcomes are published.
func (v *Validator) Results() *record.Record { return v.results }

// Pending counts fields with a run in flight.
func (v *Validator) Pending() int { return v.pending }

// Errors counts fields whose latest finished run failed.
func (v *Validator) Errors() int { return v.errors }

// Result returns the latest outcome of field. ok is false for unknown
// fields and for fields that have not finished a run.
func (v *Validator) Result(field string) (runner.Result, bool) {
	r, ok := v.runners[field]
	if !ok || r.Pending() || r.Ticket() == 0 {
		return nil, false
	}
	return r.Result(), true
}

// Runner exposes the runner of field.
func (v *Validator) Runner(field string) (*runner.Runner, bool) {
	r, ok := v.runners[field]
	return r, ok
}

// Subscribe registers handler for kind.
func (v *Validator) Subscribe(kind EventKind, handler func(Event)) (unsubscribe func()) {
	return v.hub.Subscribe(kind, handler)
}

// Validate re-validates every field affected by the difference between
// snapshot and the source record: fields whose value changed, plus every
// field reachable from a changed attribute through the relation graph. It
// returns the fields it started, in scheduling order.
func (v *Validator) Validate(snapshot record.Attributes) []string {
	snapshot = snapshot.Clone()
	var changed []string
	for _, name := range v.fields {
		if v.differs(name, snapshot) {
			changed = append(changed, name)
		}
	}
	for _, name := range v.watched {
		if v.differs(name, snapshot) {
			changed = append(changed, name)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	var started []string
	for _, name := range v.relations.Closure(changed) {
		if _, ok := v.runners[name]; ok {
			started = append(started, name)
		}
	}
	v.logger.Debug("validating", slog.Any("changed", changed), slog.Any("fields", started))
	v.start(snapshot, started)
	return started
}

// Force runs every configured field once, changed or not.
func (v *Validator) Force(snapshot record.Attributes) []string {
	snapshot = snapshot.Clone()
	started := v.Fields()
	v.logger.Debug("forcing", slog.Any("fields", started))
	v.start(snapshot, started)
	return started
}

func (v *Validator) differs(name string, snapshot record.Attributes) bool {
	return !reflect.DeepEqual(v.source.Get(name), snapshot[name])
}

// start counts the whole batch as pending before running any of it, so a
// field that completes synchronously cannot settle the validator while the
// rest of the batch is still waiting to start.
func (v *Validator) start(snapshot record.Attributes, fields []string) {
	for _, name := range fields {
		if !v.runners[name].Pending() {
			v.pending++
		}
	}
	for _, name := range fields {
		v.runners[name].Run(snapshot, snapshot[name])
	}
}

func (v *Validator) onRun(e runner.Event) {
	v.results.Set(e.Field, nil)
	v.hub.Emit(EventFieldRun, Event{
		Kind:    EventFieldRun,
		Field:   e.Field,
		Ticket:  e.Ticket,
		Pending: v.pending,
		Errors:  v.errors,
	})
}

func (v *Validator) onEnd(e runner.Event) {
	v.pending--
	failed := !e.Result.Valid()
	if failed != v.failed[e.Field] {
		if failed {
			v.errors++
		} else {
			v.errors--
		}
		v.failed[e.Field] = failed
	}
	v.results.Set(e.Field, e.Result.Value())
	v.logger.Debug("field validated",
		slog.String("field", e.Field),
		slog.Uint64("ticket", e.Ticket),
		slog.String("result", e.Result.String()),
	)
	v.hub.Emit(EventFieldEnd, Event{
		Kind:    EventFieldEnd,
		Field:   e.Field,
		Ticket:  e.Ticket,
		Result:  e.Result,
		Pending: v.pending,
		Errors:  v.errors,
	})
	if v.pending == 0 {
		v.hub.Emit(EventSettled, Event{Kind: EventSettled, Errors: v.errors})
	}
}

// Outcome is a point-in-time summary of every field.
type Outcome struct {
	Fields  []FieldOutcome
	Pending int
	Errors  int
}

// FieldOutcome is one field's state within an Outcome.
type FieldOutcome struct {
	Name    string
	Plan    []string
	Pending bool
	// Checked is false until the field has finished a run.
	Checked bool
	Result  runner.Result
}

// Valid reports whether every field has been checked and passed.
func (o Outcome) Valid() bool {
	if o.Pending > 0 || o.Errors > 0 {
		return false
	}
	for _, f := range o.Fields {
		if !f.Checked || !f.Result.Valid() {
			return false
		}
	}
	return true
}

// Failed returns the names of failing fields in sorted order.
func (o Outcome) Failed() []string {
	var out []string
	for _, f := range o.Fields {
		if f.Checked && !f.Result.Valid() {
			out = append(out, f.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Outcome summarizes the current state.
func (v *Validator) Outcome() Outcome {
	out := Outcome{Pending: v.pending, Errors: v.errors}
	for _, name := range v.fields {
		r := v.runners[name]
		result, checked := v.Result(name)
		out.Fields = append(out.Fields, FieldOutcome{
			Name:    name,
			Plan:    r.Steps(),
			Pending: r.Pending(),
			Checked: checked,
			Result:  result,
		})
	}
	return out
}
