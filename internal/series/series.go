package series

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kingrea/fieldcheck/internal/event"
)

// EventKind names a series notification.
type EventKind string

const (
	// EventStart fires when a run begins.
	EventStart EventKind = "start"
	// EventDone fires for every task completion of a live run, before any
	// error it carries is reported.
	EventDone EventKind = "done"
	// EventError fires when a task completes with an error. The run stops
	// without an end event.
	EventError EventKind = "error"
	// EventEnd fires once a run has completed every task. Aborted runs end
	// silently.
	EventEnd EventKind = "end"
)

// Event is the payload delivered to series subscribers. Key, Result and Err
// are only set for done and error.
type Event struct {
	Kind    EventKind
	Run     uint64
	Key     string
	Result  any
	Err     error
	Context any
}

// Done reports a task's outcome. It must be called once.
type Done func(result any, err error)

// Task is one named step of a series.
type Task func(call *Call, done Done)

// Entry binds a task to its key.
type Entry struct {
	Key  string
	Task Task
}

// Call is what a task receives for one invocation.
type Call struct {
	Key     string
	Value   any
	Config  any
	Context any

	exec *execution
}

// Abort ends the call's run after this task completes. The run emits
// neither error nor end.
func (c *Call) Abort() {
	c.exec.aborted = true
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes its entries in order for every Run. It is not safe for
// concurrent use; deliver late completions on the driving goroutine.
type Runner struct {
	entries []Entry
	config  map[string]any
	hub     *event.Hub[EventKind, Event]
	logger  *slog.Logger
	runs    uint64
	epoch   uint64
	active  int
}

// New builds a runner over entries. config holds per-key task
// configuration.
func New(entries []Entry, config map[string]any, opts ...Option) (*Runner, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("series: task key is required")
		}
		if e.Task == nil {
			return nil, fmt.Errorf("series: task %s has no function", e.Key)
		}
		if _, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("series: task %s listed twice", e.Key)
		}
		seen[e.Key] = struct{}{}
	}
	r := &Runner{
		entries: append([]Entry(nil), entries...),
		config:  config,
		hub:     event.NewHub[EventKind, Event](),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Subscribe registers handler for kind.
func (r *Runner) Subscribe(kind EventKind, handler func(Event)) (unsubscribe func()) {
	return r.hub.Subscribe(kind, handler)
}

// Active counts runs that have neither finished nor been aborted.
func (r *Runner) Active() int { return r.active }

// AbortAll aborts every run in flight. Tasks already started still report
// done; nothing runs after them.
func (r *Runner) AbortAll() {
	r.epoch++
}

// Run starts a new run of every entry against value and returns its id.
func (r *Runner) Run(value, context any) uint64 {
	r.runs++
	r.active++
	exec := &execution{runner: r, id: r.runs, epoch: r.epoch, value: value, context: context}
	r.hub.Emit(EventStart, Event{Kind: EventStart, Run: exec.id, Context: context})
	exec.advance()
	return exec.id
}

type execution struct {
	runner   *Runner
	id       uint64
	epoch    uint64
	value    any
	context  any
	index    int
	aborted  bool
	finished bool
}

func (x *execution) advance() {
	r := x.runner
	for !x.finished {
		if x.index >= len(r.entries) {
			x.finish()
			r.hub.Emit(EventEnd, Event{Kind: EventEnd, Run: x.id, Context: x.context})
			return
		}
		entry := r.entries[x.index]
		call := &Call{Key: entry.Key, Value: x.value, Config: r.config[entry.Key], Context: x.context, exec: x}
		h := &handle{exec: x, key: entry.Key, calling: true}
		entry.Task(call, h.done)
		h.calling = false
		if !h.resumed {
			return
		}
	}
}

func (x *execution) finish() {
	x.finished = true
	x.runner.active--
}

type handle struct {
	exec     *execution
	key      string
	calling  bool
	consumed bool
	resumed  bool
}

func (h *handle) done(result any, err error) {
	x, r := h.exec, h.exec.runner
	if h.consumed {
		r.logger.Warn("series task completed twice", slog.Uint64("run", x.id), slog.String("task", h.key))
		return
	}
	h.consumed = true
	if x.finished {
		return
	}
	r.hub.Emit(EventDone, Event{Kind: EventDone, Run: x.id, Key: h.key, Result: result, Context: x.context})
	if err != nil {
		x.finish()
		r.hub.Emit(EventError, Event{Kind: EventError, Run: x.id, Key: h.key, Err: err, Context: x.context})
		return
	}
	if x.aborted || x.epoch != r.epoch {
		r.logger.Debug("series aborted", slog.Uint64("run", x.id), slog.String("task", h.key))
		x.finish()
		return
	}
	x.index++
	if h.calling {
		h.resumed = true
		return
	}
	x.advance()
}
