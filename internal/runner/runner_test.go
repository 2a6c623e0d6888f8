package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/record"
)

// deferred is an evaluator whose completions are held until the test
// releases them.
type deferred struct {
	calls   int
	waiting []check.Completion
}

func (d *deferred) Evaluate(_ any, _ record.Attributes, done check.Completion) {
	d.calls++
	d.waiting = append(d.waiting, done)
}

func (d *deferred) release(i int, failure any, meta ...check.Meta) {
	d.waiting[i](failure, meta...)
}

type counting struct {
	calls   int
	failure any
	meta    []check.Meta
}

func (c *counting) Evaluate(_ any, _ record.Attributes, done check.Completion) {
	c.calls++
	done(c.failure, c.meta...)
}

type recorder struct {
	runs []Event
	ends []Event
}

func watch(r *Runner) *recorder {
	rec := &recorder{}
	r.Subscribe(EventRun, func(e Event) { rec.runs = append(rec.runs, e) })
	r.Subscribe(EventEnd, func(e Event) { rec.ends = append(rec.ends, e) })
	return rec
}

func TestRunSynchronousPass(t *testing.T) {
	a, b := &counting{}, &counting{failure: false}
	r := New("name", []Step{{Name: "a", Evaluator: a}, {Name: "b", Evaluator: b}})
	rec := watch(r)

	ticket := r.Run(record.Attributes{"name": "x"}, "x")
	assert.Equal(t, uint64(1), ticket)
	assert.False(t, r.Pending())
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	require.Len(t, rec.runs, 1)
	require.Len(t, rec.ends, 1)
	assert.True(t, rec.ends[0].Result.Valid())
	assert.Equal(t, false, rec.ends[0].Result.Value())
	assert.Equal(t, "name", rec.ends[0].Field)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	required := &counting{}
	typ := &counting{failure: true}
	lower := &counting{}
	r := New("age", []Step{
		{Name: "required", Evaluator: required},
		{Name: "type", Evaluator: typ},
		{Name: "min", Evaluator: lower},
	})
	rec := watch(r)

	r.Run(nil, 5)
	require.Len(t, rec.ends, 1)
	assert.Equal(t, Result{"type": true}, rec.ends[0].Result)
	assert.Equal(t, Result{"type": true}, r.Result())
	assert.Equal(t, 0, lower.calls)
	assert.Equal(t, map[string]any{"type": true}, r.Result().Value())
}

func TestEmptyPlanIsValid(t *testing.T) {
	r := New("free", nil)
	rec := watch(r)
	r.Run(nil, nil)
	require.Len(t, rec.ends, 1)
	assert.True(t, rec.ends[0].Result.Valid())
}

func TestAsyncRunWaitsForCompletion(t *testing.T) {
	first := &deferred{}
	second := &counting{}
	r := New("email", []Step{{Name: "first", Evaluator: first}, {Name: "second", Evaluator: second}})
	rec := watch(r)

	r.Run(nil, "a@b.c")
	assert.True(t, r.Pending())
	assert.Equal(t, "first", r.Current())
	assert.Equal(t, 0, second.calls)
	assert.Empty(t, rec.ends)

	first.release(0, nil)
	assert.False(t, r.Pending())
	assert.Equal(t, 1, second.calls)
	require.Len(t, rec.ends, 1)
	assert.True(t, rec.ends[0].Result.Valid())
}

func TestSupersededRunIsDiscarded(t *testing.T) {
	slow := &deferred{}
	r := New("name", []Step{{Name: "slow", Evaluator: slow}})
	rec := watch(r)

	r.Run(nil, "one")
	r.Run(nil, "two")
	assert.Equal(t, uint64(2), r.Ticket())
	require.Len(t, slow.waiting, 2)

	// run 1 fails late: no effect
	slow.release(0, "stale")
	assert.True(t, r.Pending())
	assert.Empty(t, rec.ends)

	slow.release(1, nil)
	require.Len(t, rec.ends, 1)
	assert.Equal(t, uint64(2), rec.ends[0].Ticket)
	assert.True(t, rec.ends[0].Result.Valid())
	assert.Len(t, rec.runs, 2)
}

func TestDuplicateCompletionIgnored(t *testing.T) {
	slow := &deferred{}
	next := &deferred{}
	r := New("name", []Step{{Name: "slow", Evaluator: slow}, {Name: "next", Evaluator: next}})
	rec := watch(r)

	r.Run(nil, "x")
	slow.release(0, nil)
	assert.Equal(t, 1, next.calls)
	slow.release(0, "late failure")
	assert.Equal(t, "next", r.Current())
	assert.Empty(t, rec.ends)
}

func TestAbortEndsRunAsValid(t *testing.T) {
	required := &counting{meta: []check.Meta{{Abort: true}}}
	typ := &counting{failure: true}
	r := New("nickname", []Step{{Name: "required", Evaluator: required}, {Name: "type", Evaluator: typ}})
	rec := watch(r)

	r.Run(nil, nil)
	assert.Equal(t, 0, typ.calls)
	require.Len(t, rec.ends, 1)
	assert.True(t, rec.ends[0].Result.Valid())
}

func TestFailureWinsOverAbort(t *testing.T) {
	c := &counting{failure: "bad", meta: []check.Meta{{Abort: true}}}
	r := New("x", []Step{{Name: "c", Evaluator: c}})
	r.Run(nil, 1)
	assert.Equal(t, Result{"c": "bad"}, r.Result())
}

func TestCollectFailures(t *testing.T) {
	steps := func(fatal bool) []Step {
		return []Step{
			{Name: "a", Evaluator: &counting{failure: "a"}},
			{Name: "b", Evaluator: &counting{}},
			{Name: "c", Fatal: fatal, Evaluator: &counting{failure: "c"}},
			{Name: "d", Evaluator: &counting{failure: "d"}},
		}
	}

	plain := New("f", steps(false), WithCollectFailures(true))
	plain.Run(nil, 1)
	assert.Equal(t, Result{"a": "a", "c": "c", "d": "d"}, plain.Result())

	fatal := New("f", steps(true), WithCollectFailures(true))
	fatal.Run(nil, 1)
	assert.Equal(t, Result{"c": "c"}, fatal.Result())

	abort := New("f", []Step{
		{Name: "a", Evaluator: &counting{failure: "a"}},
		{Name: "b", Evaluator: &counting{meta: []check.Meta{{Abort: true}}}},
		{Name: "c", Evaluator: &counting{failure: "c"}},
	}, WithCollectFailures(true))
	abort.Run(nil, 1)
	assert.True(t, abort.Result().Valid())
}

func TestRestartFromEndHandler(t *testing.T) {
	c := &counting{}
	r := New("x", []Step{{Name: "c", Evaluator: c}})
	var ends int
	r.Subscribe(EventEnd, func(e Event) {
		ends++
		if e.Ticket == 1 {
			r.Run(nil, "again")
		}
	})
	r.Run(nil, "first")
	assert.Equal(t, 2, ends)
	assert.Equal(t, 2, c.calls)
	assert.Equal(t, uint64(2), r.Ticket())
}

func TestUnsubscribe(t *testing.T) {
	r := New("x", nil)
	var ends int
	stop := r.Subscribe(EventEnd, func(Event) { ends++ })
	r.Run(nil, nil)
	stop()
	r.Run(nil, nil)
	assert.Equal(t, 1, ends)
}

func TestResultOf(t *testing.T) {
	assert.True(t, ResultOf(false).Valid())
	assert.True(t, ResultOf(nil).Valid())
	assert.Equal(t, Result{"min": true}, ResultOf(map[string]any{"min": true}))
	assert.Equal(t, "failed: max, min", Result{"min": 1, "max": 2}.String())
}
