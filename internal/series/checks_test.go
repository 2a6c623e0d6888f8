package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/record"
	"github.com/kingrea/fieldcheck/internal/runner"
)

func silent(name string) runner.Step {
	return runner.Step{Name: name, Evaluator: check.EvaluatorFunc(func(any, record.Attributes, check.Completion) {})}
}

func evaluating(name string, fatal bool, fn func(value any, attrs record.Attributes) (any, []check.Meta)) runner.Step {
	return runner.Step{
		Name:  name,
		Fatal: fatal,
		Evaluator: check.EvaluatorFunc(func(value any, attrs record.Attributes, done check.Completion) {
			failure, meta := fn(value, attrs)
			done(failure, meta...)
		}),
	}
}

func TestCheckEntriesReportPlainFailuresAndContinue(t *testing.T) {
	steps := []runner.Step{
		evaluating("short", false, func(any, record.Attributes) (any, []check.Meta) { return true, nil }),
		evaluating("same", false, func(value any, attrs record.Attributes) (any, []check.Meta) {
			return !check.Equal(attrs["other"], value), nil
		}),
	}
	r, err := New(CheckEntries(steps), nil)
	require.NoError(t, err)

	var results []any
	ended := false
	r.Subscribe(EventDone, func(e Event) { results = append(results, e.Result) })
	r.Subscribe(EventEnd, func(Event) { ended = true })
	r.Run("x", record.Attributes{"other": "x"})

	require.Len(t, results, 2)
	assert.Equal(t, &Failure{Check: "short", Payload: true}, results[0])
	assert.Nil(t, results[1])
	assert.True(t, ended)
}

func TestCheckEntriesFatalFailureIsError(t *testing.T) {
	steps := []runner.Step{
		evaluating("required", true, func(value any, _ record.Attributes) (any, []check.Meta) { return value == nil, nil }),
		evaluating("never", false, func(any, record.Attributes) (any, []check.Meta) {
			t.Fatal("ran after a fatal failure")
			return nil, nil
		}),
	}
	r, err := New(CheckEntries(steps), nil)
	require.NoError(t, err)

	var got error
	r.Subscribe(EventError, func(e Event) { got = e.Err })
	r.Run(nil, record.Attributes{})

	var failure *Failure
	require.ErrorAs(t, got, &failure)
	assert.Equal(t, "required", failure.Check)
	assert.True(t, failure.Fatal)
	assert.EqualError(t, got, "check required failed: true")
}

func TestCheckEntriesAbort(t *testing.T) {
	steps := []runner.Step{
		evaluating("optional", false, func(any, record.Attributes) (any, []check.Meta) {
			return nil, []check.Meta{{Abort: true}}
		}),
		silent("unreached"),
	}
	r, err := New(CheckEntries(steps), nil)
	require.NoError(t, err)
	tr := follow(r)
	r.Run(nil, record.Attributes{})
	assert.Equal(t, []string{"start", "done optional"}, tr.lines)
	assert.Equal(t, 0, r.Active())
}
