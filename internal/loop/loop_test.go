package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/record"
)

func TestRunUntilIdleRunsInOrder(t *testing.T) {
	l := New()
	var got []int
	l.Post(func() {
		got = append(got, 1)
		l.Post(func() { got = append(got, 3) })
	})
	l.Post(func() { got = append(got, 2) })
	require.NoError(t, l.RunUntilIdle(context.Background()))
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, l.Idle())
}

func TestRunUntilIdleWaitsForTimers(t *testing.T) {
	l := New()
	var got []string
	l.After(20*time.Millisecond, func() { got = append(got, "late") })
	l.After(time.Millisecond, func() { got = append(got, "early") })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.RunUntilIdle(ctx))
	assert.Equal(t, []string{"early", "late"}, got)
}

func TestCancelledTimerDoesNotRun(t *testing.T) {
	l := New()
	ran := false
	cancel := l.After(time.Hour, func() { ran = true })
	assert.False(t, l.Idle())
	assert.True(t, cancel())
	assert.False(t, cancel())
	require.NoError(t, l.RunUntilIdle(context.Background()))
	assert.False(t, ran)
}

func TestPostFromOtherGoroutines(t *testing.T) {
	l := New()
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() { count++ })
		}()
	}
	wg.Wait()
	require.NoError(t, l.RunUntilIdle(context.Background()))
	assert.Equal(t, 50, count)
}

func TestRunStopsWithContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	l.Post(cancel)
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}

func TestDeferCompletesOnLoop(t *testing.T) {
	l := New()
	inner := check.EvaluatorFunc(func(value any, _ record.Attributes, done check.Completion) {
		done(value != "ok")
	})
	var failures []any
	done := func(failure any, _ ...check.Meta) { failures = append(failures, failure) }

	Defer(l, 0, inner).Evaluate("ok", nil, done)
	Defer(l, time.Millisecond, inner).Evaluate("bad", nil, done)
	assert.Empty(t, failures)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.RunUntilIdle(ctx))
	assert.Equal(t, []any{false, true}, failures)
}
