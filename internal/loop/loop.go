// Package loop runs callbacks one at a time on a single goroutine. Work
// posted from any goroutine, including timer callbacks, is queued and
// executed in order by Run, which gives check completions the cooperative
// single-threaded scheduling the runners expect.
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/kingrea/fieldcheck/internal/check"
	"github.com/kingrea/fieldcheck/internal/record"
)

// Scheduler accepts work to run later on the loop goroutine.
type Scheduler interface {
	Post(task func())
	After(d time.Duration, task func()) (cancel func() bool)
}

// Loop is a FIFO task queue drained by a single goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	timers int
	wake   chan struct{}
}

// New returns an empty loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues task. It is safe to call from any goroutine.
func (l *Loop) Post(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()
	l.signal()
}

// After queues task once d has elapsed. The returned cancel function stops
// the timer and reports whether it did so before the task was queued.
func (l *Loop) After(d time.Duration, task func()) (cancel func() bool) {
	if task == nil {
		return func() bool { return false }
	}
	l.mu.Lock()
	l.timers++
	l.mu.Unlock()

	timer := time.AfterFunc(d, func() {
		l.mu.Lock()
		l.timers--
		l.queue = append(l.queue, task)
		l.mu.Unlock()
		l.signal()
	})
	return func() bool {
		if !timer.Stop() {
			return false
		}
		l.mu.Lock()
		l.timers--
		l.mu.Unlock()
		l.signal()
		return true
	}
}

// Len reports how many tasks are queued, not counting pending timers.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Idle reports whether nothing is queued and no timer is outstanding.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) == 0 && l.timers == 0
}

// Run executes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	return l.run(ctx, false)
}

// RunUntilIdle executes tasks until the queue is empty and no timer is
// outstanding, or until ctx is done. A check that never completes does not
// keep the loop busy; its runner simply stays pending.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	return l.run(ctx, true)
}

func (l *Loop) run(ctx context.Context, untilIdle bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		task, idle := l.next()
		if task != nil {
			task()
			continue
		}
		if untilIdle && idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, l.timers == 0
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, false
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Defer wraps ev so every evaluation is started on s after delay. The
// wrapped evaluator's completion therefore always arrives asynchronously,
// which is how the CLI simulates slow checks.
func Defer(s Scheduler, delay time.Duration, ev check.Evaluator) check.Evaluator {
	return check.EvaluatorFunc(func(value any, attrs record.Attributes, done check.Completion) {
		start := func() { ev.Evaluate(value, attrs, done) }
		if delay <= 0 {
			s.Post(start)
			return
		}
		s.After(delay, start)
	})
}
