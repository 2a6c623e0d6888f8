package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// taskMsg carries a deferred check evaluation back into Update.
type taskMsg struct {
	run   func()
	timer *timer
}

type timer struct {
	fired     bool
	cancelled bool
}

func (t *timer) cancel() bool {
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// Scheduler turns posted tasks into bubbletea commands so deferred
// evaluations complete on the program's own goroutine. It is driven from
// Update and is not safe for concurrent use.
type Scheduler struct {
	queued []tea.Cmd
}

// Post queues task to run on the next message cycle.
func (s *Scheduler) Post(task func()) {
	s.queued = append(s.queued, func() tea.Msg { return taskMsg{run: task} })
}

// After queues task to run once d has elapsed.
func (s *Scheduler) After(d time.Duration, task func()) (cancel func() bool) {
	t := &timer{}
	s.queued = append(s.queued, tea.Tick(d, func(time.Time) tea.Msg {
		return taskMsg{run: task, timer: t}
	}))
	return t.cancel
}

// Drain returns the queued tasks as one command and empties the queue.
func (s *Scheduler) Drain() tea.Cmd {
	cmds := s.queued
	s.queued = nil
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (m taskMsg) execute() {
	if m.timer != nil {
		if m.timer.cancelled {
			return
		}
		m.timer.fired = true
	}
	m.run()
}
