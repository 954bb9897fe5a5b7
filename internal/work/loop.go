// Package work provides the job loop that serializes every mutation of
// connection, session and game state onto one goroutine.
package work

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"pointbid/internal/logger"
)

// ErrLoopStopped is returned when posting to a loop that has stopped.
var ErrLoopStopped = errors.New("work: loop stopped")

// Loop runs posted jobs one at a time, in the order they were posted.
type Loop struct {
	jobs     chan func()
	done     chan struct{}
	stopOnce sync.Once
	log      logger.Logger
}

// NewLoop creates a Loop whose queue holds up to size pending jobs.
func NewLoop(size int, log logger.Logger) *Loop {
	if size <= 0 {
		size = 1
	}
	return &Loop{
		jobs: make(chan func(), size),
		done: make(chan struct{}),
		log:  log,
	}
}

// Run executes jobs until ctx is done or Stop is called. It blocks.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("loop start", logger.F("queue", cap(l.jobs)))
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return nil
		case <-l.done:
			return nil
		case job := <-l.jobs:
			l.safeRun(job)
		}
	}
}

// Stop ends Run. Jobs still queued are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		l.log.Info("loop stopped", logger.F("dropped", len(l.jobs)))
	})
}

// Post enqueues job, blocking while the queue is full.
func (l *Loop) Post(job func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.jobs <- job:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

type result struct {
	value any
	err   error
}

// PostAndWait runs job on the loop and returns its result. A panic inside
// job is returned as an error.
func (l *Loop) PostAndWait(ctx context.Context, job func() (any, error)) (any, error) {
	ch := make(chan result, 1)
	err := l.Post(func() {
		defer func() {
			if e := recover(); e != nil {
				ch <- result{err: fmt.Errorf("panic: %v", e)}
			}
		}()
		v, err := job()
		ch <- result{value: v, err: err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("canceled: %w", ctx.Err())
	case <-l.done:
		return nil, ErrLoopStopped
	}
}

func (l *Loop) safeRun(job func()) {
	defer func() {
		if e := recover(); e != nil {
			l.log.Error("recovered from panic in job", logger.F("panic", fmt.Sprint(e)), logger.F("stack", string(debug.Stack())))
		}
	}()
	job()
}
