// Package scheduler runs background jobs at a fixed local time of day.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// At is a wall clock time of day
type At struct {
	Hour, Minute int
}

// Next is the first occurrence of a strictly after t, in t's location
func (a At) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), a.Hour, a.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month(), t.Day()+1, a.Hour, a.Minute, 0, 0, t.Location())
	}
	return next
}

// Daily sleeps until the next occurrence of its time, runs the job, and repeats. A failed
// run is logged and not retried before the next day; the job itself must tolerate being
// skipped for a day.
type Daily struct {
	name string
	at   At
	job  Job
	log  *zap.Logger

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) bool

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

func NewDaily(name string, at At, job Job, log *zap.Logger) *Daily {
	return &Daily{
		name: name,
		at:   at,
		job:  job,
		log:  log.With(zap.String("job", name)),
		now:  time.Now,
		wait: sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Start is a no-op if the schedule is already running
func (d *Daily) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}

	ctx, d.stop = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go d.loop(ctx, d.done)

	d.log.Info("Daily schedule started", zap.Time("next_run", d.at.Next(d.now())))
	return nil
}

// Stop cancels the schedule, including a run in progress, and waits for it up to ctx
func (d *Daily) Stop(ctx context.Context) error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()
	if stop == nil {
		return nil
	}

	stop()
	select {
	case <-done:
		d.log.Info("Daily schedule stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Daily) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		if !d.wait(ctx, d.at.Next(d.now()).Sub(d.now())) {
			return
		}
		d.runOnce(ctx)
	}
}

func (d *Daily) runOnce(ctx context.Context) {
	start := time.Now()
	if err := d.job.Run(ctx); err != nil {
		d.log.Error("Scheduled job failed", zap.Error(err), zap.Time("next_run", d.at.Next(d.now())))
		return
	}
	d.log.Info("Scheduled job finished", zap.Duration("took", time.Since(start)))
}
