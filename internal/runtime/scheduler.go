// Package runtime provides the concrete Module Runtime Facilities named
// in SPEC_FULL §4.H: the three-way scheduler, the notification sender,
// the detached command runner, and the small UI-helper surface. Every
// type here implements one of the interfaces core.Host exposes to a
// module's factory.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/waypanel/waypanel/internal/core"
	"github.com/waypanel/waypanel/internal/events"
)

// asyncJob is one unit of work queued onto the shared single-threaded
// cooperative executor.
type asyncJob struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// Scheduler implements core.SchedulerAccessor: worker threads for
// blocking I/O, a shared single-consumer async executor for cooperative
// tasks, posting onto the Event Bus's UI-thread goroutine, and
// cron-backed recurring timers, per §4.H and §5.
//
// run_in_thread is grounded on the teacher's internal/router.WorkerPool
// shape (one goroutine per unit of work, tracked via a done channel);
// schedule_in_ui_thread is realized as events.Bus.Post, sharing that
// goroutine's single-consumer ordering guarantee; ScheduleTimer reuses
// the teacher's internal/cron dependency (robfig/cron/v3), whose
// "@every <duration>" descriptor form is a natural fit for a fixed
// recurring interval.
type Scheduler struct {
	bus    *events.Bus
	logger *slog.Logger
	cron   *cron.Cron

	asyncQueue chan asyncJob
	asyncDone  chan struct{}
}

// NewScheduler creates a Scheduler bound to bus. The shared async
// executor and the cron-based timer engine both start immediately;
// Close stops them.
func NewScheduler(bus *events.Bus, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		bus:        bus,
		logger:     logger.With("component", "scheduler"),
		cron:       cron.New(),
		asyncQueue: make(chan asyncJob, 64),
		asyncDone:  make(chan struct{}),
	}
	s.cron.Start()
	go s.runAsyncExecutor()
	return s
}

// runAsyncExecutor is the shared single-threaded cooperative executor
// named in §5: jobs run strictly one at a time, in submission order, on
// this one goroutine. A job that never yields (never checks its ctx,
// never returns) starves every task queued after it — exactly the
// single-threaded-executor tradeoff the spec describes.
func (s *Scheduler) runAsyncExecutor() {
	defer close(s.asyncDone)
	for job := range s.asyncQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("async task panicked", "error", r)
				}
			}()
			job.fn(job.ctx)
		}()
	}
}

// RunInThread spawns a worker goroutine tracked against owner. fn
// receives a stop channel closed when the module disables; fn MUST NOT
// touch UI state directly, only via ScheduleInUIThread, per §5.
func (s *Scheduler) RunInThread(owner *core.ModuleInstance, fn func(stop <-chan struct{})) {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("worker thread panicked", "module", owner.ID, "error", r)
			}
		}()
		fn(stop)
	}()
	owner.TrackThread(core.ThreadHandle{
		Cancel: func() { close(stop) },
		Done:   done,
	})
}

// RunInAsyncTask enqueues fn on the shared cooperative executor,
// tracked against owner so disable can request cancellation at fn's
// next suspension point.
func (s *Scheduler) RunInAsyncTask(owner *core.ModuleInstance, fn func(ctx context.Context)) core.TaskHandle {
	ctx, cancel := context.WithCancel(context.Background())
	handle := core.TaskHandle{Cancel: cancel}
	owner.TrackTask(handle)

	select {
	case s.asyncQueue <- asyncJob{ctx: ctx, fn: fn}:
	default:
		// Executor backlog is full; run fn on its own goroutine rather
		// than block the caller indefinitely, logging so the backlog is
		// visible.
		s.logger.Warn("async executor queue full, running on a separate goroutine", "module", owner.ID)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("async task panicked", "error", r)
				}
			}()
			fn(ctx)
		}()
	}
	return handle
}

// ScheduleInUIThread posts fn onto the Event Bus's dispatch queue, so it
// runs on the same goroutine as every handler and config-reload
// callback, per §5's "one UI thread" invariant.
func (s *Scheduler) ScheduleInUIThread(fn func()) {
	s.bus.Post(fn)
}

// ScheduleTimer registers a recurring timer that posts fn onto the UI
// thread every interval, tracked against owner so disable removes it
// synchronously, per §5 ("Timers are removed synchronously on
// disable"). The interval goes through cron's @every schedule, which
// has one-second resolution: intervals under a second fire once a
// second, and sub-second remainders are truncated.
func (s *Scheduler) ScheduleTimer(owner *core.ModuleInstance, interval time.Duration, fn func()) core.TimerHandle {
	spec := fmt.Sprintf("@every %s", interval)
	entryID, err := s.cron.AddFunc(spec, func() { s.bus.Post(fn) })
	if err != nil {
		s.logger.Error("invalid timer interval", "module", owner.ID, "interval", interval, "error", err)
		return core.TimerHandle{Stop: func() {}}
	}
	handle := core.TimerHandle{Stop: func() { s.cron.Remove(entryID) }}
	owner.TrackTimer(handle)
	return handle
}

// Close stops the cron engine and the async executor. Call once, at
// host shutdown.
func (s *Scheduler) Close() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	close(s.asyncQueue)
	<-s.asyncDone
}
