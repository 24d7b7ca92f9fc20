package core

import "sync"

// ThreadHandle is returned by scheduler.run_in_thread; Cancel signals the
// worker to stop and Done is closed once it has exited. The Loader bounds
// how long it waits on Done (5s per thread, per §5).
type ThreadHandle struct {
	Cancel func()
	Done   <-chan struct{}
}

// TaskHandle is returned by scheduler.run_in_async_task; Cancel requests
// cooperative cancellation at the task's next suspension point.
type TaskHandle struct {
	Cancel func()
}

// TimerHandle is returned by scheduler.schedule_in_ui_thread-style
// recurring timers; Stop removes it synchronously.
type TimerHandle struct {
	Stop func()
}

// subscriptionKey identifies an Event Bus subscription owned by a module.
type subscriptionKey struct {
	topic   string
	handler uintptr
}

// ModuleInstance is the Loader's bookkeeping record for one running
// module: its lifecycle state and everything that must be torn down on
// disable.
type ModuleInstance struct {
	ID       ModuleIdentifier
	Metadata ModuleMetadata
	Module   Module

	mu     sync.Mutex
	state  State
	reason FailureReason
	cause  ModuleIdentifier

	widget     WidgetHandle
	attachMode AttachMode
	hasWidget  bool

	unsubscribeAll func()
	threads        []ThreadHandle
	tasks          []TaskHandle
	timers         []TimerHandle
}

// NewModuleInstance creates an instance in StateUnloaded.
func NewModuleInstance(id ModuleIdentifier, meta ModuleMetadata) *ModuleInstance {
	return &ModuleInstance{ID: id, Metadata: meta, state: StateUnloaded}
}

// State returns the current lifecycle state and, for StateFailed, the
// reason and (when applicable) the dependency that caused it.
func (mi *ModuleInstance) State() (State, FailureReason, ModuleIdentifier) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	return mi.state, mi.reason, mi.cause
}

func (mi *ModuleInstance) setState(s State) {
	mi.mu.Lock()
	mi.state = s
	mi.mu.Unlock()
}

func (mi *ModuleInstance) setFailed(reason FailureReason, cause ModuleIdentifier) {
	mi.mu.Lock()
	mi.state = StateFailed
	mi.reason = reason
	mi.cause = cause
	mi.mu.Unlock()
}

// SetWidget records the main widget and attach mode for a UI module.
func (mi *ModuleInstance) SetWidget(w WidgetHandle, mode AttachMode) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	mi.widget = w
	mi.attachMode = mode
	mi.hasWidget = true
}

// Widget returns the recorded main widget, if any.
func (mi *ModuleInstance) Widget() (WidgetHandle, AttachMode, bool) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	return mi.widget, mi.attachMode, mi.hasWidget
}

// TrackUnsubscribeAll stores the callback the Loader invokes on disable to
// drop every Event Bus subscription this instance owns.
func (mi *ModuleInstance) TrackUnsubscribeAll(fn func()) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	mi.unsubscribeAll = fn
}

// TrackThread records a worker-thread handle so disable can stop it.
func (mi *ModuleInstance) TrackThread(h ThreadHandle) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	mi.threads = append(mi.threads, h)
}

// TrackTask records an async-task handle so disable can cancel it.
func (mi *ModuleInstance) TrackTask(h TaskHandle) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	mi.tasks = append(mi.tasks, h)
}

// TrackTimer records a timer handle so disable can remove it synchronously.
func (mi *ModuleInstance) TrackTimer(h TimerHandle) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	mi.timers = append(mi.timers, h)
}

// Counts reports the number of tracked threads, tasks and timers; all
// three are zero after disable. Event Bus subscriptions are not counted
// here: the Bus holds them and TrackUnsubscribeAll's callback drops them.
func (mi *ModuleInstance) Counts() (threads, tasks, timers int) {
	mi.mu.Lock()
	defer mi.mu.Unlock()
	return len(mi.threads), len(mi.tasks), len(mi.timers)
}

// releaseTracked cancels/stops every tracked resource and clears the
// slices, honoring the 5s-per-thread grace period described in §5. The
// actual waiting happens in the handles' Done channel; the Loader is
// responsible for bounding the wait.
func (mi *ModuleInstance) releaseTracked() (threadDones []<-chan struct{}) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.unsubscribeAll != nil {
		mi.unsubscribeAll()
	}
	for _, t := range mi.tasks {
		if t.Cancel != nil {
			t.Cancel()
		}
	}
	for _, tm := range mi.timers {
		if tm.Stop != nil {
			tm.Stop()
		}
	}
	for _, th := range mi.threads {
		if th.Cancel != nil {
			th.Cancel()
		}
		threadDones = append(threadDones, th.Done)
	}

	mi.tasks = nil
	mi.timers = nil
	mi.threads = nil
	return threadDones
}
