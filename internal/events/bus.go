// Package events implements the topic-indexed publish/subscribe bus
// described in SPEC_FULL §4.C: a single-consumer dispatch loop that
// stands in for "the UI thread" a real GTK main loop would otherwise
// provide, grounded on the single-threaded WorkerPool shape of the
// teacher's internal/router/pool.go but collapsed to exactly one
// consumer since the bus itself defines what "the UI thread" means for
// everything downstream of it (scheduler.schedule_in_ui_thread included).
package events

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/waypanel/waypanel/internal/core"
)

// Handler receives a published payload. An alias (not a defined type)
// for core.EventPublisher's handler shape, so a module's Topics() method
// written against Handler also satisfies core.TopicSubscriber without
// any conversion shim — core.Loader wires MethodTopics modules in
// without internal/core needing to import this package.
type Handler = func(payload any)

type subscription struct {
	handler Handler
	ptr     uintptr
	owner   core.ModuleIdentifier
}

// Bus is the process-wide Event Bus. It satisfies core.EventPublisher.
// All handler invocation happens on the goroutine that calls Run,
// matching spec §5's "one UI thread" requirement without depending on
// an actual toolkit main loop.
type Bus struct {
	logger *slog.Logger

	mu   sync.Mutex
	cond *sync.Cond
	subs map[string][]subscription
	// queue holds pending dispatch closures in global enqueue order,
	// giving cross-topic FIFO for free: Publish and Post both just
	// append here.
	queue  []func()
	closed bool

	exceptions atomic.Int64
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		logger: logger.With("component", "event-bus"),
		subs:   make(map[string][]subscription),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Subscribe registers handler for topic, owned by owner. Duplicate
// (topic, handler) registrations are idempotent, per §4.C.
func (b *Bus) Subscribe(topic string, handler func(payload any), owner core.ModuleIdentifier) {
	ptr := reflect.ValueOf(handler).Pointer()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs[topic] {
		if s.ptr == ptr {
			return
		}
	}
	b.subs[topic] = append(b.subs[topic], subscription{handler: handler, ptr: ptr, owner: owner})
}

// Unsubscribe removes a single (topic, handler) registration.
func (b *Bus) Unsubscribe(topic string, handler func(payload any)) {
	ptr := reflect.ValueOf(handler).Pointer()

	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.ptr == ptr {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// UnsubscribeAll drops every subscription owned by owner, across every
// topic. The Loader calls this once per module disable, per §4.F step
// 2, and the invariant in §8 requires it leave zero subscriptions
// behind for that owner.
func (b *Bus) UnsubscribeAll(owner core.ModuleIdentifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subs {
		kept := subs[:0:0]
		for _, s := range subs {
			if s.owner != owner {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(b.subs, topic)
		} else {
			b.subs[topic] = kept
		}
	}
}

// SubscriptionCount reports how many subscriptions owner currently
// holds, for the invariant check in §8.
func (b *Bus) SubscriptionCount(owner core.ModuleIdentifier) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, subs := range b.subs {
		for _, s := range subs {
			if s.owner == owner {
				n++
			}
		}
	}
	return n
}

// Publish enqueues topic/payload for dispatch on the Run goroutine. It
// never invokes a handler on the calling goroutine, satisfying §4.C's
// "MUST NOT invoke handlers on the caller's thread" requirement
// unconditionally rather than only when the caller isn't already the
// UI thread.
func (b *Bus) Publish(topic string, payload any) {
	b.enqueue(func() { b.dispatch(topic, payload) })
}

// Post queues an arbitrary closure for execution on the Run goroutine,
// the primitive scheduler.schedule_in_ui_thread is built on (§4.H):
// since it shares the same queue as Publish, both get the single
// global-enqueue-order FIFO spec §5 requires between the two.
func (b *Bus) Post(fn func()) {
	b.enqueue(fn)
}

func (b *Bus) enqueue(fn func()) {
	b.mu.Lock()
	b.queue = append(b.queue, fn)
	b.mu.Unlock()
	b.cond.Signal()
}

// dispatch invokes every subscriber registered for topic at the moment
// of dispatch. A panicking handler is recovered, logged with its
// owning module id, and does not prevent the remaining handlers from
// running, per §4.C and the scenario in §8 ("bus log contains one
// error entry... counter of handler exceptions increments by exactly
// one").
func (b *Bus) dispatch(topic string, payload any) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		b.invoke(topic, s, payload)
	}
}

func (b *Bus) invoke(topic string, s subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.exceptions.Add(1)
			b.logger.Error("handler panicked", "topic", topic, "module", s.owner, "error", r)
		}
	}()
	s.handler(payload)
}

// HandlerExceptions reports the running count of recovered handler
// panics, for the invariant in §8.
func (b *Bus) HandlerExceptions() int64 {
	return b.exceptions.Load()
}

// Run drains the dispatch queue on the calling goroutine until ctx is
// cancelled, at which point it finishes draining whatever was already
// enqueued and returns. This goroutine IS "the UI thread" for every
// purpose described in spec §5; in the full system the UI layer's main
// loop calls Run (or pumps it incrementally via RunOnce).
func (b *Bus) Run(ctx context.Context) {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		b.cond.Broadcast()
	}()
	defer close(stop)

	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.mu.Unlock()
			return
		}
		fn := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()
		fn()
	}
}

// RunOnce drains exactly one pending closure, if any, without blocking.
// Tests use this to step the bus deterministically instead of running
// a background goroutine.
func (b *Bus) RunOnce() bool {
	b.mu.Lock()
	if len(b.queue) == 0 {
		b.mu.Unlock()
		return false
	}
	fn := b.queue[0]
	b.queue = b.queue[1:]
	b.mu.Unlock()
	fn()
	return true
}

// MethodTopics is implemented by modules that want the decorator-style
// convenience named in §4.C/§9: a single method returning every topic
// it wants to subscribe to, keyed by topic name. It is the same shape
// as core.TopicSubscriber; core.Loader is what actually calls it for a
// loaded module (see loader.go), since internal/core cannot import this
// package without a cycle. SubscribeMethods below remains for callers
// that hold a concrete *Bus directly, such as this package's own tests.
type MethodTopics interface {
	Topics() map[string]Handler
}

// SubscribeMethods discovers mod's MethodTopics (if it implements the
// interface) and subscribes each one on bus on its behalf.
func SubscribeMethods(bus *Bus, owner core.ModuleIdentifier, mod any) {
	mt, ok := mod.(MethodTopics)
	if !ok {
		return
	}
	for topic, handler := range mt.Topics() {
		bus.Subscribe(topic, handler, owner)
	}
}
