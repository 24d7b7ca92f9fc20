package events

import (
	"testing"

	"github.com/waypanel/waypanel/internal/core"
)

func TestSubscribePublishDelivers(t *testing.T) {
	b := NewBus(nil)
	var got any
	b.Subscribe("view-focused", func(payload any) { got = payload }, "org.waypanel.plugin.taskbar")

	b.Publish("view-focused", 42)
	if !b.RunOnce() {
		t.Fatal("expected a pending dispatch")
	}
	if got != 42 {
		t.Fatalf("handler did not receive payload, got %v", got)
	}
}

func TestSubscribeIsIdempotentForSameHandler(t *testing.T) {
	b := NewBus(nil)
	calls := 0
	handler := func(payload any) { calls++ }
	b.Subscribe("t", handler, "owner")
	b.Subscribe("t", handler, "owner")

	if got := b.SubscriptionCount("owner"); got != 1 {
		t.Fatalf("expected 1 subscription after duplicate Subscribe, got %d", got)
	}
}

func TestUnsubscribeAllRemovesEveryTopicForOwner(t *testing.T) {
	b := NewBus(nil)
	b.Subscribe("a", func(any) {}, "owner")
	b.Subscribe("b", func(any) {}, "owner")
	b.Subscribe("a", func(any) {}, "other")

	b.UnsubscribeAll("owner")

	if got := b.SubscriptionCount("owner"); got != 0 {
		t.Fatalf("expected 0 subscriptions for owner after UnsubscribeAll, got %d", got)
	}
	if got := b.SubscriptionCount("other"); got != 1 {
		t.Fatalf("expected other owner's subscription to survive, got %d", got)
	}
}

func TestSubscribeUnsubscribeRoundTrip(t *testing.T) {
	b := NewBus(nil)
	handler := func(any) {}
	b.Subscribe("t", handler, "owner")
	b.Unsubscribe("t", handler)

	if got := b.SubscriptionCount("owner"); got != 0 {
		t.Fatalf("expected subscription removed, got count %d", got)
	}
}

func TestFailingHandlerDoesNotBlockOthers(t *testing.T) {
	b := NewBus(nil)
	var secondRan bool
	b.Subscribe("view-focused", func(any) { panic("ValueError: x") }, "bad-module")
	b.Subscribe("view-focused", func(any) { secondRan = true }, "good-module")

	b.Publish("view-focused", nil)
	b.RunOnce()

	if !secondRan {
		t.Fatal("expected second handler to still run after first panicked")
	}
	if got := b.HandlerExceptions(); got != 1 {
		t.Fatalf("expected exactly one recorded exception, got %d", got)
	}
}

func TestPublishNeverInvokesOnCallerGoroutine(t *testing.T) {
	b := NewBus(nil)
	invoked := false
	b.Subscribe("t", func(any) { invoked = true }, "owner")
	b.Publish("t", nil)
	if invoked {
		t.Fatal("Publish must not invoke handlers synchronously")
	}
	b.RunOnce()
	if !invoked {
		t.Fatal("expected handler to run after RunOnce")
	}
}

func TestCrossTopicFIFOOrdering(t *testing.T) {
	b := NewBus(nil)
	var order []string
	b.Subscribe("a", func(any) { order = append(order, "a") }, "owner")
	b.Subscribe("b", func(any) { order = append(order, "b") }, "owner")

	b.Publish("a", nil)
	b.Publish("b", nil)
	for b.RunOnce() {
	}

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected enqueue-order dispatch [a b], got %v", order)
	}
}

func TestPostSharesQueueWithPublish(t *testing.T) {
	b := NewBus(nil)
	var order []string
	b.Subscribe("t", func(any) { order = append(order, "publish") }, "owner")

	b.Publish("t", nil)
	b.Post(func() { order = append(order, "post") })
	for b.RunOnce() {
	}

	if len(order) != 2 || order[0] != "publish" || order[1] != "post" {
		t.Fatalf("expected [publish post], got %v", order)
	}
}

type methodTopicsModule struct {
	got any
}

func (m *methodTopicsModule) Topics() map[string]Handler {
	return map[string]Handler{
		"view-mapped": func(payload any) { m.got = payload },
	}
}

func TestSubscribeMethodsUsesTopicsInterface(t *testing.T) {
	b := NewBus(nil)
	mod := &methodTopicsModule{}
	SubscribeMethods(b, core.ModuleIdentifier("org.waypanel.plugin.taskbar"), mod)

	b.Publish("view-mapped", "view-1")
	b.RunOnce()

	if mod.got != "view-1" {
		t.Fatalf("expected Topics()-registered handler to fire, got %v", mod.got)
	}
}
