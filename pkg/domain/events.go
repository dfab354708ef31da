package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventRejected   EventType = "rejected"
	EventEmit       EventType = "emit"
	EventStoreError EventType = "store_error"
)

// Event describes one observable step of a machine instance.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Machine   string    `json:"machine"`
	Key       string    `json:"key,omitempty"`

	// Trigger is the raw label; Canonical is its normalized form.
	Trigger   string `json:"trigger,omitempty"`
	Canonical string `json:"canonical,omitempty"`

	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *Event)
	OnRejected   func(context.Context, *Event)
	OnEmit       func(context.Context, *Event)
	OnStoreError func(context.Context, *Event)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnRejected:   chain(h.OnRejected, other.OnRejected),
		OnEmit:       chain(h.OnEmit, other.OnEmit),
		OnStoreError: chain(h.OnStoreError, other.OnStoreError),
	}
}

func chain(a, b func(context.Context, *Event)) func(context.Context, *Event) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *Event) {
		a(ctx, e)
		b(ctx, e)
	}
}
