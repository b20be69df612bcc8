package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventUpdate         EventType = "update"
	EventRenderStart    EventType = "render_start"
	EventRenderComplete EventType = "render_complete"
	EventRenderFail     EventType = "render_fail"
	EventDestroy        EventType = "destroy"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Session   string    `json:"session,omitempty"`
}

// UpdateEvent reports a description submitted to a session.
type UpdateEvent struct {
	EventBase
	Dirty      bool   `json:"dirty"`
	Generation uint64 `json:"generation"`
}

// RenderEvent reports the lifecycle of one render pass.
type RenderEvent struct {
	EventBase
	PassID   uint64        `json:"pass_id"`
	Output   OutputKind    `json:"output"`
	Bytes    int64         `json:"bytes,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for session observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnUpdate         func(context.Context, *UpdateEvent)
	OnRenderStart    func(context.Context, *RenderEvent)
	OnRenderComplete func(context.Context, *RenderEvent)
	OnRenderFail     func(context.Context, *RenderEvent)
	OnDestroy        func(context.Context, *EventBase)
}
