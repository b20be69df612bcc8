package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
)

// streamBuffer is the per-subscriber queue length.
const streamBuffer = 16

// Event is one server-sent event.
type Event struct {
	Type domain.EventType
	Data []byte
}

// StreamManager fans session lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // document ID -> channels
	logger      *slog.Logger
}

// StreamOption configures a StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger sets the logger used for dropped events.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		sm.logger = logger
	}
}

func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a channel for id. The returned func unregisters and
// closes it.
func (sm *StreamManager) Subscribe(id string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, streamBuffer)
	if _, ok := sm.subscribers[id]; !ok {
		sm.subscribers[id] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[id][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[id]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, id)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions for id.
func (sm *StreamManager) Subscribers(id string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[id])
}

// Broadcast delivers ev to every subscriber of id. Slow subscribers lose it.
func (sm *StreamManager) Broadcast(id string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[id] {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping event", "document", id, "type", ev.Type)
		}
	}
}

// Hooks returns lifecycle hooks that broadcast to the subscribers of each
// session's name. Install them with quire.WithLifecycleHooks.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	render := func(_ context.Context, ev *domain.RenderEvent) {
		payload := struct {
			*domain.RenderEvent
			Error string `json:"error,omitempty"`
		}{RenderEvent: ev}
		if ev.Err != nil {
			payload.Error = ev.Err.Error()
		}
		sm.publish(ev.Session, ev.Type, payload)
	}
	return domain.LifecycleHooks{
		OnUpdate: func(_ context.Context, ev *domain.UpdateEvent) {
			sm.publish(ev.Session, ev.Type, ev)
		},
		OnRenderStart:    render,
		OnRenderComplete: render,
		OnRenderFail:     render,
		OnDestroy: func(_ context.Context, ev *domain.EventBase) {
			sm.publish(ev.Session, ev.Type, ev)
		},
	}
}

func (sm *StreamManager) publish(id string, t domain.EventType, v any) {
	if sm.Subscribers(id) == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Warn("SSE: Failed to encode event", "document", id, "error", err)
		return
	}
	sm.Broadcast(id, Event{Type: t, Data: data})
}

// SubscribeEvents handles GET /documents/{id}/events (SSE). The optional
// "types" query parameter is a comma separated event type filter.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "id")

	var filter map[domain.EventType]bool
	if types := r.URL.Query().Get("types"); types != "" {
		filter = make(map[domain.EventType]bool)
		for _, t := range strings.Split(types, ",") {
			filter[domain.EventType(strings.TrimSpace(t))] = true
		}
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: Subscribed", "document", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: Client disconnected", "document", id)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if filter != nil && !filter[ev.Type] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
			flusher.Flush()
		}
	}
}
