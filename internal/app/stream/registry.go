package stream

import (
	"log/slog"
	"sync"
)

// Registry maps user identifiers to their live event stream. It is shared
// mutable state between the stream endpoint (register/deregister) and the
// services that push events (dispatch), so all access is mutex-guarded.
//
// A user holds at most one stream: opening a second connection replaces the
// first, and only the newest connection receives events from then on. The
// registry is process-local; a recipient connected to another instance is
// reached through the broker bridge, not through this map.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink

	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sinks:  make(map[string]Sink),
		logger: logger,
	}
}

// Register makes sink the current stream for userID, replacing any prior one.
func (r *Registry) Register(userID string, sink Sink) {
	if userID == "" || sink == nil {
		return
	}
	r.mu.Lock()
	r.sinks[userID] = sink
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("stream connected", "user_id", userID)
	}
}

// Deregister removes the user's entry, but only while sink is still the
// current one. A superseded connection tearing down must not evict the
// stream that replaced it.
func (r *Registry) Deregister(userID string, sink Sink) {
	r.mu.Lock()
	current, ok := r.sinks[userID]
	if ok && current == sink {
		delete(r.sinks, userID)
	} else {
		ok = false
	}
	r.mu.Unlock()
	if ok && r.logger != nil {
		r.logger.Info("stream disconnected", "user_id", userID)
	}
}

// Connected reports whether the user currently holds a live stream.
func (r *Registry) Connected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sinks[userID]
	return ok
}

// Dispatch writes a named event to the user's stream. Absent users are a
// silent no-op; there is no queueing of missed events. A failed write marks
// the stream as dead and evicts it so a stale connection can never break a
// sender's request.
func (r *Registry) Dispatch(userID string, event string, payload any) {
	r.mu.RLock()
	sink, ok := r.sinks[userID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if err := sink.Send(event, payload); err != nil {
		if r.logger != nil {
			r.logger.Warn("stream write failed, dropping connection", "user_id", userID, "event", event, "error", err)
		}
		r.Deregister(userID, sink)
	}
}

var _ Dispatcher = (*Registry)(nil)
