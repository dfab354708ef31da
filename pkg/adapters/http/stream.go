package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/statenode/internal/logging"
	"github.com/aretw0/statenode/pkg/domain"
)

// StreamManager fans emitted outputs out to SSE subscribers.
// It is a statenode.Sink: pass it to the session nodes.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // session ID ("" = all) -> set of channels
	logger      *slog.Logger
}

// StreamOption configures the StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger sets the logger reporting dropped messages.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		sm.logger = logger
	}
}

func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a channel for the outputs of sessionID, or of every
// session if sessionID is empty. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Emit implements statenode.Sink.
func (sm *StreamManager) Emit(ctx context.Context, out domain.Output) error {
	payload, err := json.Marshal(out)
	if err != nil {
		return err
	}
	sm.Broadcast(out.Key, string(payload))
	return nil
}

// Broadcast sends msg to the subscribers of sessionID and to global subscribers.
// Slow subscribers lose messages instead of blocking the node.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{sessionID, ""} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
			}
		}
		if sessionID == "" {
			break
		}
	}
}
