package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/domain"
)

// commandView is the JSON shape streamed to subscribers.
type commandView struct {
	*domain.CommandEvent
	Error string `json:"error,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // Scope -> Set of Channels
	logger      *slog.Logger
}

// StreamOption configures a StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger sets the logger used to report dropped messages.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a listener for scope. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(scope string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[scope]; !ok {
		sm.subscribers[scope] = make(map[chan string]struct{})
	}
	sm.subscribers[scope][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs, ok := sm.subscribers[scope]
		if !ok {
			return
		}
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(sm.subscribers, scope)
		}
	}
}

// Broadcast sends msg to every subscriber of scope without blocking.
func (sm *StreamManager) Broadcast(scope string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[scope] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "scope", scope)
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every command event to its scope.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			view := commandView{CommandEvent: e}
			if e.Err != nil {
				view.Error = e.Err.Error()
			}
			data, err := json.Marshal(view)
			if err != nil {
				return
			}
			sm.Broadcast(e.Scope, string(data))
		},
	}
}
