package notify

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple Emitter implementation that stores registered
// handlers in memory and dispatches notifications to them.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new instance of InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "notify_emitter"),
	}
}

// RegisterHandler adds a new handler to receive notifications.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered notification handler", "handler_count", len(e.handlers))
}

// Emit publishes the given notification to all registered handlers. If any
// handler returns an error, the notification is still delivered to all
// other handlers, and the first error encountered is returned.
func (e *InMemoryEmitter) Emit(ctx context.Context, n *Notification) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for notification",
			"notification_id", n.ID,
			"level", n.Level)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleNotification(ctx, n); err != nil {
			e.logger.Error("handler failed to process notification",
				"error", err,
				"handler_index", i,
				"notification_id", n.ID,
				"level", n.Level)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// LogHandler writes every notification to the structured log. It is the
// default subscriber so no outcome is ever silent, even without a connected
// UI collaborator.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "notify_log")}
}

// HandleNotification implements Handler.
func (h *LogHandler) HandleNotification(_ context.Context, n *Notification) error {
	if n.Level == LevelBadge {
		h.logger.Info("badge updated", "pending_count", n.Count)
		return nil
	}
	h.logger.Info("status notification",
		"tab_id", n.TabID,
		"level", n.Level,
		"message", n.Message)
	return nil
}
