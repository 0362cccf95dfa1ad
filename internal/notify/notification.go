// Package notify carries status notifications from the save pipeline to the
// UI collaborators. Every terminal orchestration outcome produces exactly
// one status notification for its originating tab; badge notifications
// track the pending-queue size.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification.
type Level string

// Possible notification levels.
const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"

	// LevelBadge notifications carry a queue count instead of a message.
	LevelBadge Level = "badge"
)

// Notification is a single status message directed at a tab, or a badge
// count update when Level is LevelBadge.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	TabID     string    `json:"tab_id,omitempty"`
	Level     Level     `json:"level"`
	Message   string    `json:"message,omitempty"`
	Count     int       `json:"count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStatus creates a status notification for the given tab.
func NewStatus(tabID string, level Level, message string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		TabID:     tabID,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// NewBadge creates a badge-count notification.
func NewBadge(count int) *Notification {
	return &Notification{
		ID:        uuid.New(),
		Level:     LevelBadge,
		Count:     count,
		CreatedAt: time.Now().UTC(),
	}
}

// Handler defines an interface for components that consume notifications.
type Handler interface {
	// HandleNotification processes the given notification.
	// Returns an error if the notification cannot be handled.
	HandleNotification(ctx context.Context, n *Notification) error
}

// Emitter defines an interface for components that publish notifications
// without direct knowledge of the handlers.
type Emitter interface {
	// Emit publishes the given notification to all registered handlers.
	Emit(ctx context.Context, n *Notification) error
}
