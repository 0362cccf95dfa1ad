package domain

import (
	"time"

	"github.com/google/uuid"
)

// QueuedClip is a Card plus its originating tab, persisted when an
// immediate save attempt failed for connectivity reasons. Clips live in the
// pending queue in insertion order; insertion order is retry order.
type QueuedClip struct {
	ID       uuid.UUID `json:"id"`
	Card     Card      `json:"card"`
	TabID    string    `json:"tab_id,omitempty"`
	QueuedAt time.Time `json:"queued_at"`
}

// NewQueuedClip creates a QueuedClip for the given card and tab.
func NewQueuedClip(card Card, tabID string) QueuedClip {
	return QueuedClip{
		ID:       uuid.New(),
		Card:     card,
		TabID:    tabID,
		QueuedAt: time.Now().UTC(),
	}
}
