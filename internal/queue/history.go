package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/clipdeck/clipdeck/internal/domain"
)

// AddHistory prepends the entry to the prompt history, evicting the oldest
// entries beyond the cap. History is user-review data off the critical save
// path; newest-first ordering is the only guarantee.
func (s *Store) AddHistory(ctx context.Context, entry domain.PromptHistoryEntry) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketHistory)
		entries := decodeHistory(bucket.Get(keyHistory))

		entries = append([]domain.PromptHistoryEntry{entry}, entries...)
		if len(entries) > domain.PromptHistoryCap {
			entries = entries[:domain.PromptHistoryCap]
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to marshal prompt history: %w", err)
		}
		return bucket.Put(keyHistory, data)
	})
	if err != nil {
		return fmt.Errorf("failed to record prompt history: %w", err)
	}
	return nil
}

// History returns the prompt history, newest first.
func (s *Store) History(ctx context.Context) ([]domain.PromptHistoryEntry, error) {
	var entries []domain.PromptHistoryEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		entries = decodeHistory(tx.Bucket(bucketHistory).Get(keyHistory))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt history: %w", err)
	}
	return entries, nil
}

// decodeHistory treats a missing or garbled stored value as empty.
func decodeHistory(data []byte) []domain.PromptHistoryEntry {
	if len(data) == 0 {
		return nil
	}
	var entries []domain.PromptHistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}
