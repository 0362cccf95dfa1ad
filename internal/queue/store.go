// Package queue implements the durable pending-clip queue and the prompt
// history log on top of a local bbolt database.
//
// The queue is the resilience core of the save pipeline: clips land here
// when the card target service is unreachable and leave only after a
// successful resync. Every mutation is a whole-list read-modify-write
// inside a single transaction, so readers never observe a partially
// updated queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/clipdeck/clipdeck/internal/domain"
)

// Bucket and key names.
var (
	bucketQueue   = []byte("queue")
	bucketHistory = []byte("history")

	keyPending = []byte("pendingClips")
	keyHistory = []byte("promptHistory")
)

// Store holds pending clips and prompt history in a single database file.
type Store struct {
	db     *bbolt.DB
	logger *slog.Logger

	// mu serializes all queue mutations. A flush pass holds it across its
	// save attempts: the final whole-list rewrite would otherwise clobber a
	// clip enqueued mid-pass.
	mu    sync.Mutex
	cache []domain.QueuedClip

	// onChange is invoked with the pending count after every queue write.
	onChange func(count int)
}

// Open opens (creating if needed) the database at path and loads the
// in-memory queue mirror.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "clip_store"),
	}

	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetChangeHandler registers the badge-refresh hook. Must be called before
// the store is shared across goroutines.
func (s *Store) SetChangeHandler(fn func(count int)) {
	s.onChange = fn
}

// init creates the buckets and warms the cache.
func (s *Store) init() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketQueue); err != nil {
			return fmt.Errorf("failed to create queue bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists(bucketHistory); err != nil {
			return fmt.Errorf("failed to create history bucket: %w", err)
		}
		s.cache = decodeClips(tx.Bucket(bucketQueue).Get(keyPending))
		return nil
	})
	if err != nil {
		return err
	}

	if len(s.cache) > 0 {
		s.logger.Info("loaded pending clips", "count", len(s.cache))
	}
	return nil
}

// Enqueue appends the clip to the pending list and persists the full list
// in one write.
func (s *Store) Enqueue(ctx context.Context, clip domain.QueuedClip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		clips := append(decodeClips(bucket.Get(keyPending)), clip)
		if err := putClips(bucket, clips); err != nil {
			return err
		}
		s.cache = clips
		count = len(clips)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue clip: %w", err)
	}

	s.logger.Info("clip queued for later sync",
		"clip_id", clip.ID,
		"deck", clip.Card.DeckName,
		"pending_count", count)
	s.notifyChange(count)
	return nil
}

// Flush attempts trySave for every pending clip in insertion order,
// sequentially. Clips whose save attempt fails are retained in their
// original relative order; the remaining list is persisted in a single
// write afterward. Flushing an empty queue performs no storage write.
//
// One clip's failure never aborts the pass.
func (s *Store) Flush(ctx context.Context, trySave func(ctx context.Context, clip domain.QueuedClip) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clips []domain.QueuedClip
	err := s.db.View(func(tx *bbolt.Tx) error {
		clips = decodeClips(tx.Bucket(bucketQueue).Get(keyPending))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read pending clips: %w", err)
	}

	if len(clips) == 0 {
		return nil
	}

	s.logger.Info("flushing pending clips", "count", len(clips))

	remaining := make([]domain.QueuedClip, 0, len(clips))
	for _, clip := range clips {
		if err := trySave(ctx, clip); err != nil {
			s.logger.Warn("clip save failed, keeping in queue",
				"clip_id", clip.ID,
				"error", err)
			remaining = append(remaining, clip)
			continue
		}
		s.logger.Info("queued clip synced", "clip_id", clip.ID)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := putClips(tx.Bucket(bucketQueue), remaining); err != nil {
			return err
		}
		s.cache = remaining
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist remaining clips: %w", err)
	}

	s.notifyChange(len(remaining))
	return nil
}

// Len returns the number of pending clips.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Clips returns a copy of the pending list in retry order.
func (s *Store) Clips() []domain.QueuedClip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QueuedClip, len(s.cache))
	copy(out, s.cache)
	return out
}

func (s *Store) notifyChange(count int) {
	if s.onChange != nil {
		s.onChange(count)
	}
}

// decodeClips treats a missing or garbled stored value as an empty list.
func decodeClips(data []byte) []domain.QueuedClip {
	if len(data) == 0 {
		return nil
	}
	var clips []domain.QueuedClip
	if err := json.Unmarshal(data, &clips); err != nil {
		return nil
	}
	return clips
}

func putClips(bucket *bbolt.Bucket, clips []domain.QueuedClip) error {
	data, err := json.Marshal(clips)
	if err != nil {
		return fmt.Errorf("failed to marshal pending clips: %w", err)
	}
	if err := bucket.Put(keyPending, data); err != nil {
		return fmt.Errorf("failed to store pending clips: %w", err)
	}
	return nil
}
