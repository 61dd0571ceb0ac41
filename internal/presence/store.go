// Package presence tracks user availability and voice channel occupancy.
//
// Presence is ephemeral by nature, so it lives in a Badger database
// instead of SQLite: entries carry a TTL and simply disappear when a
// client stops heartbeating, with no sweeper goroutine needed.
package presence

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/store"
)

const (
	presencePrefix = "presence:"
	voicePrefix    = "voice:"
)

// Store wraps a Badger database holding presence entries.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	ttl    time.Duration
}

// Open creates a presence store at the given path. Entries written via
// SetPresence expire after ttl unless refreshed by a heartbeat.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("presence database opened", "path", path, "ttl", ttl)
	}

	return &Store{
		db:     db,
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TTL returns the configured presence entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// SetPresence records a user's status. The entry expires after the
// store's TTL; clients keep it alive by heartbeating.
func (s *Store) SetPresence(p *domain.Presence) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}

	key := []byte(presencePrefix + p.UserID)
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
}

// GetPresence returns a user's current presence.
// A user with no live entry is offline; store.ErrNotFound is returned.
func (s *Store) GetPresence(userID string) (*domain.Presence, error) {
	var p domain.Presence
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(presencePrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ClearPresence drops a user's entry, reporting them offline immediately
// instead of waiting for the TTL.
func (s *Store) ClearPresence(userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(presencePrefix + userID))
	})
}

// ListPresence returns all users with a live presence entry.
func (s *Store) ListPresence() ([]*domain.Presence, error) {
	var out []*domain.Presence
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(presencePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var p domain.Presence
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return err
			}
			out = append(out, &p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// JoinVoice records a user joining a voice channel. Voice entries carry
// the same TTL as presence and are refreshed by the same heartbeat.
func (s *Store) JoinVoice(vp *domain.VoicePresence) error {
	data, err := json.Marshal(vp)
	if err != nil {
		return fmt.Errorf("marshal voice presence: %w", err)
	}

	key := []byte(voiceKey(vp.ChannelID, vp.UserID))
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
}

// LeaveVoice removes a user from a voice channel.
func (s *Store) LeaveVoice(channelID, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(voiceKey(channelID, userID)))
	})
}

// ListVoice returns the current occupants of a voice channel.
func (s *Store) ListVoice(channelID string) ([]*domain.VoicePresence, error) {
	var out []*domain.VoicePresence
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(voicePrefix + channelID + ":")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var vp domain.VoicePresence
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &vp)
			})
			if err != nil {
				return err
			}
			out = append(out, &vp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func voiceKey(channelID, userID string) string {
	return voicePrefix + channelID + ":" + userID
}
