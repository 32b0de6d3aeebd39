// Package session persists login sessions in an embedded badger database.
//
// A session is written when a user logs in or registers, removed on logout,
// and read back on every authenticated request. Keys carry a badger TTL that
// matches the session expiry, so stale sessions disappear even if nobody
// calls PurgeExpired.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/findshroom/findshroom-server/internal/domain"
)

const (
	sessionPrefix       = "session:"
	sessionByUserPrefix = "idx:sessions:user:"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when a session exists but has expired.
	ErrExpired = errors.New("session expired")
)

// Store is a durable key/value store of sessions.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (or creates) the session database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sessions must survive a crash right after login
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Session store opened", "path", dir)

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

func userIndexKey(userID int64, sessionID string) []byte {
	return []byte(sessionByUserPrefix + strconv.FormatInt(userID, 10) + ":" + sessionID)
}

// Put stores a session. Existing sessions with the same ID are replaced.
func (s *Store) Put(ctx context.Context, sess *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(sessionKey(sess.ID), data).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(userIndexKey(sess.UserID, sess.ID), []byte{}).WithTTL(ttl))
	})
}

// Get returns a live session.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired(s.now()) {
		return nil, ErrExpired
	}
	return sess, nil
}

func (s *Store) read(id string) (*domain.Session, error) {
	var sess domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sess, err := s.read(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(sessionKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(userIndexKey(sess.UserID, id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

// DeleteForUser removes every session of a user and returns how many there were.
func (s *Store) DeleteForUser(ctx context.Context, userID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(sessionByUserPrefix + strconv.FormatInt(userID, 10) + ":")
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// Count returns the number of stored sessions, expired ones included until purged.
func (s *Store) Count() (int, error) {
	prefix := []byte(sessionPrefix)
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// PurgeExpired removes sessions whose expiry has passed and returns how many.
func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	prefix := []byte(sessionPrefix)
	now := s.now()
	var expired []string

	// First pass: find expired sessions
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var sess domain.Session
				if err := json.Unmarshal(val, &sess); err != nil {
					s.logger.Warn("skipping unreadable session", "key", string(it.Item().Key()), "error", err)
					return nil
				}
				if sess.IsExpired(now) {
					expired = append(expired, sess.ID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	// Second pass: delete them
	for _, id := range expired {
		if err := s.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(expired), nil
}
