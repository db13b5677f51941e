package chatstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/clearstack/opsdesk/internal/domain"
)

// Store is the durable chat history store: a local key-to-JSON table with
// one list of sessions per key. Two key scopes coexist per identity, the
// per-surface feature key and the unified key aggregating every surface;
// MergeIntoUnified keeps the unified list the superset.
//
// Persistence is best-effort by contract: read and write failures are
// logged and swallowed, the caller's in-memory list stays authoritative
// for the life of the surface.
type Store struct {
	db *sql.DB

	// mu serializes read-merge-write cycles so two surfaces in this
	// process cannot interleave on the same unified key.
	mu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(unifiedKey string)
	nextSub int
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chat_history (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, subs: make(map[int]func(string))}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers an observer invoked with the unified key after every
// unified write. It returns an unsubscribe func. This replaces the browser
// build's window event bus with an explicit registration.
func (s *Store) Subscribe(fn func(unifiedKey string)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(unifiedKey string) {
	s.subMu.Lock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(unifiedKey)
	}
}

// LoadFeatureHistory returns the session list stored under a feature key.
// Missing or malformed content yields an empty list; the anomaly is logged
// and never propagated.
func (s *Store) LoadFeatureHistory(key string) []domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(key)
}

// SaveFeatureHistory writes a non-empty session list under its feature
// key. An empty list is never persisted as a cleared state; deletion is
// per-id through DeleteSession.
func (s *Store) SaveFeatureHistory(key string, sessions []domain.ChatSession) {
	if len(sessions) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(key, sessions)
}

// MergeIntoUnified reconciles a surface's session list into the unified
// list: entries are keyed by id, existing unified entries keep their
// position, feature entries win on collision and new ids append in feature
// order. Observers are notified after the write.
func (s *Store) MergeIntoUnified(unifiedKey string, feature []domain.ChatSession) {
	s.mu.Lock()
	existing := s.load(unifiedKey)

	index := make(map[int64]int, len(existing))
	merged := make([]domain.ChatSession, len(existing))
	copy(merged, existing)
	for i, sess := range merged {
		index[sess.ID] = i
	}
	for _, sess := range feature {
		if i, ok := index[sess.ID]; ok {
			merged[i] = sess
			continue
		}
		index[sess.ID] = len(merged)
		merged = append(merged, sess)
	}

	s.save(unifiedKey, merged)
	s.mu.Unlock()

	s.notify(unifiedKey)
}

// DeleteSession removes one session id from both durable scopes. The
// caller removes it from its in-memory list.
func (s *Store) DeleteSession(id int64, featureKey, unifiedKey string) {
	s.mu.Lock()
	for _, key := range []string{featureKey, unifiedKey} {
		list := s.load(key)
		kept := list[:0]
		for _, sess := range list {
			if sess.ID != id {
				kept = append(kept, sess)
			}
		}
		s.save(key, kept)
	}
	s.mu.Unlock()

	s.notify(unifiedKey)
}

// RestoreUnified returns the unified list for an identity's initial load.
func (s *Store) RestoreUnified(unifiedKey string) []domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(unifiedKey)
}

func (s *Store) load(key string) []domain.ChatSession {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM chat_history WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		slog.Error("chat history read failed", "key", key, "error", err)
		return nil
	}

	var sessions []domain.ChatSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		slog.Warn("malformed chat history discarded", "key", key, "error", err)
		return nil
	}
	return sessions
}

func (s *Store) save(key string, sessions []domain.ChatSession) {
	if sessions == nil {
		sessions = []domain.ChatSession{}
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		slog.Error("chat history encode failed", "key", key, "error", err)
		return
	}
	if _, err := s.db.Exec(
		`INSERT INTO chat_history (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw),
	); err != nil {
		slog.Error("chat history write failed", "key", key, "error", err)
	}
}
