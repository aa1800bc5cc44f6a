package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yixuan-h/pagemate/internal/common"
)

// DefaultStoreKey is the namespaced key the whole session store lives under.
const DefaultStoreKey = "chatSessions"

// KV is one durable storage slot. The session store is persisted as a single
// serialized value under a fixed key, full overwrite on every write; there
// is no per-session partitioning.
type KV interface {
	// Load returns the stored value. ok is false when nothing has been
	// stored yet; that is not an error.
	Load(ctx context.Context) (data []byte, ok bool, err error)
	// Save overwrites the stored value.
	Save(ctx context.Context, data []byte) error
}

// Store owns the session-id -> session mapping and its persistence. It is
// not safe for concurrent use; the conversation controller owns it
// exclusively and serializes access.
type Store struct {
	kv       KV
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore(kv KV) *Store {
	return &Store{
		kv:       kv,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Load replaces the in-memory mapping with the persisted one. Absence of a
// persisted value yields an empty mapping, not an error.
func (s *Store) Load(ctx context.Context) error {
	data, ok, err := s.kv.Load(ctx)
	if err != nil {
		return err
	}
	s.sessions = make(map[string]*Session)
	if !ok {
		return nil
	}
	return json.Unmarshal(data, &s.sessions)
}

// Persist writes the whole mapping in one overwrite. The active session's
// UpdatedAt is refreshed first so MostRecent tracks actual use.
func (s *Store) Persist(ctx context.Context, activeID string) error {
	if sess, ok := s.sessions[activeID]; ok {
		sess.UpdatedAt = s.now()
	}
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, data)
}

// MostRecent returns the id of the session with the greatest UpdatedAt, or
// "" for an empty store. Ties break by map iteration order; which of the
// tied sessions wins is undefined and acceptable.
func (s *Store) MostRecent() string {
	var id string
	var best time.Time
	for sid, sess := range s.sessions {
		if id == "" || sess.UpdatedAt.After(best) {
			id = sid
			best = sess.UpdatedAt
		}
	}
	return id
}

// CreateSession inserts a fresh session and returns it. Ids are monotonic
// ULIDs, so creation order survives in the id itself.
func (s *Store) CreateSession() (*Session, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &Session{
		ID:        id,
		Title:     "New Chat",
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
	s.sessions[id] = sess
	return sess, nil
}

// Get returns the session for id.
func (s *Store) Get(id string) (*Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len returns the number of stored sessions.
func (s *Store) Len() int { return len(s.sessions) }

// Snapshot returns deep copies of all sessions, newest first. Callers may
// hold onto the result across controller transitions.
func (s *Store) Snapshot() []Session {
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	// insertion sort, stores are small
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].UpdatedAt.After(out[j-1].UpdatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func copySession(s *Session) Session {
	dup := *s
	dup.Messages = make([]Message, len(s.Messages))
	copy(dup.Messages, s.Messages)
	return dup
}
