package batch

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionRunning SessionState = "running"
	SessionDone    SessionState = "done"
)

// Session is the in-memory progress record for one running batch. Purely
// ephemeral; lesson records in the database are the durable output.
type Session struct {
	mu sync.Mutex

	ID        uuid.UUID    `json:"id"`
	Topics    []string     `json:"topics"`
	State     SessionState `json:"state"`
	Succeeded int          `json:"succeeded"`
	Failed    []string     `json:"failed,omitempty"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
}

func (s *Session) TopicDone(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Succeeded++
}

func (s *Session) TopicFailed(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed = append(s.Failed, topic)
}

func (s *Session) Finish(succeeded int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.State = SessionDone
	s.Succeeded = succeeded
	s.EndedAt = &now
}

// Snapshot returns a copy safe to serialize while the batch is running.
func (s *Session) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := Session{
		ID:        s.ID,
		Topics:    append([]string(nil), s.Topics...),
		State:     s.State,
		Succeeded: s.Succeeded,
		Failed:    append([]string(nil), s.Failed...),
		StartedAt: s.StartedAt,
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		cp.EndedAt = &t
	}
	return cp
}

// SessionStore tracks running batches. Sessions are discarded once the
// terminal event has been emitted; lesson records are the durable output.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (st *SessionStore) Start(id uuid.UUID, topics []string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := &Session{
		ID:        id,
		Topics:    append([]string(nil), topics...),
		State:     SessionRunning,
		StartedAt: time.Now(),
	}
	st.sessions[id] = s
	return s
}

func (st *SessionStore) Get(id uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *SessionStore) Delete(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
