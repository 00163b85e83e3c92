package history

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
	gocache "github.com/patrickmn/go-cache"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type session struct {
	turns deque.Deque[Turn]
}

// Store keeps the recent conversation of each session. A session holds at
// most maxTurns question/answer pairs and is forgotten after ttl without use.
type Store struct {
	mu       sync.Mutex
	maxTurns int
	sessions *gocache.Cache
}

func NewStore(maxTurns int, ttl time.Duration) *Store {
	return &Store{
		maxTurns: maxTurns,
		sessions: gocache.New(ttl, ttl),
	}
}

func (s *Store) Append(sessionID string, turns ...Turn) {
	if s.maxTurns <= 0 || sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(sessionID, true)
	for _, t := range turns {
		if t.At.IsZero() {
			t.At = time.Now()
		}
		sess.turns.PushBack(t)
	}
	for sess.turns.Len() > 2*s.maxTurns {
		sess.turns.PopFront()
	}
	s.sessions.SetDefault(sessionID, sess)
}

// Turns returns a copy of the session history, oldest first.
func (s *Store) Turns(sessionID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.get(sessionID, false)
	if sess == nil {
		return nil
	}
	ret := make([]Turn, sess.turns.Len())
	for i := range ret {
		ret[i] = sess.turns.At(i)
	}
	s.sessions.SetDefault(sessionID, sess)
	return ret
}

func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Delete(sessionID)
}

func (s *Store) get(sessionID string, create bool) *session {
	if v, ok := s.sessions.Get(sessionID); ok {
		return v.(*session)
	}
	if !create {
		return nil
	}
	sess := &session{}
	s.sessions.SetDefault(sessionID, sess)
	return sess
}
