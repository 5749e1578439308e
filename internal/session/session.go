package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"todolists/internal/todo"
)

var ErrNotFound = errors.New("session not found")

// Session is the per-visitor state carried between requests. Seeded is set
// once a session-backed store has given it its starting lists; an emptied
// TodoLists stays empty after that.
type Session struct {
	ID        string          `json:"id"`
	Username  string          `json:"username,omitempty"`
	SignedIn  bool            `json:"signed_in"`
	Seeded    bool            `json:"seeded"`
	TodoLists []todo.TodoList `json:"todo_lists"`
	NextID    int64           `json:"next_id"`

	mu sync.Mutex
}

func newSession() *Session {
	return &Session{ID: uuid.NewString(), NextID: 1}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// NewID hands out the next id for a list or todo. Callers hold the lock.
func (s *Session) NewID() int64 {
	if s.NextID < 1 {
		s.NextID = 1
	}
	id := s.NextID
	s.NextID++
	return id
}

// User returns the signed-in username, if any.
func (s *Session) User() (string, bool) {
	s.Lock()
	defer s.Unlock()
	return s.Username, s.SignedIn
}

func (s *Session) SignIn(username string) {
	s.Lock()
	defer s.Unlock()
	s.Username = username
	s.SignedIn = true
}

func (s *Session) SignOut() {
	s.Lock()
	defer s.Unlock()
	s.Username = ""
	s.SignedIn = false
}

// Manager persists sessions between requests.
type Manager interface {
	New(ctx context.Context) (*Session, error)
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}
