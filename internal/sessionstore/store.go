// Package sessionstore keeps one visitor's todo lists inside their session.
//
// Lookups hand out deep copies; mutations act on the session's live slice so
// the session reflects them immediately. Every operation holds the session
// lock, which makes the store safe for concurrent requests on one session.
package sessionstore

import (
	"context"
	"strings"

	"todolists/internal/session"
	"todolists/internal/todo"
)

// Credentials maps a username to its bcrypt password hash.
type Credentials map[string]string

// ParseCredentials reads "user:hash,user:hash". bcrypt hashes never contain
// ':' or ','.
func ParseCredentials(raw string) Credentials {
	creds := Credentials{}
	for _, pair := range strings.Split(raw, ",") {
		name, hash, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" || hash == "" {
			continue
		}
		creds[name] = hash
	}
	return creds
}

type Store struct {
	sess  *session.Session
	users Credentials
}

var _ todo.Store = (*Store)(nil)

func New(sess *session.Session, users Credentials) *Store {
	sess.Lock()
	defer sess.Unlock()
	if !sess.Seeded {
		if sess.TodoLists == nil {
			sess.TodoLists = SeedData()
		}
		if next := maxID(sess.TodoLists) + 1; sess.NextID < next {
			sess.NextID = next
		}
		sess.Seeded = true
	}
	return &Store{sess: sess, users: users}
}

// findTodoList returns the live list, not a copy.
func (s *Store) findTodoList(listID int64) *todo.TodoList {
	for i := range s.sess.TodoLists {
		if s.sess.TodoLists[i].ID == listID {
			return &s.sess.TodoLists[i]
		}
	}
	return nil
}

func (s *Store) findTodo(listID, todoID int64) *todo.Todo {
	list := s.findTodoList(listID)
	if list == nil {
		return nil
	}
	for i := range list.Todos {
		if list.Todos[i].ID == todoID {
			return &list.Todos[i]
		}
	}
	return nil
}

func (s *Store) existsTitle(title string) bool {
	for _, l := range s.sess.TodoLists {
		if l.Title == title {
			return true
		}
	}
	return false
}

func (s *Store) CreateTodoList(ctx context.Context, title string) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	if s.existsTitle(title) {
		return false, nil
	}
	s.sess.TodoLists = append(s.sess.TodoLists, todo.TodoList{
		ID:    s.sess.NewID(),
		Title: title,
		Todos: []todo.Todo{},
	})
	return true, nil
}

func (s *Store) CreateTodo(ctx context.Context, listID int64, title string) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	list := s.findTodoList(listID)
	if list == nil {
		return false, nil
	}
	list.Todos = append(list.Todos, todo.Todo{
		ID:     s.sess.NewID(),
		ListID: listID,
		Title:  title,
	})
	return true, nil
}

func (s *Store) DeleteTodoList(ctx context.Context, listID int64) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	for i, l := range s.sess.TodoLists {
		if l.ID == listID {
			s.sess.TodoLists = append(s.sess.TodoLists[:i], s.sess.TodoLists[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteTodo(ctx context.Context, listID, todoID int64) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	list := s.findTodoList(listID)
	if list == nil {
		return false, nil
	}
	for i, t := range list.Todos {
		if t.ID == todoID {
			list.Todos = append(list.Todos[:i], list.Todos[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ToggleDoneTodo(ctx context.Context, listID, todoID int64) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	t := s.findTodo(listID, todoID)
	if t == nil {
		return false, nil
	}
	t.Done = !t.Done
	return true, nil
}

// CompleteAllTodos marks every todo done. It reports false for an unknown
// or empty list.
func (s *Store) CompleteAllTodos(ctx context.Context, listID int64) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	list := s.findTodoList(listID)
	if list == nil || len(list.Todos) == 0 {
		return false, nil
	}
	for i := range list.Todos {
		list.Todos[i].Done = true
	}
	return true, nil
}

func (s *Store) SetTodoListTitle(ctx context.Context, listID int64, title string) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	list := s.findTodoList(listID)
	if list == nil {
		return false, nil
	}
	if list.Title != title && s.existsTitle(title) {
		return false, nil
	}
	list.Title = title
	return true, nil
}

func (s *Store) LoadTodoList(ctx context.Context, listID int64) (*todo.TodoList, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	list := s.findTodoList(listID)
	if list == nil {
		return nil, nil
	}
	cp := list.Clone()
	return &cp, nil
}

func (s *Store) LoadTodo(ctx context.Context, listID, todoID int64) (*todo.Todo, error) {
	s.sess.Lock()
	defer s.sess.Unlock()

	t := s.findTodo(listID, todoID)
	if t == nil {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *Store) SortedTodoLists(ctx context.Context) ([]todo.TodoList, error) {
	s.sess.Lock()
	lists := todo.CloneLists(s.sess.TodoLists)
	s.sess.Unlock()

	return todo.SortTodoLists(lists), nil
}

// SortedTodos sorts a copy of list's todos; list itself is left untouched.
func (s *Store) SortedTodos(ctx context.Context, list *todo.TodoList) ([]todo.Todo, error) {
	if list == nil {
		return nil, nil
	}
	todos := make([]todo.Todo, len(list.Todos))
	copy(todos, list.Todos)
	return todo.SortTodos(todos), nil
}

func (s *Store) ExistsTodoListTitle(ctx context.Context, title string) (bool, error) {
	s.sess.Lock()
	defer s.sess.Unlock()
	return s.existsTitle(title), nil
}

func (s *Store) HasUndoneTodos(list *todo.TodoList) bool {
	return list.HasUndone()
}

func (s *Store) IsDoneTodoList(list *todo.TodoList) bool {
	return list.IsDone()
}

func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
	hash, ok := s.users[username]
	if !ok {
		return false, nil
	}
	return todo.CheckPassword(hash, password)
}
