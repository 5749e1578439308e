package todo

import (
	"context"
	"errors"
)

var ErrInvalidTitle = errors.New("title must be between 1 and 100 characters")

// Store is the persistence contract shared by the database-backed and the
// session-backed implementations. Boolean results report expected absence
// (unknown id, duplicate title) as false; the error is reserved for failures.
type Store interface {
	CreateTodoList(ctx context.Context, title string) (bool, error)
	CreateTodo(ctx context.Context, listID int64, title string) (bool, error)
	DeleteTodoList(ctx context.Context, listID int64) (bool, error)
	DeleteTodo(ctx context.Context, listID, todoID int64) (bool, error)
	ToggleDoneTodo(ctx context.Context, listID, todoID int64) (bool, error)
	CompleteAllTodos(ctx context.Context, listID int64) (bool, error)
	SetTodoListTitle(ctx context.Context, listID int64, title string) (bool, error)

	// LoadTodoList and LoadTodo return nil, nil when nothing matches.
	LoadTodoList(ctx context.Context, listID int64) (*TodoList, error)
	LoadTodo(ctx context.Context, listID, todoID int64) (*Todo, error)

	SortedTodoLists(ctx context.Context) ([]TodoList, error)
	SortedTodos(ctx context.Context, list *TodoList) ([]Todo, error)
	ExistsTodoListTitle(ctx context.Context, title string) (bool, error)

	HasUndoneTodos(list *TodoList) bool
	IsDoneTodoList(list *TodoList) bool

	Authenticate(ctx context.Context, username, password string) (bool, error)
}
