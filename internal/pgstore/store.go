// Package pgstore is the PostgreSQL-backed todo.Store. Every query is scoped
// to the username the store was created for.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"todolists/internal/todo"
)

const uniqueViolationCode = "23505"

type Store struct {
	db       *sqlx.DB
	username string
}

var _ todo.Store = (*Store)(nil)

func New(db *sqlx.DB, username string) *Store {
	return &Store{db: db, username: username}
}

// exec runs a single statement and reports whether it touched any row.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("pgstore: %s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgstore: %s: %w", op, err)
	}
	return affected > 0, nil
}

// snapshot runs fn inside a read-only repeatable-read transaction so that
// multi-statement reads see one consistent state.
func (s *Store) snapshot(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) CreateTodoList(ctx context.Context, title string) (bool, error) {
	ok, err := s.exec(ctx, "create todo list", `
		INSERT INTO todolists (title, username)
		VALUES ($1, $2)
	`, title, s.username)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// CreateTodo inserts only when the list exists and belongs to the user.
func (s *Store) CreateTodo(ctx context.Context, listID int64, title string) (bool, error) {
	return s.exec(ctx, "create todo", `
		INSERT INTO todos (todolist_id, title, username)
		SELECT id, $2::text, username
		FROM todolists
		WHERE id = $1 AND username = $3
	`, listID, title, s.username)
}

func (s *Store) DeleteTodoList(ctx context.Context, listID int64) (bool, error) {
	return s.exec(ctx, "delete todo list", `
		DELETE FROM todolists
		WHERE id = $1 AND username = $2
	`, listID, s.username)
}

func (s *Store) DeleteTodo(ctx context.Context, listID, todoID int64) (bool, error) {
	return s.exec(ctx, "delete todo", `
		DELETE FROM todos
		WHERE todolist_id = $1 AND id = $2 AND username = $3
	`, listID, todoID, s.username)
}

func (s *Store) ToggleDoneTodo(ctx context.Context, listID, todoID int64) (bool, error) {
	return s.exec(ctx, "toggle todo", `
		UPDATE todos SET done = NOT done
		WHERE todolist_id = $1 AND id = $2 AND username = $3
	`, listID, todoID, s.username)
}

// CompleteAllTodos reports false when the list is unknown or has no todos.
func (s *Store) CompleteAllTodos(ctx context.Context, listID int64) (bool, error) {
	return s.exec(ctx, "complete all todos", `
		UPDATE todos SET done = TRUE
		WHERE todolist_id = $1 AND username = $2
	`, listID, s.username)
}

// SetTodoListTitle reports false when the list is unknown or another list
// already has the title.
func (s *Store) SetTodoListTitle(ctx context.Context, listID int64, title string) (bool, error) {
	ok, err := s.exec(ctx, "set todo list title", `
		UPDATE todolists SET title = $2
		WHERE id = $1 AND username = $3
	`, listID, title, s.username)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (s *Store) ExistsTodoListTitle(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM todolists
			WHERE title = $1 AND username = $2
		)
	`, title, s.username)
	if err != nil {
		return false, fmt.Errorf("pgstore: exists todo list title: %w", err)
	}
	return exists, nil
}

func (s *Store) LoadTodoList(ctx context.Context, listID int64) (*todo.TodoList, error) {
	var list todo.TodoList
	found := true

	err := s.snapshot(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &list, `
			SELECT id, title
			FROM todolists
			WHERE id = $1 AND username = $2
		`, listID, s.username)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}

		list.Todos = []todo.Todo{}
		return tx.SelectContext(ctx, &list.Todos, `
			SELECT id, todolist_id, title, done
			FROM todos
			WHERE todolist_id = $1 AND username = $2
			ORDER BY id
		`, listID, s.username)
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: load todo list: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &list, nil
}

func (s *Store) LoadTodo(ctx context.Context, listID, todoID int64) (*todo.Todo, error) {
	var t todo.Todo
	err := s.db.GetContext(ctx, &t, `
		SELECT id, todolist_id, title, done
		FROM todos
		WHERE todolist_id = $1 AND id = $2 AND username = $3
	`, listID, todoID, s.username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgstore: load todo: %w", err)
	}
	return &t, nil
}

// SortedTodoLists returns every list with its todos, undone lists first and
// each group ordered by case-insensitive title.
func (s *Store) SortedTodoLists(ctx context.Context) ([]todo.TodoList, error) {
	var lists []todo.TodoList
	var todos []todo.Todo

	err := s.snapshot(ctx, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &lists, `
			SELECT id, title
			FROM todolists
			WHERE username = $1
			ORDER BY lower(title) ASC
		`, s.username); err != nil {
			return err
		}
		return tx.SelectContext(ctx, &todos, `
			SELECT id, todolist_id, title, done
			FROM todos
			WHERE username = $1
			ORDER BY id
		`, s.username)
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: sorted todo lists: %w", err)
	}

	byList := make(map[int64][]todo.Todo, len(lists))
	for _, t := range todos {
		byList[t.ListID] = append(byList[t.ListID], t)
	}
	for i := range lists {
		lists[i].Todos = byList[lists[i].ID]
		if lists[i].Todos == nil {
			lists[i].Todos = []todo.Todo{}
		}
	}

	return todo.PartitionTodoLists(lists), nil
}

func (s *Store) SortedTodos(ctx context.Context, list *todo.TodoList) ([]todo.Todo, error) {
	if list == nil {
		return nil, nil
	}

	todos := []todo.Todo{}
	err := s.db.SelectContext(ctx, &todos, `
		SELECT id, todolist_id, title, done
		FROM todos
		WHERE todolist_id = $1 AND username = $2
		ORDER BY done ASC, lower(title) ASC
	`, list.ID, s.username)
	if err != nil {
		return nil, fmt.Errorf("pgstore: sorted todos: %w", err)
	}
	return todos, nil
}

func (s *Store) HasUndoneTodos(list *todo.TodoList) bool {
	return list.HasUndone()
}

func (s *Store) IsDoneTodoList(list *todo.TodoList) bool {
	return list.IsDone()
}

// Authenticate is not scoped to the store's username; an unknown username
// is a plain failure.
func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var hash string
	err := s.db.GetContext(ctx, &hash, `
		SELECT password FROM users WHERE username = $1
	`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("pgstore: authenticate: %w", err)
	}
	return todo.CheckPassword(hash, password)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
