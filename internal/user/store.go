// Package user manages the accounts stored in the users table.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"todolists/internal/todo"
)

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrNotFound       = errors.New("user not found")
)

const uniqueViolationCode = "23505"

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	// 数据访问层封装
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, username, password string) (todo.User, error) {
	// 新建用户，用户名重复时返回 ErrUsernameExists
	hash, err := todo.HashPassword(password)
	if err != nil {
		return todo.User{}, err
	}

	var u todo.User
	err = s.db.GetContext(ctx, &u, `
		INSERT INTO users (username, password)
		VALUES ($1, $2)
		RETURNING username, password
	`, username, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return todo.User{}, ErrUsernameExists
		}
		return todo.User{}, fmt.Errorf("user: create: %w", err)
	}
	return u, nil
}

func (s *Store) SetPassword(ctx context.Context, username, password string) error {
	// 重置密码
	hash, err := todo.HashPassword(password)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $1 WHERE username = $2
	`, hash, username)
	if err != nil {
		return fmt.Errorf("user: set password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user: set password: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Usernames(ctx context.Context) ([]string, error) {
	// 按用户名排序列出
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT username FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	return names, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
