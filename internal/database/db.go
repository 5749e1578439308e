// Package database opens the shared PostgreSQL pool.
//
// The pool is a pgxpool with query tracing wired to zerolog. Stores see it
// through database/sql and sqlx so they can scan straight into structs.
package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"todolists/internal/config"
	"todolists/internal/logger"
)

// Schema is the reference DDL for the users, todolists and todos tables.
//
//go:embed schema.sql
var Schema string

const pingTimeout = 5 * time.Second

type DB struct {
	*sqlx.DB
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open builds the pool from cfg and fails fast when the database is
// unreachable.
func Open(ctx context.Context, cfg config.DatabaseConfig, logCfg config.LogConfig, log zerolog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	var tracers []pgx.QueryTracer
	tracers = append(tracers, logger.NewQueryTracer(log))
	if logCfg.SlowQueryThreshold > 0 {
		tracers = append(tracers, &slowQueryTracer{threshold: logCfg.SlowQueryThreshold, log: log})
	}
	poolCfg.ConnConfig.Tracer = &multiTracer{tracers: tracers}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Int32("max_conns", cfg.MaxConns).Msg("database connected")

	return &DB{
		DB:   sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		Pool: pool,
		log:  log,
	}, nil
}

func (db *DB) Close() error {
	db.log.Info().Msg("closing database connection pool")
	err := db.DB.Close()
	db.Pool.Close()
	return err
}
