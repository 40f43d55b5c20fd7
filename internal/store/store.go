// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/haldorsen/archivist/internal/pipelineerr"
)

// Store is the relational store gateway: a pgxpool.Pool for
// high-concurrency typed operations (Indexer upserts, analytical
// read-only transactions) and an sqlx.DB for single-transaction
// multi-row group writes (DuplicateGroup+Members, VersionChain+Members),
// matching the split documented in DESIGN.md.
type Store struct {
	Pool   *pgxpool.Pool
	sqlxDB *sqlx.DB
	logger *slog.Logger
}

// Open connects both the pgxpool and sqlx handles against dsn, sizing the
// pool to roughly W_cpu + W_net + 2 (enforced by config.Validate).
func Open(ctx context.Context, dsn string, poolSize int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, pipelineerr.New(pipelineerr.KindStore, "store.parse_dsn", err)
	}
	poolCfg.MaxConns = int32(poolSize)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, pipelineerr.New(pipelineerr.KindStore, "store.open_pool", err)
	}

	sqlxDB, err := sqlx.Open("postgres", dsn)
	if err != nil {
		pool.Close()
		return nil, pipelineerr.New(pipelineerr.KindStore, "store.open_sqlx", err)
	}
	sqlxDB.SetMaxOpenConns(poolSize)

	return &Store{Pool: pool, sqlxDB: sqlxDB, logger: logger}, nil
}

// Close releases both underlying connection handles.
func (s *Store) Close() {
	s.Pool.Close()
	_ = s.sqlxDB.Close()
}

// Ping verifies connectivity on both handles, surfacing a store error if
// either is unreachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.Pool.Ping(ctx); err != nil {
		return pipelineerr.New(pipelineerr.KindStore, "store.ping_pool", err)
	}
	if err := s.sqlxDB.PingContext(ctx); err != nil {
		return pipelineerr.New(pipelineerr.KindStore, "store.ping_sqlx", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return pipelineerr.New(pipelineerr.KindStore, op, err)
}

func notFound(op, what string) error {
	return pipelineerr.New(pipelineerr.KindStore, op, fmt.Errorf("%s not found", what))
}
