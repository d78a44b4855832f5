// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package storage

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/n42blockchain/blockledger/conf"
	"github.com/n42blockchain/blockledger/log"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

// driverNames maps a configured DatabaseType to the database/sql driver
// registered for it.
var driverNames = map[conf.DatabaseType]string{
	conf.DatabaseSqlite:   "sqlite3",
	conf.DatabaseEmbedded: "sqlite", // modernc.org/sqlite registers as "sqlite"
	conf.DatabasePostgres: "postgres",
	conf.DatabaseMySQL:    "mysql",
}

var dialectFor = map[conf.DatabaseType]Dialect{
	conf.DatabaseSqlite:   DialectSQLite,
	conf.DatabaseEmbedded: DialectEmbedded,
	conf.DatabasePostgres: DialectPostgres,
	conf.DatabaseMySQL:    DialectMySQL,
}

// Gateway is the Persistence Gateway: the single point of transactional
// access to the relational backend. It advertises the backend's Dialect
// and Capability and hands out Sessions, either fresh transactions or
// ad-hoc non-transactional handles.
type Gateway struct {
	db      *sql.DB
	dialect Dialect
	cap     Capability
}

// Open connects to the backend described by cfg, applies schema DDL, and
// returns a ready Gateway. The caller owns the returned Gateway's
// lifetime and must call Close.
func Open(ctx context.Context, cfg conf.DatabaseConfig) (*Gateway, error) {
	dialect, ok := dialectFor[cfg.DatabaseType]
	if !ok {
		return nil, lerrors.WithKind(lerrors.KindUnsupported, nil, "storage: unknown database type "+string(cfg.DatabaseType))
	}
	capability, ok := CapabilityFor(dialect)
	if !ok {
		return nil, lerrors.WithKind(lerrors.KindUnsupported, nil, "storage: no capability table for dialect "+string(dialect))
	}

	db, err := sql.Open(driverNames[cfg.DatabaseType], cfg.DatabaseURL)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: open database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: ping database")
	}

	g := &Gateway{db: db, dialect: dialect, cap: capability}
	if err := g.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Persistence Gateway opened", "dialect", string(dialect))
	return g, nil
}

// migrate applies this dialect's DDL so a fresh database is usable
// without the external migration runner. It is a bootstrap convenience,
// idempotent via IF NOT EXISTS everywhere except MySQL's CREATE INDEX,
// which has no such clause; running against an already-migrated MySQL
// database is the external migration runner's job.
func (g *Gateway) migrate(ctx context.Context) error {
	stmts := ddlFor(g.dialect)
	stmts = append(stmts, g.cap.DDLForSchemaHistory())
	for _, stmt := range stmts {
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: apply schema DDL")
		}
	}
	return nil
}

// Dialect reports the backend family this Gateway was opened against.
func (g *Gateway) Dialect() Dialect { return g.dialect }

// Capability reports the streaming/placeholder/DDL capability of this
// Gateway's dialect.
func (g *Gateway) Capability() Capability { return g.cap }

// Close releases the underlying connection pool.
func (g *Gateway) Close() error { return g.db.Close() }

// querier is the subset of *sql.DB and *sql.Tx the repository needs;
// every repository method is written against this, never against the
// concrete type, so it transparently reuses an outer transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Session is a scoped handle to either a fresh transaction (InTransaction
// true) or the ad-hoc connection pool (InTransaction false). A nested
// repository call that already holds a Session must never open, commit,
// or roll back its own transaction; it reuses this one.
type Session struct {
	gateway *Gateway
	tx      *sql.Tx
}

// BeginSession opens a fresh transaction. The caller must Commit or
// Rollback on every exit path; a deferred Rollback after a successful
// Commit is a documented no-op on *sql.Tx.
func (g *Gateway) BeginSession(ctx context.Context) (*Session, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: begin transaction")
	}
	return &Session{gateway: g, tx: tx}, nil
}

// AdHocSession returns a non-transactional Session backed directly by the
// connection pool, safe for standalone reads outside any transaction.
func (g *Gateway) AdHocSession() *Session {
	return &Session{gateway: g}
}

// InTransaction reports whether this Session wraps an active transaction.
func (s *Session) InTransaction() bool { return s.tx != nil }

// Commit commits the wrapped transaction. A no-op on an ad-hoc Session.
func (s *Session) Commit() error {
	if s.tx == nil {
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: commit transaction")
	}
	return nil
}

// Rollback rolls back the wrapped transaction. A no-op on an ad-hoc
// Session, and safe to call after a successful Commit.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: rollback transaction")
	}
	return nil
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.gateway.db
}

func (s *Session) dialect() Dialect { return s.gateway.dialect }

func (s *Session) capability() Capability { return s.gateway.cap }

func (s *Session) placeholder(n int) string { return s.gateway.cap.ParamPlaceholder(n) }
