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

// Package storage implements the Persistence Gateway and Block Repository:
// the single point of transactional access to the relational backend, and
// every CRUD/paginated/streaming/search operation built on top of it.
package storage

import "fmt"

// Dialect identifies the relational backend family a Gateway is talking
// to. Streaming, placeholder style, and schema DDL all vary by dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"   // mattn/go-sqlite3, cgo, file-backed
	DialectPostgres Dialect = "postgres" // lib/pq
	DialectMySQL    Dialect = "mysql"    // go-sql-driver/mysql
	DialectEmbedded Dialect = "embedded" // modernc.org/sqlite, pure Go, memory|file
)

// Capability describes what a Dialect supports, so the repository never
// branches on the dialect string directly outside this table.
type Capability struct {
	// SupportsServerCursor is true for backends whose driver exposes a
	// true forward-only server-side cursor (postgres, mysql). sqlite and
	// embedded are both SQLite-family and materialize whole result sets
	// client-side, so both are false here and streaming degrades to
	// manual keyset pagination (block_number > last ... LIMIT) for either.
	SupportsServerCursor bool
	// ParamPlaceholder renders the nth (1-based) bound parameter for this
	// dialect's query syntax.
	ParamPlaceholder func(n int) string
	// DDLForSchemaHistory returns the CREATE TABLE statement for the
	// opaque schema_version table this dialect's migration runner owns.
	DDLForSchemaHistory func() string
}

func questionMarkPlaceholder(int) string { return "?" }

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

var capabilities = map[Dialect]Capability{
	DialectSQLite: {
		SupportsServerCursor: false,
		ParamPlaceholder:     questionMarkPlaceholder,
		DDLForSchemaHistory:  sqliteSchemaVersionDDL,
	},
	DialectEmbedded: {
		SupportsServerCursor: false,
		ParamPlaceholder:     questionMarkPlaceholder,
		DDLForSchemaHistory:  sqliteSchemaVersionDDL,
	},
	DialectPostgres: {
		SupportsServerCursor: true,
		ParamPlaceholder:     dollarPlaceholder,
		DDLForSchemaHistory:  postgresSchemaVersionDDL,
	},
	DialectMySQL: {
		SupportsServerCursor: true,
		ParamPlaceholder:     questionMarkPlaceholder,
		DDLForSchemaHistory:  mysqlSchemaVersionDDL,
	},
}

// CapabilityFor returns the capability table entry for d. The zero value
// (all false/nil) is returned for an unrecognized dialect; callers that
// need to fail loudly should check recognized first.
func CapabilityFor(d Dialect) (Capability, bool) {
	c, ok := capabilities[d]
	return c, ok
}
