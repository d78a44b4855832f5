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

// DDL for the `block` table and its indexes. block_number is the primary
// key; signer_public_key, recipient_public_key, is_encrypted,
// content_category and the timestamp column carry secondary indexes.
const blockTableColumns = `
	block_number          BIGINT PRIMARY KEY,
	previous_hash         TEXT NOT NULL,
	ts                     BIGINT NOT NULL,
	data                   TEXT NOT NULL,
	signer_public_key      TEXT NOT NULL,
	recipient_public_key   TEXT,
	is_encrypted           BOOLEAN NOT NULL DEFAULT FALSE,
	encryption_metadata    TEXT,
	hash                   TEXT NOT NULL,
	signature              TEXT NOT NULL,
	manual_keywords        TEXT,
	auto_keywords          TEXT,
	searchable_content     TEXT,
	content_category       TEXT,
	custom_metadata        TEXT
`

func sqliteDDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS block (` + blockTableColumns + `)`,
		`CREATE INDEX IF NOT EXISTS idx_block_signer ON block(signer_public_key)`,
		`CREATE INDEX IF NOT EXISTS idx_block_recipient ON block(recipient_public_key)`,
		`CREATE INDEX IF NOT EXISTS idx_block_encrypted ON block(is_encrypted)`,
		`CREATE INDEX IF NOT EXISTS idx_block_category ON block(content_category)`,
		`CREATE INDEX IF NOT EXISTS idx_block_ts ON block(ts)`,
		`CREATE TABLE IF NOT EXISTS block_offchain (
			block_number BIGINT PRIMARY KEY,
			payload TEXT NOT NULL,
			FOREIGN KEY(block_number) REFERENCES block(block_number)
		)`,
	}
}

func postgresDDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS block (` + blockTableColumns + `)`,
		`CREATE INDEX IF NOT EXISTS idx_block_signer ON block(signer_public_key)`,
		`CREATE INDEX IF NOT EXISTS idx_block_recipient ON block(recipient_public_key)`,
		`CREATE INDEX IF NOT EXISTS idx_block_encrypted ON block(is_encrypted)`,
		`CREATE INDEX IF NOT EXISTS idx_block_category ON block(content_category)`,
		`CREATE INDEX IF NOT EXISTS idx_block_ts ON block(ts)`,
		`CREATE TABLE IF NOT EXISTS block_offchain (
			block_number BIGINT PRIMARY KEY REFERENCES block(block_number),
			payload TEXT NOT NULL
		)`,
	}
}

func mysqlDDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS block (` + blockTableColumns + `)`,
		`CREATE INDEX idx_block_signer ON block(signer_public_key(191))`,
		`CREATE INDEX idx_block_recipient ON block(recipient_public_key(191))`,
		`CREATE INDEX idx_block_encrypted ON block(is_encrypted)`,
		`CREATE INDEX idx_block_category ON block(content_category(191))`,
		`CREATE INDEX idx_block_ts ON block(ts)`,
		`CREATE TABLE IF NOT EXISTS block_offchain (
			block_number BIGINT PRIMARY KEY,
			payload TEXT NOT NULL,
			FOREIGN KEY(block_number) REFERENCES block(block_number)
		)`,
	}
}

// sqliteSchemaVersionDDL, postgresSchemaVersionDDL and mysqlSchemaVersionDDL
// create the schema_version table the out-of-scope migration runner owns;
// the core creates it if absent and reads only its highest version
// (Repository.SchemaVersion), never writing its rows.
func sqliteSchemaVersionDDL() string {
	return `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at BIGINT NOT NULL)`
}

func postgresSchemaVersionDDL() string {
	return `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at BIGINT NOT NULL)`
}

func mysqlSchemaVersionDDL() string {
	return `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at BIGINT NOT NULL)`
}

// ddlFor returns the statements to create the block and block_offchain
// tables for d, in execution order.
func ddlFor(d Dialect) []string {
	switch d {
	case DialectSQLite, DialectEmbedded:
		return sqliteDDL()
	case DialectPostgres:
		return postgresDDL()
	case DialectMySQL:
		return mysqlDDL()
	default:
		return nil
	}
}
