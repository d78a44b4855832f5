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

package conf

// NodeConfig carries the handful of process-wide paths the log package
// needs. Full configuration loading/merging from files, env and CLI flags
// is an external collaborator; the core only ever reads DataDir.
type NodeConfig struct {
	// DataDir is the root directory under which "log/" is created.
	DataDir string
}

// DatabaseType identifies which relational backend a DatabaseConfig
// describes.
type DatabaseType string

const (
	DatabaseSqlite   DatabaseType = "sqlite"
	DatabasePostgres DatabaseType = "postgres"
	DatabaseMySQL    DatabaseType = "mysql"
	DatabaseEmbedded DatabaseType = "embedded"
)

// DatabaseConfig is consumed, not owned: the storage package reads only
// DatabaseType, DatabaseURL, Username and Password. Assembling this value
// from files/env/CLI is the external collaborator's job.
type DatabaseConfig struct {
	DatabaseType DatabaseType `json:"database_type" yaml:"database_type"`
	DatabaseURL  string       `json:"database_url" yaml:"database_url"`
	Username     string       `json:"username" yaml:"username"`
	Password     string       `json:"password" yaml:"password"`
}
