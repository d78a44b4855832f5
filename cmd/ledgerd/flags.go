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

package main

import "github.com/urfave/cli/v2"

var (
	dbTypeFlag = &cli.StringFlag{
		Name:     "db.type",
		Usage:    "backend dialect: sqlite, embedded, postgres, mysql",
		Category: "STORAGE",
		Value:    "embedded",
	}
	dbURLFlag = &cli.StringFlag{
		Name:     "db.url",
		Usage:    "database/sql data source name for the chosen dialect",
		Category: "STORAGE",
		Value:    "file::memory:",
	}
	dbUserFlag = &cli.StringFlag{
		Name:     "db.user",
		Usage:    "database username (postgres, mysql)",
		Category: "STORAGE",
	}
	dbPassFlag = &cli.StringFlag{
		Name:     "db.pass",
		Usage:    "database password (postgres, mysql)",
		Category: "STORAGE",
	}
	dataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "directory for signer-state and partial-export backups",
		Category: "STORAGE",
		Value:    "./ledgerd-data",
	}

	globalFlags = []cli.Flag{dbTypeFlag, dbURLFlag, dbUserFlag, dbPassFlag, dataDirFlag}
)

var (
	signerFlag = &cli.StringFlag{
		Name:     "signer",
		Usage:    "hex-encoded secp256k1 private key of the appending signer",
		Category: "APPEND",
	}
	dataFlag = &cli.StringFlag{
		Name:     "data",
		Usage:    "block payload",
		Category: "APPEND",
	}
	recipientFlag = &cli.StringFlag{
		Name:     "recipient",
		Usage:    "recipient public key this block is addressed to",
		Category: "APPEND",
	}
	passwordFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "non-empty encrypts the block payload at rest",
		Category: "APPEND",
	}
	manualKeywordsFlag = &cli.StringFlag{
		Name:     "manual-keywords",
		Category: "APPEND",
	}
	autoKeywordsFlag = &cli.StringFlag{
		Name:     "auto-keywords",
		Category: "APPEND",
	}
	searchableFlag = &cli.StringFlag{
		Name:     "searchable",
		Category: "APPEND",
	}
	categoryFlag = &cli.StringFlag{
		Name:     "category",
		Category: "APPEND",
	}
	metadataFlag = &cli.StringFlag{
		Name:     "metadata",
		Usage:    "custom metadata as a JSON object",
		Category: "APPEND",
	}
	offChainFlag = &cli.StringFlag{
		Name:     "offchain",
		Usage:    "off-chain payload stored in the companion table",
		Category: "APPEND",
	}

	numberFlag = &cli.Uint64Flag{
		Name:     "number",
		Usage:    "block number",
		Category: "LOOKUP",
	}
	hashFlag = &cli.StringFlag{
		Name:     "hash",
		Category: "LOOKUP",
	}
	targetFlag = &cli.Uint64Flag{
		Name:     "target",
		Usage:    "highest block number to keep",
		Category: "ROLLBACK",
	}
	pathFlag = &cli.StringFlag{
		Name:     "path",
		Usage:    "export/import file path",
		Category: "FILE",
	}
	ownerFlag = &cli.StringFlag{
		Name:     "owner",
		Usage:    "owner label to authorize (or, for recover, re-authorize) a signer key under",
		Category: "SIGNER",
	}
	publicKeyFlag = &cli.StringFlag{
		Name:     "public-key",
		Usage:    "hex-encoded serialized signer public key",
		Category: "SIGNER",
	}
	offsetFlag = &cli.Uint64Flag{
		Name:     "offset",
		Category: "PAGINATION",
	}
	limitFlag = &cli.UintFlag{
		Name:     "limit",
		Value:    20,
		Category: "PAGINATION",
	}
)
