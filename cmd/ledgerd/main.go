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

// Command ledgerd is a thin operator CLI over the block ledger's public
// API: append, inspect, validate, roll back, export/import, encrypt, and
// recover. It is intentionally small: no RPC server and no web UI.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/blockledger/params"
)

const usageText = `ledgerd [global options] command [command options]

Quick start:
  ledgerd --db.url ./ledger.db keygen
  ledgerd --db.url ./ledger.db append --signer <hex> --data "hello"
  ledgerd --db.url ./ledger.db count
  ledgerd --db.url ./ledger.db validate

See 'ledgerd <command> --help' for command-specific options.`

func main() {
	app := &cli.App{
		Name:                   "ledgerd",
		Usage:                  "authenticated relational block ledger",
		UsageText:              usageText,
		Version:                params.Version,
		Flags:                  globalFlags,
		Commands:               commands,
		UseShortOptionHandling: true,
		Copyright:              "Copyright 2022-2026 The N42 Authors",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
