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

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/blockledger/chain"
	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/common/crypto"
	"github.com/n42blockchain/blockledger/common/types"
	"github.com/n42blockchain/blockledger/recovery"
	"github.com/n42blockchain/blockledger/storage"
)

var commands = []*cli.Command{
	{
		Name:  "keygen",
		Usage: "generate a fresh secp256k1 signer key pair",
		Action: func(c *cli.Context) error {
			priv, err := crypto.GenerateSignerKey()
			if err != nil {
				return err
			}
			pub := types.NewPublicKey(priv.PubKey())
			fmt.Println("private:", hex.EncodeToString(priv.Serialize()))
			fmt.Println("public: ", pub.Serialize())
			return nil
		},
	},
	{
		Name:  "authorize",
		Usage: "authorize a signer public key under an owner label",
		Flags: []cli.Flag{publicKeyFlag, ownerFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			if c.String(publicKeyFlag.Name) == "" || c.String(ownerFlag.Name) == "" {
				return errors.New("--public-key and --owner are required")
			}
			env.signers.Authorize(c.String(publicKeyFlag.Name), c.String(ownerFlag.Name))
			return env.saveSigners()
		},
	},
	{
		Name:  "revoke",
		Usage: "revoke a signer public key, leaving already-written blocks untouched",
		Flags: []cli.Flag{publicKeyFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			if c.String(publicKeyFlag.Name) == "" {
				return errors.New("--public-key is required")
			}
			env.signers.Revoke(c.String(publicKeyFlag.Name))
			return env.saveSigners()
		},
	},
	{
		Name:  "append",
		Usage: "append a new block to the chain",
		Flags: []cli.Flag{signerFlag, dataFlag, recipientFlag, passwordFlag, manualKeywordsFlag, autoKeywordsFlag, searchableFlag, categoryFlag, metadataFlag, offChainFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()

			req := chain.AppendRequest{
				Data:               c.String(dataFlag.Name),
				RecipientPublicKey: c.String(recipientFlag.Name),
				Password:           c.String(passwordFlag.Name),
				ManualKeywords:     c.String(manualKeywordsFlag.Name),
				AutoKeywords:       c.String(autoKeywordsFlag.Name),
				SearchableContent:  c.String(searchableFlag.Name),
				ContentCategory:    c.String(categoryFlag.Name),
				CustomMetadata:     c.String(metadataFlag.Name),
				OffChainPayload:    c.String(offChainFlag.Name),
			}
			if signerHex := c.String(signerFlag.Name); signerHex != "" {
				key, err := parsePrivateKey(signerHex)
				if err != nil {
					return err
				}
				req.SignerKey = key
			}

			b, outcome, err := env.service.Append(c.Context, req)
			if err != nil {
				return fmt.Errorf("append (%s): %w", outcome, err)
			}
			fmt.Printf("appended block %d hash=%s\n", b.BlockNumber, b.Hash)
			return nil
		},
	},
	{
		Name:  "get",
		Usage: "fetch a block by number, optionally decrypting with --password",
		Flags: []cli.Flag{numberFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()

			number := c.Uint64(numberFlag.Name)
			var b *block.Block
			if pw := c.String(passwordFlag.Name); pw != "" {
				got, err := env.service.ByNumberWithPassword(c.Context, number, pw)
				if err != nil {
					return err
				}
				if got == nil {
					fmt.Println("no access: wrong password or block not found")
					return nil
				}
				b = got
			} else {
				got, err := env.repo.ByNumber(c.Context, env.gateway.AdHocSession(), number)
				if err != nil {
					return err
				}
				if got == nil {
					fmt.Println("not found")
					return nil
				}
				b = got
			}
			printBlock(b)
			return nil
		},
	},
	{
		Name:  "find-by-hash",
		Usage: "fetch a block by its content hash",
		Flags: []cli.Flag{hashFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()

			b, err := env.repo.ByHash(c.Context, env.gateway.AdHocSession(), c.String(hashFlag.Name))
			if err != nil {
				return err
			}
			if b == nil {
				fmt.Println("not found")
				return nil
			}
			printBlock(b)
			return nil
		},
	},
	{
		Name:  "list",
		Usage: "page through the chain in blockNumber order",
		Flags: []cli.Flag{offsetFlag, limitFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()

			blocks, err := env.repo.Paginated(c.Context, env.gateway.AdHocSession(), storage.Filter{},
				c.Uint64(offsetFlag.Name), uint32(c.Uint(limitFlag.Name)))
			if err != nil {
				return err
			}
			for _, b := range blocks {
				fmt.Printf("%d %s signer=%s\n", b.BlockNumber, b.Hash, b.SignerPublicKey)
			}
			return nil
		},
	},
	{
		Name:  "count",
		Usage: "report the number of blocks in the chain",
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			var n uint64
			if err := env.service.WithReadLock(func() error {
				var err error
				n, err = env.service.Count(c.Context)
				return err
			}); err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	},
	{
		Name:  "validate",
		Usage: "walk the whole chain and report detailed validity",
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			report, err := env.service.ValidateDetailed(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("structurallyIntact=%v fullyCompliant=%v\n", report.StructurallyIntact, report.FullyCompliant)
			if report.FirstDivergentBlock != nil {
				fmt.Println("firstDivergentBlock:", *report.FirstDivergentBlock)
			}
			for _, k := range report.OffendingSigners {
				fmt.Println("offendingSigner:", k)
			}
			return nil
		},
	},
	{
		Name:  "rollback",
		Usage: "delete every block past --target",
		Flags: []cli.Flag{targetFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			return env.service.RollbackTo(c.Context, c.Uint64(targetFlag.Name))
		},
	},
	{
		Name:  "export",
		Usage: "write the entire chain to --path as JSON",
		Flags: []cli.Flag{pathFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			return env.service.Export(c.Context, c.String(pathFlag.Name))
		},
	},
	{
		Name:  "import",
		Usage: "replace the chain atomically from --path, verifying every invariant first",
		Flags: []cli.Flag{pathFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			return env.service.Import(c.Context, c.String(pathFlag.Name))
		},
	},
	{
		Name:  "encrypt",
		Usage: "encrypt an existing block in place, leaving hash and data byte-identical",
		Flags: []cli.Flag{numberFlag, passwordFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			return env.service.EncryptExisting(c.Context, c.Uint64(numberFlag.Name), c.String(passwordFlag.Name))
		},
	},
	{
		Name:  "schema-version",
		Usage: "report the installed schema version recorded by the migration runner",
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()
			v, ok, err := env.repo.SchemaVersion(c.Context, env.gateway.AdHocSession())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no schema version recorded")
				return nil
			}
			fmt.Println(v)
			return nil
		},
	},
	{
		Name:  "recover",
		Usage: "run the re-authorize -> rollback -> partial-export recovery ladder for a revoked signer",
		Flags: []cli.Flag{publicKeyFlag, ownerFlag},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c)
			if err != nil {
				return err
			}
			defer env.Close()

			mgr := recovery.NewManager(env.service, env.signers, env.dataDir())
			result := mgr.Recover(c.Context, c.String(publicKeyFlag.Name), c.String(ownerFlag.Name))
			fmt.Printf("success=%v method=%s message=%s\n", result.Success, result.Method, result.Message)
			return env.saveSigners()
		},
	},
}
