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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/blockledger/chain"
	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/conf"
	"github.com/n42blockchain/blockledger/log"
	"github.com/n42blockchain/blockledger/password"
	"github.com/n42blockchain/blockledger/storage"
)

// env bundles the wiring every command needs: the Persistence Gateway,
// the Repository sitting on top of it, the process-local signer and
// password registries, and the Chain Service that owns the write lock.
type env struct {
	gateway   *storage.Gateway
	repo      *storage.Repository
	signers   *chain.AuthorizedSigners
	passwords *password.Registry
	service   *chain.Service
	dir       string
}

// openEnv wires an env from the global flags on c: opens the Persistence
// Gateway for the configured dialect, restores the signer-authorization
// sidecar file from datadir (the registry itself is in-memory only),
// and initializes logging.
func openEnv(c *cli.Context) (*env, error) {
	dir := c.String(dataDirFlag.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create datadir: %w", err)
	}

	log.Init(conf.NodeConfig{DataDir: dir}, conf.DefaultLoggerConfig())

	cfg := conf.DatabaseConfig{
		DatabaseType: conf.DatabaseType(c.String(dbTypeFlag.Name)),
		DatabaseURL:  c.String(dbURLFlag.Name),
		Username:     c.String(dbUserFlag.Name),
		Password:     c.String(dbPassFlag.Name),
	}

	gateway, err := storage.Open(c.Context, cfg)
	if err != nil {
		return nil, err
	}

	repo, err := storage.NewRepository(gateway)
	if err != nil {
		gateway.Close()
		return nil, err
	}

	passwords, err := password.New()
	if err != nil {
		gateway.Close()
		return nil, err
	}

	signers := chain.NewAuthorizedSigners()
	e := &env{gateway: gateway, repo: repo, signers: signers, passwords: passwords, dir: dir}
	if err := e.loadSigners(); err != nil {
		gateway.Close()
		return nil, err
	}

	e.service = chain.NewService(gateway, repo, signers, passwords)
	return e, nil
}

// Close releases the Gateway's connection pool and shuts the password
// registry down, zeroing its master key.
func (e *env) Close() {
	e.passwords.Shutdown()
	e.gateway.Close()
}

// dataDir is the directory partial-export backups from the Recovery
// Manager are written under.
func (e *env) dataDir() string { return e.dir }

func (e *env) signersPath() string { return filepath.Join(e.dir, "signers.json") }

// loadSigners restores a Snapshot written by a previous process, if one
// exists. A missing file means no signer has ever been authorized yet.
func (e *env) loadSigners() error {
	data, err := os.ReadFile(e.signersPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read signer state: %w", err)
	}
	var states []chain.SignerState
	if err := json.Unmarshal(data, &states); err != nil {
		return fmt.Errorf("parse signer state: %w", err)
	}
	e.signers.Restore(states)
	return nil
}

// saveSigners persists the registry's current Snapshot so the next
// invocation of ledgerd sees the same authorized/revoked keys.
func (e *env) saveSigners() error {
	data, err := json.MarshalIndent(e.signers.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(e.signersPath(), data, 0o600)
}

// parsePrivateKey decodes a hex-encoded secp256k1 private key, the form
// keygen prints and --signer expects.
func parsePrivateKey(s string) (*btcec.PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode signer key: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("signer key must be 32 bytes, got %d", len(b))
	}
	key, _ := btcec.PrivKeyFromBytes(b)
	return key, nil
}

// printBlock renders a block's fields for operator inspection.
func printBlock(b *block.Block) {
	fmt.Printf("blockNumber:        %d\n", b.BlockNumber)
	fmt.Printf("previousHash:       %s\n", b.PreviousHash)
	fmt.Printf("timestamp:          %s\n", b.Timestamp)
	fmt.Printf("data:               %s\n", b.Data)
	fmt.Printf("signerPublicKey:    %s\n", b.SignerPublicKey)
	fmt.Printf("recipientPublicKey: %s\n", b.RecipientPublicKey)
	fmt.Printf("isEncrypted:        %v\n", b.IsEncrypted)
	fmt.Printf("hash:               %s\n", b.Hash)
	fmt.Printf("signature:          %s\n", b.Signature)
	fmt.Printf("contentCategory:    %s\n", b.ContentCategory)
	if b.OffChainData != nil {
		fmt.Printf("offChainData:       %s\n", b.OffChainData.Payload)
	}
}
