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

package recovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/n42blockchain/blockledger/chain"
	"github.com/n42blockchain/blockledger/common/crypto"
	"github.com/n42blockchain/blockledger/common/types"
	"github.com/n42blockchain/blockledger/conf"
	"github.com/n42blockchain/blockledger/password"
	"github.com/n42blockchain/blockledger/storage"
)

// newTestService builds a Service over a fresh in-memory embedded
// database with a single signer ("alice") pre-authorized, and appends a
// 3-block chain: genesis (unsigned) plus 2 blocks signed by that key.
func newTestService(t *testing.T) (*chain.Service, *chain.AuthorizedSigners, *btcec.PrivateKey) {
	t.Helper()
	ctx := context.Background()

	url := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gateway, err := storage.Open(ctx, conf.DatabaseConfig{
		DatabaseType: conf.DatabaseEmbedded,
		DatabaseURL:  url,
	})
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { gateway.Close() })

	repo, err := storage.NewRepository(gateway)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	signers := chain.NewAuthorizedSigners()
	passwords, err := password.New()
	if err != nil {
		t.Fatalf("password.New: %v", err)
	}

	key, err := crypto.GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	signers.Authorize(types.NewPublicKey(key.PubKey()).Serialize(), "alice")

	svc := chain.NewService(gateway, repo, signers, passwords)

	if _, _, err := svc.Append(ctx, chain.AppendRequest{Data: "genesis"}); err != nil {
		t.Fatalf("append genesis: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := svc.Append(ctx, chain.AppendRequest{SignerKey: key, Data: fmt.Sprintf("payload-%d", i)}); err != nil {
			t.Fatalf("append block %d: %v", i, err)
		}
	}

	valid, err := svc.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("expected freshly built chain to validate")
	}

	return svc, signers, key
}

func TestRecoverReAuthorizationRestoresValidity(t *testing.T) {
	ctx := context.Background()
	svc, signers, key := newTestService(t)
	publicKey := types.NewPublicKey(key.PubKey()).Serialize()

	signers.Revoke(publicKey)
	valid, err := svc.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Fatal("expected chain to be invalid once its signer is revoked")
	}

	mgr := NewManager(svc, signers, t.TempDir())
	result := mgr.Recover(ctx, publicKey, "alice")
	if !result.Success || result.Method != MethodReAuthorization {
		t.Fatalf("expected successful re-authorization, got %+v", result)
	}

	valid, err = svc.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate after recovery: %v", err)
	}
	if !valid {
		t.Fatal("expected chain to validate again after re-authorization")
	}
	t.Log("✓ recovery re-authorizes a revoked signer and restores chain validity")
}

func TestRecoverRollsBackWhenReAuthorizationRefused(t *testing.T) {
	ctx := context.Background()
	svc, signers, key := newTestService(t)
	publicKey := types.NewPublicKey(key.PubKey()).Serialize()

	signers.Revoke(publicKey)

	// newTestService's chain is genesis (unsigned) plus two blocks
	// signed by the now-revoked key, so with strategy 1 refused the
	// only safe rollback target is block 0.
	mgr := NewManager(svc, signers, t.TempDir())
	mgr.ReauthorizePolicy = func(string) bool { return false }

	result := mgr.Recover(ctx, publicKey, "alice")
	if !result.Success || result.Method != MethodRollback {
		t.Fatalf("expected successful rollback, got %+v", result)
	}

	count, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after rollback = %d, want 1", count)
	}
	last, err := svc.LastBlock(ctx)
	if err != nil {
		t.Fatalf("LastBlock: %v", err)
	}
	if last == nil || last.BlockNumber != 0 {
		t.Fatalf("last block after rollback = %+v, want block 0", last)
	}

	valid, err := svc.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate after rollback: %v", err)
	}
	if !valid {
		t.Fatal("expected chain to validate after rolling back to genesis")
	}
	t.Log("✓ with re-authorization refused, recovery rolls back to block 0 and restores validity")
}

func TestRecoverRejectsStillAuthorizedKey(t *testing.T) {
	ctx := context.Background()
	svc, signers, key := newTestService(t)
	publicKey := types.NewPublicKey(key.PubKey()).Serialize()

	mgr := NewManager(svc, signers, t.TempDir())
	result := mgr.Recover(ctx, publicKey, "alice")
	if result.Success || result.Method != MethodValidationError {
		t.Fatalf("expected validation-error rejection for a still-authorized key, got %+v", result)
	}
	t.Log("✓ recovery refuses to run against a key that is still authorized")
}

func TestRecoverRejectsValidChainWithUnimplicatedKey(t *testing.T) {
	ctx := context.Background()
	svc, signers, key := newTestService(t)
	publicKey := types.NewPublicKey(key.PubKey()).Serialize()

	otherKey, err := crypto.GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	signers.Authorize(types.NewPublicKey(otherKey.PubKey()).Serialize(), "bob")
	signers.Revoke(types.NewPublicKey(otherKey.PubKey()).Serialize())

	// The chain is still fully valid (its only signer, alice's key, is
	// still authorized); bob's key was never used to sign anything.
	mgr := NewManager(svc, signers, t.TempDir())
	result := mgr.Recover(ctx, types.NewPublicKey(otherKey.PubKey()).Serialize(), "bob")
	if result.Success || result.Method != MethodValidationError {
		t.Fatalf("expected validation-error rejection, got %+v", result)
	}
	_ = publicKey
	t.Log("✓ recovery refuses to run when the chain is valid and the key is not implicated")
}
