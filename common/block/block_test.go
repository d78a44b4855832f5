// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package block

import (
	"testing"
	"time"

	"github.com/n42blockchain/blockledger/common/crypto"
	"github.com/n42blockchain/blockledger/common/types"
)

func signedBlock(t *testing.T, number uint64, previousHash, data string) *Block {
	t.Helper()
	pk, err := crypto.GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	pub := types.NewPublicKey(pk.PubKey())

	b := &Block{
		BlockNumber:     number,
		PreviousHash:    previousHash,
		Timestamp:       time.Now(),
		Data:            data,
		SignerPublicKey: pub.Serialize(),
	}
	b.Hash = b.ComputeHash()
	b.Signature = crypto.Sign(pk, b.CanonicalContent())
	return b
}

func TestGenesisBlockShape(t *testing.T) {
	b := &Block{
		BlockNumber:     0,
		PreviousHash:    GenesisPreviousHash,
		Timestamp:       time.Now(),
		Data:            "hello",
		SignerPublicKey: types.GenesisSigner,
	}
	b.Hash = b.ComputeHash()

	if !b.IsGenesis() || !b.IsValidGenesisShape() {
		t.Fatal("genesis block failed shape checks")
	}
	if !b.VerifiesSignature() {
		t.Fatal("GENESIS signer should always verify")
	}
	if !b.ExtendsPrevious(nil) {
		t.Fatal("genesis should extend a nil predecessor")
	}
	t.Log("✓ genesis block satisfies its shape and signature exemption")
}

func TestSignedBlockVerifies(t *testing.T) {
	b := signedBlock(t, 0, GenesisPreviousHash, "hello")

	if !b.VerifiesHash() {
		t.Fatal("block does not verify its own hash")
	}
	if !b.VerifiesSignature() {
		t.Fatal("block does not verify its own signature")
	}
	t.Log("✓ signed block verifies both hash and signature")
}

func TestChainExtension(t *testing.T) {
	genesis := signedBlock(t, 0, GenesisPreviousHash, "hello")
	next := &Block{
		BlockNumber:     1,
		PreviousHash:    genesis.Hash,
		Timestamp:       time.Now(),
		Data:            "world",
		SignerPublicKey: genesis.SignerPublicKey,
	}
	next.Hash = next.ComputeHash()

	if !next.ExtendsPrevious(genesis) {
		t.Fatal("block 1 does not extend genesis")
	}
	if !next.IsStructurallyIntact(genesis) {
		t.Fatal("block 1 is not structurally intact relative to genesis")
	}
	t.Log("✓ chain extension invariants hold across two blocks")
}

func TestTamperedHashFailsVerification(t *testing.T) {
	b := signedBlock(t, 0, GenesisPreviousHash, "hello")
	b.Data = "tampered"

	if b.VerifiesHash() {
		t.Fatal("tampered block unexpectedly verified its hash")
	}
	t.Log("✓ mutating data after hashing is detected")
}

func TestEncryptionInvariant(t *testing.T) {
	b := signedBlock(t, 0, GenesisPreviousHash, "hello")

	if !b.ValidateEncryptionInvariant() {
		t.Fatal("unencrypted block should trivially satisfy the invariant")
	}

	envelope, err := crypto.Encrypt("pw", b.Data)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	originalHash := b.Hash
	b.IsEncrypted = true
	b.EncryptionMetadata = envelope

	if !b.ValidateEncryptionInvariant() {
		t.Fatal("valid envelope rejected by invariant check")
	}
	if b.Hash != originalHash {
		t.Fatal("encrypting in place must not change the stored hash")
	}
	t.Log("✓ encrypt-in-place preserves hash and sets a valid envelope")
}

func TestCustomMetadataValue(t *testing.T) {
	b := &Block{CustomMetadata: `{"dept":"fin","region":"us"}`}

	v, ok := b.CustomMetadataValue("dept")
	if !ok || v != "fin" {
		t.Fatalf("CustomMetadataValue(dept) = (%q, %v), want (fin, true)", v, ok)
	}

	if _, ok := b.CustomMetadataValue("missing"); ok {
		t.Fatal("expected ok=false for a missing key")
	}
	t.Log("✓ custom metadata key/value lookup works")
}

func TestCustomMetadataValueMalformedJSON(t *testing.T) {
	b := &Block{CustomMetadata: `{not json`}
	if _, ok := b.CustomMetadataValue("dept"); ok {
		t.Fatal("malformed JSON should never report ok=true")
	}
	t.Log("✓ malformed custom metadata is tolerated, not fatal")
}
