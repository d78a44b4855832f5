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

// Package block defines the Block entity: its canonical fields, canonical
// serialization for hashing/signing, and the validation predicates every
// layer above (storage, chain, recovery) relies on.
package block

import (
	"time"

	"github.com/n42blockchain/blockledger/common/crypto"
	"github.com/n42blockchain/blockledger/common/types"
)

// GenesisPreviousHash is the literal previousHash value stored on block 0.
const GenesisPreviousHash = "0"

// Block is one row of the ledger. Only the Chain Service constructs new
// values of this type; everywhere else treats it as an immutable snapshot
// except for the encryption-upgrade fields (IsEncrypted/EncryptionMetadata),
// which Update may change without touching Data/Hash/Signature.
type Block struct {
	BlockNumber uint64
	// PreviousHash is GenesisPreviousHash ("0") for block 0.
	PreviousHash string
	// Timestamp is stored with whatever precision the backend supports;
	// canonical hashing always truncates it to UTC epoch-seconds.
	Timestamp time.Time
	// Data is the plaintext payload. It is never mutated after hashing,
	// even when IsEncrypted later becomes true.
	Data string
	// SignerPublicKey is the serialized signer key, or
	// types.GenesisSigner ("GENESIS") for block 0.
	SignerPublicKey string
	// RecipientPublicKey is the optional serialized key the block is
	// encrypted for.
	RecipientPublicKey string
	IsEncrypted        bool
	// EncryptionMetadata is the AES-GCM envelope when IsEncrypted; empty
	// otherwise.
	EncryptionMetadata string
	Hash               string
	Signature          string
	ManualKeywords     string
	AutoKeywords       string
	SearchableContent  string
	ContentCategory    string
	// CustomMetadata is a JSON object serialized as text, or empty.
	CustomMetadata string
	OffChainData   *OffChainData
}

// OffChainData is an owned child record associated with a block. Block
// reads leave it nil; only storage's AttachOffChainData (used by Export)
// loads it. The EXHAUSTIVE_OFFCHAIN search level and the
// with-off-chain-data pagination filter match against the stored record
// in SQL without loading it onto the returned blocks.
type OffChainData struct {
	BlockNumber uint64
	Payload     string
}

// IsGenesis reports whether b is block 0.
func (b *Block) IsGenesis() bool {
	return b.BlockNumber == 0
}

// CanonicalContent builds the exact string hashed and signed for b, per
// the field order fixed in common/crypto.CanonicalContent.
func (b *Block) CanonicalContent() string {
	return crypto.CanonicalContent(b.BlockNumber, b.PreviousHash, b.Data, b.Timestamp, b.SignerPublicKey)
}

// ComputeHash returns the hex digest of b's canonical content.
func (b *Block) ComputeHash() string {
	return crypto.HashHex(b.CanonicalContent())
}

// VerifiesHash reports whether b.Hash matches its own canonical content.
func (b *Block) VerifiesHash() bool {
	return b.Hash == b.ComputeHash()
}

// VerifiesSignature reports whether b.Signature verifies against
// b.SignerPublicKey over b's canonical content. Block 0's GENESIS
// signer is exempt: verification is always true for it.
func (b *Block) VerifiesSignature() bool {
	if b.SignerPublicKey == types.GenesisSigner {
		return true
	}
	pub, err := types.ParsePublicKey(b.SignerPublicKey)
	if err != nil {
		return false
	}
	return crypto.Verify(b.Signature, b.CanonicalContent(), pub)
}

// IsValidGenesisShape reports whether b is a structurally valid genesis
// block: number 0 and previousHash "0".
func (b *Block) IsValidGenesisShape() bool {
	return b.BlockNumber == 0 && b.PreviousHash == GenesisPreviousHash
}

// ExtendsPrevious reports whether b correctly chains onto prev:
// consecutive block numbers and previousHash equal to prev's hash.
func (b *Block) ExtendsPrevious(prev *Block) bool {
	if prev == nil {
		return b.BlockNumber == 0
	}
	return b.BlockNumber == prev.BlockNumber+1 && b.PreviousHash == prev.Hash
}

// IsStructurallyIntact reports whether b sits correctly in the chain
// relative to its predecessor: contiguous numbering and correct
// previousHash linkage.
func (b *Block) IsStructurallyIntact(prev *Block) bool {
	return b.ExtendsPrevious(prev)
}

// IsFullyCompliant reports structural integrity plus hash and signature
// correctness.
func (b *Block) IsFullyCompliant(prev *Block) bool {
	return b.IsStructurallyIntact(prev) && b.VerifiesHash() && b.VerifiesSignature()
}
