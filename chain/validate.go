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

package chain

import (
	"context"
	"errors"

	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/log"
)

// errStopWalk is an internal sentinel a Stream consumer returns to end
// iteration early without that early exit looking like a real failure.
var errStopWalk = errors.New("chain: stop walk")

// ValidationReport is the structured result of a detailed chain walk:
// whether the chain is structurally intact, whether it is fully
// compliant, where it first diverges, and which signer keys offend.
// Validate stays a thin bool wrapper over it.
type ValidationReport struct {
	StructurallyIntact  bool
	FullyCompliant      bool
	FirstDivergentBlock *uint64
	OffendingSigners    []string
}

// ValidateSingle checks one block against its predecessor: correct
// linkage, hash, and signature, logging the reason on failure. prev nil
// means b must be genesis.
func ValidateSingle(prev, b *block.Block) bool {
	if !b.IsStructurallyIntact(prev) {
		log.Debug("block fails structural validation", "blockNumber", b.BlockNumber)
		return false
	}
	if !b.VerifiesHash() {
		log.Debug("block fails hash validation", "blockNumber", b.BlockNumber)
		return false
	}
	if !b.VerifiesSignature() {
		log.Debug("block fails signature validation", "blockNumber", b.BlockNumber)
		return false
	}
	return true
}

// Validate walks the whole chain in bounded-memory batches (via
// storage.Repository.StreamAll) and reports whether every block chains,
// hashes, and verifies correctly against its predecessor and, when an
// AuthorizedSigners registry is wired, whether every non-genesis signer
// is currently authorized (ValidateDetailed's FullyCompliant).
func (s *Service) Validate(ctx context.Context) (bool, error) {
	report, err := s.ValidateDetailed(ctx)
	if err != nil {
		return false, err
	}
	return report.FullyCompliant, nil
}

// ValidateDetailed walks the whole chain once, in streaming batches,
// checking structural integrity, hash/signature validity, and (if an
// AuthorizedSigners registry is wired) that every signer key is
// currently authorized. Full compliance requires all three.
func (s *Service) ValidateDetailed(ctx context.Context) (ValidationReport, error) {
	report := ValidationReport{StructurallyIntact: true, FullyCompliant: true}

	var prev *block.Block
	walkErr := s.repo.StreamAll(ctx, s.gateway.AdHocSession(), func(b *block.Block) error {
		structurallyOK := b.IsStructurallyIntact(prev)
		if !structurallyOK {
			report.StructurallyIntact = false
			report.FullyCompliant = false
			n := b.BlockNumber
			if report.FirstDivergentBlock == nil {
				report.FirstDivergentBlock = &n
			}
		}

		compliantOK := structurallyOK && b.VerifiesHash() && b.VerifiesSignature()
		if !compliantOK {
			report.FullyCompliant = false
			if report.FirstDivergentBlock == nil {
				n := b.BlockNumber
				report.FirstDivergentBlock = &n
			}
		}

		if s.signers != nil && !b.IsGenesis() && !s.signers.IsAuthorized(b.SignerPublicKey) {
			report.FullyCompliant = false
			report.OffendingSigners = appendUnique(report.OffendingSigners, b.SignerPublicKey)
		}

		prev = b
		return nil
	})
	if walkErr != nil {
		return ValidationReport{}, walkErr
	}
	return report, nil
}

func appendUnique(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}

// ScanKeysInvolvedInCorruption walks the chain collecting the distinct
// signer keys that are no longer in the authorized set. The Recovery
// Manager uses this as its implicated-key set: a key disappears from it
// the moment re-authorization or rollback restores validity.
func (s *Service) ScanKeysInvolvedInCorruption(ctx context.Context) ([]string, error) {
	if s.signers == nil {
		return nil, nil
	}
	var keys []string
	err := s.repo.StreamAll(ctx, s.gateway.AdHocSession(), func(b *block.Block) error {
		if !b.IsGenesis() && !s.signers.IsAuthorized(b.SignerPublicKey) {
			keys = appendUnique(keys, b.SignerPublicKey)
		}
		return nil
	})
	return keys, err
}

// CorruptedBlocksSignedBy returns, in ascending order, the block numbers
// signed by publicKey. Recovery calls this after the key has been
// revoked, and revocation never alters stored blocks: a cleanly revoked
// signer's blocks still chain, hash, and verify by their stored key, yet
// they are exactly what makes the chain corrupt and exactly what a
// rollback must cut. Membership is therefore decided by the signer
// alone, never by per-block validation.
func (s *Service) CorruptedBlocksSignedBy(ctx context.Context, publicKey string) ([]uint64, error) {
	var corrupted []uint64
	err := s.repo.StreamAll(ctx, s.gateway.AdHocSession(), func(b *block.Block) error {
		if b.SignerPublicKey == publicKey {
			corrupted = append(corrupted, b.BlockNumber)
		}
		return nil
	})
	return corrupted, err
}

// LongestValidPrefix returns the highest block number N such that every
// block 0..N is both individually valid against its predecessor and
// carries a timestamp not earlier than the previous block's. This is the
// "intelligent" rollback candidate's computation.
func (s *Service) LongestValidPrefix(ctx context.Context) (uint64, error) {
	var longest uint64
	var prev *block.Block
	broken := false
	err := s.repo.StreamAll(ctx, s.gateway.AdHocSession(), func(b *block.Block) error {
		if broken {
			return nil
		}
		if !ValidateSingle(prev, b) {
			broken = true
			return nil
		}
		if prev != nil && b.Timestamp.Before(prev.Timestamp) {
			broken = true
			return nil
		}
		longest = b.BlockNumber
		prev = b
		return nil
	})
	if err != nil {
		return 0, err
	}
	return longest, nil
}

// PrefixBeforeFirstMatch walks the chain from genesis, collecting blocks
// until stop(prev, b) reports true for some block, and returns every
// block before that one. Used by the Recovery Manager's partial-export
// strategy to find "the chain up to the first block signed by the
// removed key or first invalid block".
func (s *Service) PrefixBeforeFirstMatch(ctx context.Context, stop func(prev, b *block.Block) bool) ([]*block.Block, error) {
	var collected []*block.Block
	var prev *block.Block
	err := s.repo.StreamAll(ctx, s.gateway.AdHocSession(), func(b *block.Block) error {
		if stop(prev, b) {
			return errStopWalk
		}
		collected = append(collected, b)
		prev = b
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return nil, err
	}
	return collected, nil
}
