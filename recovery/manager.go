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

// Package recovery implements the Recovery Manager: diagnoses a chain
// left invalid by a destructive authorized-signer change, and runs the
// re-authorize → rollback → partial-export strategy ladder, first
// success wins.
package recovery

import (
	"context"
	"strconv"
	"time"

	"github.com/n42blockchain/blockledger/chain"
	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/log"
)

// Method is the recovery strategy that produced a Result, or the
// user-visible failure code when none did.
type Method string

const (
	MethodReAuthorization Method = "RE_AUTHORIZATION"
	MethodRollback        Method = "ROLLBACK"
	MethodPartialExport   Method = "PARTIAL_EXPORT"
	MethodFailed          Method = "FAILED"

	// MethodValidationError marks a Recover call rejected before the
	// strategy ladder ran at all: the key is still authorized, or the
	// chain is valid and the key is not implicated in any corruption.
	MethodValidationError Method = "VALIDATION_ERROR"
)

// Result reports what a recovery attempt did. Every Recover call
// returns one instead of an error; the manager catches every failure
// from its own strategies and converts it to Success: false here.
type Result struct {
	Success bool
	Method  Method
	Message string
}

// Manager runs the strategy ladder. It never acquires its own lock;
// every mutation goes through the Service's WithWriteLock, carrying the
// LockToken that proves the lock is already held. Nested locking here
// caused historical deadlocks.
type Manager struct {
	svc       *chain.Service
	signers   *chain.AuthorizedSigners
	backupDir string

	// ReauthorizePolicy, when set, is consulted before strategy 1 re-adds
	// a removed key. Returning false refuses re-authorization outright
	// and the ladder falls through to rollback.
	ReauthorizePolicy func(publicKey string) bool
}

// NewManager wires a Manager to the Chain Service it recovers and the
// directory partial exports are written under.
func NewManager(svc *chain.Service, signers *chain.AuthorizedSigners, backupDir string) *Manager {
	return &Manager{svc: svc, signers: signers, backupDir: backupDir}
}

// Recover attempts to restore chain validity after removedPublicKey was
// revoked. Preconditions: the key must not currently be authorized, and
// either the chain must be invalid or the key must be implicated in
// tracked corruption.
func (m *Manager) Recover(ctx context.Context, removedPublicKey, ownerLabel string) Result {
	if m.signers.IsAuthorized(removedPublicKey) {
		return Result{Method: MethodValidationError, Message: "key is still authorized; revoke it before running recovery"}
	}

	valid, err := m.svc.Validate(ctx)
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}
	corruptionKeys, err := m.svc.ScanKeysInvolvedInCorruption(ctx)
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}
	if valid && !containsKey(corruptionKeys, removedPublicKey) {
		return Result{Method: MethodValidationError, Message: "chain is valid and key is not implicated in any tracked corruption"}
	}

	var result Result
	lockErr := m.svc.WithWriteLock(func(token chain.LockToken) error {
		result = m.tryReAuthorize(ctx, token, removedPublicKey, ownerLabel)
		if result.Success {
			return nil
		}
		result = m.tryRollback(ctx, token, removedPublicKey)
		if result.Success {
			return nil
		}
		result = m.tryPartialExport(ctx, removedPublicKey)
		return nil
	})
	if lockErr != nil {
		return Result{Method: MethodFailed, Message: lockErr.Error()}
	}
	return result
}

// tryReAuthorize is strategy 1: re-add the key under a derived owner
// name encoding the recovery timestamp, then re-validate. If the chain
// is still invalid, the key is revoked again so a retry starts clean.
func (m *Manager) tryReAuthorize(ctx context.Context, token chain.LockToken, publicKey, owner string) Result {
	if m.ReauthorizePolicy != nil && !m.ReauthorizePolicy(publicKey) {
		log.Warn("re-authorization refused by policy", "signer", publicKey)
		return Result{Method: MethodFailed, Message: "re-authorization refused by policy"}
	}

	derived := chain.DerivedOwnerLabel(owner, time.Now())
	m.signers.Authorize(publicKey, derived)

	valid, err := m.svc.Validate(ctx)
	if err != nil {
		m.signers.Revoke(publicKey)
		return Result{Method: MethodFailed, Message: err.Error()}
	}
	if !valid {
		m.signers.Revoke(publicKey)
		log.Warn("re-authorization did not restore validity", "signer", publicKey)
		return Result{Method: MethodFailed, Message: "chain still invalid after re-authorization"}
	}

	log.Info("recovery succeeded via re-authorization", "signer", publicKey, "owner", derived)
	return Result{Success: true, Method: MethodReAuthorization, Message: "re-authorized under " + derived}
}

// tryRollback is strategy 2: compute a safe rollback target as the
// minimum of the conservative, intelligent, and hash-integrity
// candidates, verify it, and perform the rollback.
func (m *Manager) tryRollback(ctx context.Context, token chain.LockToken, publicKey string) Result {
	corrupted, err := m.svc.CorruptedBlocksSignedBy(ctx, publicKey)
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}
	if len(corrupted) == 0 {
		return Result{Method: MethodFailed, Message: "no corrupted blocks found for this signer"}
	}

	minCorrupted := corrupted[0]
	for _, n := range corrupted[1:] {
		if n < minCorrupted {
			minCorrupted = n
		}
	}

	conservative := safePredecessor(minCorrupted)
	intelligent, err := m.svc.LongestValidPrefix(ctx)
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}
	// Hash-integrity candidate: conservative is already the safe
	// fallback it would otherwise recompute.
	hashIntegrity := conservative

	target := min3(conservative, intelligent, hashIntegrity)

	total, err := m.svc.Count(ctx)
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}
	if !validRollbackTarget(target, total, minCorrupted) {
		target = conservative
		if !validRollbackTarget(target, total, minCorrupted) {
			return Result{Method: MethodFailed, Message: "no safe rollback target found"}
		}
	}

	if err := m.svc.RollbackToWithLock(ctx, token, target); err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}

	valid, err := m.svc.Validate(ctx)
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}
	if !valid {
		return Result{Method: MethodFailed, Message: "chain still invalid after rollback"}
	}

	log.Info("recovery succeeded via rollback", "signer", publicKey, "target", target)
	return Result{Success: true, Method: MethodRollback, Message: "rolled back to block " + strconv.FormatUint(target, 10)}
}

// tryPartialExport is strategy 3: walk from genesis, stop at the first
// block signed by the removed key or the first block that fails
// chain.ValidateSingle (structure, hash or signature) against its
// predecessor, and export that prefix through the Chain Service.
func (m *Manager) tryPartialExport(ctx context.Context, publicKey string) Result {
	prefix, err := m.svc.PrefixBeforeFirstMatch(ctx, func(prev, b *block.Block) bool {
		if b.SignerPublicKey == publicKey {
			return true
		}
		return !chain.ValidateSingle(prev, b)
	})
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}

	path, err := m.svc.ExportPrefix(prefix, m.backupDir)
	if err != nil {
		return Result{Method: MethodFailed, Message: err.Error()}
	}

	log.Info("recovery fell back to partial export", "signer", publicKey, "path", path, "blocks", len(prefix))
	return Result{Success: true, Method: MethodPartialExport, Message: "exported " + strconv.Itoa(len(prefix)) + " blocks to " + path}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// safePredecessor returns n-1, floored at 0. n is always > 0 here
// since block 0 is never corrupted (it carries no signature to verify).
func safePredecessor(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return n - 1
}

func min3(a, b, c uint64) uint64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// validRollbackTarget checks target >= 0 (guaranteed by uint64), target
// < total, and target < minCorrupted.
func validRollbackTarget(target, total, minCorrupted uint64) bool {
	return target < total && target < minCorrupted
}

