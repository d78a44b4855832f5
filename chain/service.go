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
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/common/crypto"
	"github.com/n42blockchain/blockledger/common/types"
	"github.com/n42blockchain/blockledger/log"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
	"github.com/n42blockchain/blockledger/password"
	"github.com/n42blockchain/blockledger/storage"
)

// Service is the Chain Service: it owns the global write lock, assigns
// block numbers, and is the only thing that constructs new Block values.
type Service struct {
	writeLock
	gateway   *storage.Gateway
	repo      *storage.Repository
	signers   *AuthorizedSigners
	passwords *password.Registry
}

// NewService wires a Service to its Gateway, Repository, signer
// registry, and password registry.
func NewService(gateway *storage.Gateway, repo *storage.Repository, signers *AuthorizedSigners, passwords *password.Registry) *Service {
	return &Service{gateway: gateway, repo: repo, signers: signers, passwords: passwords}
}

// AppendRequest carries everything Append needs to build a new block.
// Genesis is assigned automatically when the chain is empty; callers
// never request block 0 explicitly.
type AppendRequest struct {
	SignerKey          *btcec.PrivateKey
	Data               string
	RecipientPublicKey string
	Password           string // non-empty encrypts Data at rest
	ManualKeywords     string
	AutoKeywords       string
	SearchableContent  string
	ContentCategory    string
	CustomMetadata     string
	OffChainPayload    string
}

// WithReadLock runs fn holding the read side of the global lock. Single
// reads are safe without it (they observe either the state before or
// after a commit, never a torn one), but a caller issuing several reads
// that must see one consistent chain groups them here to exclude the
// writer for the duration. Readers run concurrently with each other.
// fn must not call back into a method that acquires the lock itself.
func (s *Service) WithReadLock(fn func() error) error {
	s.lockRead()
	defer s.unlockRead()
	return fn()
}

// WithWriteLock acquires the Service's write lock, runs fn with a token
// proving it, and releases the lock on every exit path, including a
// panic, which is re-raised after the unlock so the lock is never held
// past fn's lifetime. Recovery strategies use this to mutate the chain
// without layering a second lock on top.
func (s *Service) WithWriteLock(fn func(LockToken) error) error {
	s.lockWrite()
	defer s.unlockWrite()
	return fn(LockToken{svc: s})
}

// Append runs the full append protocol under the write lock: open a
// transaction, read lastBlock inside that same transaction (so it
// observes its own uncommitted row instead of stale data), compute the
// next block number (0, with GENESIS signer, if the chain is empty),
// build canonical content, hash and sign it, persist, and commit.
func (s *Service) Append(ctx context.Context, req AppendRequest) (b *block.Block, outcome AppendOutcome, err error) {
	s.lockWrite()
	defer s.unlockWrite()
	outcome = Idle

	sess, err := s.gateway.BeginSession(ctx)
	if err != nil {
		return nil, outcome, err
	}
	outcome = Locked

	defer func() {
		if err != nil {
			sess.Rollback()
			outcome = RolledBack
			log.Error("append rolled back", "err", err)
		}
	}()

	last, err := s.repo.LastBlockInSession(ctx, sess)
	if err != nil {
		return nil, outcome, err
	}

	built, buildErr := s.buildBlock(last, req)
	if buildErr != nil {
		err = buildErr
		return nil, outcome, err
	}

	if appendErr := s.repo.Append(ctx, sess, built); appendErr != nil {
		err = appendErr
		return nil, outcome, err
	}
	if req.Password != "" {
		if regErr := s.passwords.Register(built.Hash, req.Password); regErr != nil {
			err = regErr
			return nil, outcome, err
		}
	}

	if commitErr := sess.Commit(); commitErr != nil {
		err = commitErr
		return nil, outcome, err
	}
	outcome = Committed
	return built, outcome, nil
}

// buildBlock computes n, the canonical content, hash, and signature for
// a new block extending last (nil means the chain is empty, so the new
// block is genesis). It does not persist anything.
func (s *Service) buildBlock(last *block.Block, req AppendRequest) (*block.Block, error) {
	var n uint64
	previousHash := block.GenesisPreviousHash
	signerPublicKey := types.GenesisSigner
	isGenesis := last == nil

	if !isGenesis {
		n = last.BlockNumber + 1
		previousHash = last.Hash
	}
	if !isGenesis {
		if req.SignerKey == nil {
			return nil, lerrors.WithKind(lerrors.KindInvalidArgument, nil, "chain: append requires a signer key past genesis")
		}
		signerPublicKey = types.NewPublicKey(req.SignerKey.PubKey()).Serialize()
		if s.signers != nil && !s.signers.IsAuthorized(signerPublicKey) {
			return nil, lerrors.WithKind(lerrors.KindInvalidArgument, nil, "chain: signer key is not currently authorized")
		}
	}

	b := &block.Block{
		BlockNumber:         n,
		PreviousHash:        previousHash,
		Timestamp:           time.Now().UTC(),
		Data:                req.Data,
		SignerPublicKey:     signerPublicKey,
		RecipientPublicKey:  req.RecipientPublicKey,
		ManualKeywords:      req.ManualKeywords,
		AutoKeywords:        req.AutoKeywords,
		SearchableContent:   req.SearchableContent,
		ContentCategory:     req.ContentCategory,
		CustomMetadata:      req.CustomMetadata,
	}

	content := b.CanonicalContent()
	b.Hash = crypto.HashHex(content)
	if !isGenesis {
		b.Signature = crypto.Sign(req.SignerKey, content)
	}

	if req.Password != "" {
		envelope, encErr := crypto.Encrypt(req.Password, b.Data)
		if encErr != nil {
			return nil, lerrors.Wrap(encErr, "chain: encrypt block payload")
		}
		b.IsEncrypted = true
		b.EncryptionMetadata = envelope
	}

	if req.OffChainPayload != "" {
		b.OffChainData = &block.OffChainData{BlockNumber: n, Payload: req.OffChainPayload}
	}

	return b, nil
}

// BatchAppend appends many blocks signed by the same key in one
// transaction, assigning consecutive block numbers starting from the
// chain's current tip.
func (s *Service) BatchAppend(ctx context.Context, signerKey *btcec.PrivateKey, items []AppendRequest) ([]*block.Block, error) {
	s.lockWrite()
	defer s.unlockWrite()

	sess, err := s.gateway.BeginSession(ctx)
	if err != nil {
		return nil, err
	}

	last, err := s.repo.LastBlockInSession(ctx, sess)
	if err != nil {
		sess.Rollback()
		return nil, err
	}

	built := make([]*block.Block, 0, len(items))
	for _, req := range items {
		req.SignerKey = signerKey
		b, buildErr := s.buildBlock(last, req)
		if buildErr != nil {
			sess.Rollback()
			return nil, buildErr
		}
		built = append(built, b)
		last = b
	}

	if err := s.repo.BatchAppend(ctx, sess, built); err != nil {
		sess.Rollback()
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	return built, nil
}

// LastBlock is a read that does not require the write lock.
func (s *Service) LastBlock(ctx context.Context) (*block.Block, error) {
	return s.repo.LastBlock(ctx)
}

// Count is a read that does not require the write lock.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	return s.repo.Count(ctx, s.gateway.AdHocSession())
}

// Signers exposes the wired AuthorizedSigners registry so collaborators
// like the Recovery Manager can authorize/revoke keys without the
// Service brokering every call.
func (s *Service) Signers() *AuthorizedSigners {
	return s.signers
}

// RollbackTo deletes every block past target under the write lock, in
// one statement.
func (s *Service) RollbackTo(ctx context.Context, target uint64) error {
	s.lockWrite()
	defer s.unlockWrite()
	return s.rollbackToLocked(ctx, target)
}

// RollbackToWithLock is the variant for callers that already hold the
// write lock and can prove it with a LockToken (the Recovery Manager).
func (s *Service) RollbackToWithLock(ctx context.Context, token LockToken, target uint64) error {
	if !token.belongsTo(s) {
		return lerrors.WithKind(lerrors.KindInvalidArgument, nil, "chain: lock token does not belong to this Service")
	}
	return s.rollbackToLocked(ctx, target)
}

func (s *Service) rollbackToLocked(ctx context.Context, target uint64) error {
	sess, err := s.gateway.BeginSession(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.RollbackTo(ctx, sess, target); err != nil {
		sess.Rollback()
		return err
	}
	return sess.Commit()
}

// EncryptExisting upgrades an already-persisted block to carry an
// encrypted payload, without touching hash, signature, or data, so the
// block still hashes and verifies exactly as before.
func (s *Service) EncryptExisting(ctx context.Context, blockNumber uint64, plaintextPassword string) error {
	s.lockWrite()
	defer s.unlockWrite()

	sess, err := s.gateway.BeginSession(ctx)
	if err != nil {
		return err
	}
	b, err := s.repo.ByNumber(ctx, sess, blockNumber)
	if err != nil {
		sess.Rollback()
		return err
	}
	if b == nil {
		sess.Rollback()
		return lerrors.WithKind(lerrors.KindNotFound, nil, "chain: block not found")
	}

	envelope, err := crypto.Encrypt(plaintextPassword, b.Data)
	if err != nil {
		sess.Rollback()
		return lerrors.Wrap(err, "chain: encrypt existing block")
	}
	b.IsEncrypted = true
	b.EncryptionMetadata = envelope

	if err := s.repo.Update(ctx, sess, b); err != nil {
		sess.Rollback()
		return err
	}
	if err := s.passwords.Register(b.Hash, plaintextPassword); err != nil {
		sess.Rollback()
		return err
	}
	return sess.Commit()
}

// ByNumberWithPassword is a pass-through read; it does not require the
// write lock.
func (s *Service) ByNumberWithPassword(ctx context.Context, number uint64, password string) (*block.Block, error) {
	return s.repo.ByNumberWithPassword(ctx, s.gateway.AdHocSession(), number, password)
}
