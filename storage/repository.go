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

package storage

import (
	"context"
	"database/sql"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/common/crypto"
	"github.com/n42blockchain/blockledger/internal/cache"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

const (
	// hotBlockCacheSize bounds the Repository's recently-read block cache.
	hotBlockCacheSize = 4096
	// metadataParseCacheSize bounds the memoized custom-metadata JSON parse cache.
	metadataParseCacheSize = 4096

	// maxResultsFloor/maxResultsCeiling bound the maxResults parameter
	// accepted by bounded-limit reads.
	maxResultsFloor   = 1
	maxResultsCeiling = 10_000

	// batchLookupCap bounds byNumbers/byHashes IN-query batch size.
	batchLookupCap = 10_000

	// streamBatchSize is the page size for manual (keyset) pagination;
	// on the server-cursor path it only sets how many rows count as one
	// batch for the stream-batch counter.
	streamBatchSize = 1000

	// maxPaginatedScanBatches caps total iterations a paginated
	// metadata-key-value search performs before directing the caller to
	// the streaming variant.
	maxPaginatedScanBatches = 100
)

// Repository is the Block Repository: every CRUD, paginated, batch,
// streaming and search operation over the `block` table.
type Repository struct {
	gateway *Gateway

	hotBlocks    *lru.Cache[uint64, *block.Block]
	metadataMemo *cache.LRU[string, map[string]interface{}]
}

// NewRepository wraps gateway with the hot-block and metadata-parse
// caches.
func NewRepository(gateway *Gateway) (*Repository, error) {
	hot, err := lru.New[uint64, *block.Block](hotBlockCacheSize)
	if err != nil {
		return nil, lerrors.Wrap(err, "storage: create hot block cache")
	}
	return &Repository{
		gateway:      gateway,
		hotBlocks:    hot,
		metadataMemo: cache.NewLRU[string, map[string]interface{}](metadataParseCacheSize),
	}, nil
}

const insertColumns = `block_number, previous_hash, ts, data, signer_public_key, recipient_public_key,
	is_encrypted, encryption_metadata, hash, signature, manual_keywords, auto_keywords,
	searchable_content, content_category, custom_metadata`

func (r *Repository) insertArgs(b *block.Block) []any {
	return []any{
		b.BlockNumber, b.PreviousHash, b.Timestamp.UTC().Unix(), b.Data, b.SignerPublicKey,
		nullableString(b.RecipientPublicKey), b.IsEncrypted, nullableString(b.EncryptionMetadata),
		b.Hash, b.Signature, nullableString(b.ManualKeywords), nullableString(b.AutoKeywords),
		nullableString(b.SearchableContent), nullableString(b.ContentCategory), nullableString(b.CustomMetadata),
	}
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func placeholders(s *Session, n int) string {
	out := make([]byte, 0, n*2)
	for i := 1; i <= n; i++ {
		if i > 1 {
			out = append(out, ',')
		}
		out = append(out, []byte(s.placeholder(i))...)
	}
	return string(out)
}

// Append persists a new block row. Requires an active transaction: the
// caller owns the Session's lifecycle (see the Chain Service's append
// protocol).
func (r *Repository) Append(ctx context.Context, s *Session, b *block.Block) error {
	if !s.InTransaction() {
		return lerrors.WithKind(lerrors.KindInvalidArgument, nil, "storage: Append requires an active transaction")
	}

	query := `INSERT INTO block (` + insertColumns + `) VALUES (` + placeholders(s, 15) + `)`
	_, err := s.querier().ExecContext(ctx, query, r.insertArgs(b)...)
	if err != nil {
		return translateWriteError(err)
	}
	if b.OffChainData != nil {
		if err := r.insertOffChain(ctx, s, b.OffChainData); err != nil {
			return err
		}
	}

	r.hotBlocks.Add(b.BlockNumber, b)
	appendedBlocksTotal.Inc()
	return nil
}

func (r *Repository) insertOffChain(ctx context.Context, s *Session, oc *block.OffChainData) error {
	query := `INSERT INTO block_offchain (block_number, payload) VALUES (` + s.placeholder(1) + `, ` + s.placeholder(2) + `)`
	if _, err := s.querier().ExecContext(ctx, query, oc.BlockNumber, oc.Payload); err != nil {
		return translateWriteError(err)
	}
	return nil
}

// BatchAppend persists many rows in one transaction. database/sql sends
// each INSERT to the backend as the loop reaches it, so no staged batch
// accumulates in memory regardless of how many blocks are passed; the
// caller's transaction supplies the all-or-nothing semantics, with no
// partial persistence on first failure.
func (r *Repository) BatchAppend(ctx context.Context, s *Session, blocks []*block.Block) error {
	if !s.InTransaction() {
		return lerrors.WithKind(lerrors.KindInvalidArgument, nil, "storage: BatchAppend requires an active transaction")
	}

	query := `INSERT INTO block (` + insertColumns + `) VALUES (` + placeholders(s, 15) + `)`
	for _, b := range blocks {
		if _, err := s.querier().ExecContext(ctx, query, r.insertArgs(b)...); err != nil {
			return translateWriteError(err)
		}
		if b.OffChainData != nil {
			if err := r.insertOffChain(ctx, s, b.OffChainData); err != nil {
				return err
			}
		}
		batchAppendRowsTotal.Inc()
	}
	for _, b := range blocks {
		r.hotBlocks.Add(b.BlockNumber, b)
	}
	return nil
}

// Update merges an encryption upgrade onto an existing row: only
// is_encrypted and encryption_metadata are written. hash, signature and
// data are never touched, so an upgraded block still hashes and verifies
// exactly as it did before.
func (r *Repository) Update(ctx context.Context, s *Session, b *block.Block) error {
	query := `UPDATE block SET is_encrypted = ` + s.placeholder(1) + `, encryption_metadata = ` + s.placeholder(2) +
		` WHERE block_number = ` + s.placeholder(3)
	_, err := s.querier().ExecContext(ctx, query, b.IsEncrypted, nullableString(b.EncryptionMetadata), b.BlockNumber)
	if err != nil {
		return translateWriteError(err)
	}
	r.hotBlocks.Remove(b.BlockNumber)
	return nil
}

// LastBlock opens its own ad-hoc session; safe to call outside a
// transaction. Returns nil, nil when the chain is empty.
func (r *Repository) LastBlock(ctx context.Context) (*block.Block, error) {
	return r.lastBlock(ctx, r.gateway.AdHocSession())
}

// LastBlockInSession accepts the caller's active Session, so it observes
// that transaction's own uncommitted rows. The Chain Service's append
// protocol requires this variant; reading through a separate session
// there would see stale data and assign a duplicate blockNumber.
func (r *Repository) LastBlockInSession(ctx context.Context, s *Session) (*block.Block, error) {
	return r.lastBlock(ctx, s)
}

func (r *Repository) lastBlock(ctx context.Context, s *Session) (*block.Block, error) {
	query := selectColumns + ` FROM block ORDER BY block_number DESC LIMIT 1`
	row := s.querier().QueryRowContext(ctx, query)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: LastBlock")
	}
	return b, nil
}

// ByNumber is a point lookup by primary key, served from the hot-block
// cache when possible.
func (r *Repository) ByNumber(ctx context.Context, s *Session, number uint64) (*block.Block, error) {
	if b, ok := r.hotBlocks.Get(number); ok {
		cacheHitsTotal.Inc()
		return b, nil
	}
	cacheMissesTotal.Inc()

	query := selectColumns + ` FROM block WHERE block_number = ` + s.placeholder(1)
	row := s.querier().QueryRowContext(ctx, query, number)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: ByNumber")
	}
	r.hotBlocks.Add(number, b)
	return b, nil
}

// ByHash is a point lookup by the block's content hash.
func (r *Repository) ByHash(ctx context.Context, s *Session, hash string) (*block.Block, error) {
	query := selectColumns + ` FROM block WHERE hash = ` + s.placeholder(1)
	row := s.querier().QueryRowContext(ctx, query, hash)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: ByHash")
	}
	return b, nil
}

// Exists reports whether a block with the given number is present,
// without materializing the row.
func (r *Repository) Exists(ctx context.Context, s *Session, number uint64) (bool, error) {
	var one int
	err := s.querier().QueryRowContext(ctx, `SELECT 1 FROM block WHERE block_number = `+s.placeholder(1), number).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: Exists")
	}
	return true, nil
}

// Count is O(1) when the backend supports an indexed count; every
// supported dialect here does, via COUNT(*) over the primary key index.
func (r *Repository) Count(ctx context.Context, s *Session) (uint64, error) {
	var n uint64
	err := s.querier().QueryRowContext(ctx, `SELECT COUNT(*) FROM block`).Scan(&n)
	if err != nil {
		return 0, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: Count")
	}
	return n, nil
}

// ResetDeleteAll deletes every row; used by the test harness and by the
// Chain Service's Import. Flushes and clears caches.
func (r *Repository) ResetDeleteAll(ctx context.Context, s *Session) error {
	if _, err := s.querier().ExecContext(ctx, `DELETE FROM block_offchain`); err != nil {
		return translateWriteError(err)
	}
	if _, err := s.querier().ExecContext(ctx, `DELETE FROM block`); err != nil {
		return translateWriteError(err)
	}
	r.hotBlocks.Purge()
	r.metadataMemo.Clear()
	return nil
}

// ResetDeleteNonGenesis deletes every row except block 0; test-harness only.
func (r *Repository) ResetDeleteNonGenesis(ctx context.Context, s *Session) error {
	if _, err := s.querier().ExecContext(ctx, `DELETE FROM block_offchain WHERE block_number > 0`); err != nil {
		return translateWriteError(err)
	}
	if _, err := s.querier().ExecContext(ctx, `DELETE FROM block WHERE block_number > 0`); err != nil {
		return translateWriteError(err)
	}
	r.hotBlocks.Purge()
	r.metadataMemo.Clear()
	return nil
}

// RollbackTo deletes all blocks with blockNumber > target in one
// statement, under the caller's write-locked Session.
func (r *Repository) RollbackTo(ctx context.Context, s *Session, target uint64) error {
	if _, err := s.querier().ExecContext(ctx, `DELETE FROM block_offchain WHERE block_number > `+s.placeholder(1), target); err != nil {
		return translateWriteError(err)
	}
	if _, err := s.querier().ExecContext(ctx, `DELETE FROM block WHERE block_number > `+s.placeholder(1), target); err != nil {
		return translateWriteError(err)
	}
	r.hotBlocks.Purge()
	return nil
}

// ByNumberWithPassword returns b with Data replaced by plaintext on a
// correct password, nil on a wrong password (AES-GCM tag mismatch), and
// an error on any other failure (e.g. corrupted envelope that isn't a
// tag mismatch).
func (r *Repository) ByNumberWithPassword(ctx context.Context, s *Session, number uint64, password string) (*block.Block, error) {
	b, err := r.ByNumber(ctx, s, number)
	if err != nil || b == nil {
		return b, err
	}
	if !b.IsEncrypted {
		return b, nil
	}

	plaintext, err := crypto.Decrypt(password, b.EncryptionMetadata)
	if err == crypto.ErrAuthenticationFailure {
		return nil, nil
	}
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindIntegrityViolation, err, "storage: decrypt block payload")
	}

	decrypted := *b
	decrypted.Data = plaintext
	return &decrypted, nil
}

// AttachOffChainData loads block_offchain rows and sets each matching
// block's OffChainData in place. Export uses this so the owned child
// record travels with its parent row.
func (r *Repository) AttachOffChainData(ctx context.Context, s *Session, blocks []*block.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	byNumber := make(map[uint64]*block.Block, len(blocks))
	for _, b := range blocks {
		byNumber[b.BlockNumber] = b
	}

	rows, err := s.querier().QueryContext(ctx, `SELECT block_number, payload FROM block_offchain`)
	if err != nil {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: load off-chain data")
	}
	defer rows.Close()

	for rows.Next() {
		var n uint64
		var payload string
		if err := rows.Scan(&n, &payload); err != nil {
			return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: scan off-chain row")
		}
		if b, ok := byNumber[n]; ok {
			b.OffChainData = &block.OffChainData{BlockNumber: n, Payload: payload}
		}
	}
	if err := rows.Err(); err != nil {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: off-chain row iteration")
	}
	return nil
}

// SchemaVersion reads the highest version recorded in the schema_version
// table, for operator diagnostics only. The table is owned by the
// external migration runner; ok is false when it holds no rows yet.
func (r *Repository) SchemaVersion(ctx context.Context, s *Session) (version int64, ok bool, err error) {
	var v sql.NullInt64
	if scanErr := s.querier().QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&v); scanErr != nil {
		return 0, false, lerrors.WithKind(lerrors.KindBackendFailure, scanErr, "storage: read schema version")
	}
	return v.Int64, v.Valid, nil
}

func translateWriteError(err error) error {
	if isUniqueViolation(err) {
		return lerrors.WithKind(lerrors.KindResourceConflict, err, "storage: duplicate blockNumber")
	}
	return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: write failed")
}

// isUniqueViolation detects a unique/primary-key constraint violation
// across the four supported drivers without importing each driver's
// error type, by matching the conventional substrings each one reports.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	substrs := []string{
		"UNIQUE constraint failed", // sqlite, modernc sqlite
		"duplicate key value",      // postgres
		"Duplicate entry",          // mysql
	}
	for _, sub := range substrs {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
