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
	"fmt"
	"testing"
	"time"

	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/common/crypto"
	"github.com/n42blockchain/blockledger/common/types"
	"github.com/n42blockchain/blockledger/conf"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

// openTestGateway opens a fresh in-memory embedded (modernc.org/sqlite)
// database, unique per call so tests never share state.
func openTestGateway(t *testing.T) *Gateway {
	t.Helper()
	url := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	g, err := Open(context.Background(), conf.DatabaseConfig{
		DatabaseType: conf.DatabaseEmbedded,
		DatabaseURL:  url,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func genesisBlock(t *testing.T) *block.Block {
	t.Helper()
	return &block.Block{
		BlockNumber:     0,
		PreviousHash:    block.GenesisPreviousHash,
		Timestamp:       time.Unix(1700000000, 0).UTC(),
		Data:            "genesis",
		SignerPublicKey: types.GenesisSigner,
		Hash:            crypto.HashHex(crypto.CanonicalContent(0, block.GenesisPreviousHash, "genesis", time.Unix(1700000000, 0).UTC(), types.GenesisSigner)),
	}
}

func signedBlockAt(t *testing.T, number uint64, prevHash, data string) *block.Block {
	t.Helper()
	key, err := crypto.GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	pub := key.PubKey().SerializeCompressed()
	signerHex := fmt.Sprintf("%x", pub)

	b := &block.Block{
		BlockNumber:     number,
		PreviousHash:    prevHash,
		Timestamp:       time.Unix(1700000000+int64(number), 0).UTC(),
		Data:            data,
		SignerPublicKey: signerHex,
	}
	content := b.CanonicalContent()
	b.Hash = crypto.HashHex(content)
	b.Signature = crypto.Sign(key, content)
	return b
}

func TestAppendAndByNumber(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	s, err := g.BeginSession(ctx)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if err := r.Append(ctx, s, gen); err != nil {
		t.Fatalf("Append genesis: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := r.ByNumber(ctx, g.AdHocSession(), 0)
	if err != nil {
		t.Fatalf("ByNumber: %v", err)
	}
	if got == nil || got.Hash != gen.Hash {
		t.Fatalf("ByNumber returned %+v, want hash %s", got, gen.Hash)
	}
	t.Log("✓ appended genesis block round-trips through ByNumber")
}

func TestAppendDuplicateBlockNumberConflicts(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()
	gen := genesisBlock(t)

	s, _ := g.BeginSession(ctx)
	if err := r.Append(ctx, s, gen); err != nil {
		t.Fatalf("first append: %v", err)
	}
	s.Commit()

	s2, _ := g.BeginSession(ctx)
	err = r.Append(ctx, s2, gen)
	s2.Rollback()
	if err == nil {
		t.Fatal("expected duplicate blockNumber to fail")
	}
	t.Log("✓ duplicate blockNumber append is rejected")
}

func TestLastBlockEmptyChain(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	got, err := r.LastBlock(context.Background())
	if err != nil {
		t.Fatalf("LastBlock: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil on empty chain, got %+v", got)
	}
	t.Log("✓ LastBlock on an empty chain returns nil, nil")
}

func TestLastBlockInSessionSeesUncommittedRows(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()
	gen := genesisBlock(t)

	s, _ := g.BeginSession(ctx)
	if err := r.Append(ctx, s, gen); err != nil {
		t.Fatalf("Append: %v", err)
	}

	last, err := r.LastBlockInSession(ctx, s)
	if err != nil {
		t.Fatalf("LastBlockInSession: %v", err)
	}
	if last == nil || last.BlockNumber != 0 {
		t.Fatalf("expected to see uncommitted genesis row, got %+v", last)
	}
	s.Rollback()
	t.Log("✓ LastBlockInSession observes the caller's own uncommitted transaction")
}

func TestBatchAppendAndCount(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	blocks := []*block.Block{gen}
	prevHash := gen.Hash
	for i := uint64(1); i <= 5; i++ {
		b := signedBlockAt(t, i, prevHash, fmt.Sprintf("payload-%d", i))
		blocks = append(blocks, b)
		prevHash = b.Hash
	}

	s, _ := g.BeginSession(ctx)
	if err := r.BatchAppend(ctx, s, blocks); err != nil {
		t.Fatalf("BatchAppend: %v", err)
	}
	s.Commit()

	count, err := r.Count(ctx, g.AdHocSession())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 rows, got %d", count)
	}
	t.Log("✓ batch-appended chain counts correctly")
}

func TestRollbackTo(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	blocks := []*block.Block{gen}
	prevHash := gen.Hash
	for i := uint64(1); i <= 3; i++ {
		b := signedBlockAt(t, i, prevHash, fmt.Sprintf("payload-%d", i))
		blocks = append(blocks, b)
		prevHash = b.Hash
	}
	s, _ := g.BeginSession(ctx)
	r.BatchAppend(ctx, s, blocks)
	s.Commit()

	s2, _ := g.BeginSession(ctx)
	if err := r.RollbackTo(ctx, s2, 1); err != nil {
		t.Fatalf("RollbackTo: %v", err)
	}
	s2.Commit()

	count, _ := r.Count(ctx, g.AdHocSession())
	if count != 2 {
		t.Fatalf("expected 2 rows after rollback to 1, got %d", count)
	}
	exists, _ := r.Exists(ctx, g.AdHocSession(), 2)
	if exists {
		t.Fatal("expected block 2 to be gone after rollback")
	}
	t.Log("✓ RollbackTo deletes every block past the target number")
}

func TestByNumberWithPasswordWrongPasswordReturnsNil(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	envelope, err := crypto.Encrypt("correct-horse", gen.Data)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	gen.IsEncrypted = true
	gen.EncryptionMetadata = envelope

	s, _ := g.BeginSession(ctx)
	r.Append(ctx, s, gen)
	s.Commit()

	got, err := r.ByNumberWithPassword(ctx, g.AdHocSession(), 0, "wrong-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil block on wrong password")
	}

	got, err = r.ByNumberWithPassword(ctx, g.AdHocSession(), 0, "correct-horse")
	if err != nil {
		t.Fatalf("ByNumberWithPassword: %v", err)
	}
	if got == nil || got.Data != "genesis" {
		t.Fatalf("expected decrypted data 'genesis', got %+v", got)
	}
	t.Log("✓ ByNumberWithPassword distinguishes wrong password from correct one")
}

func TestPaginatedByCategory(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	gen.ContentCategory = "ops"
	blocks := []*block.Block{gen}
	prevHash := gen.Hash
	categories := []string{"finance", "ops", "finance"}
	for i, cat := range categories {
		b := signedBlockAt(t, uint64(i+1), prevHash, "payload")
		b.ContentCategory = cat
		blocks = append(blocks, b)
		prevHash = b.Hash
	}
	s, _ := g.BeginSession(ctx)
	r.BatchAppend(ctx, s, blocks)
	s.Commit()

	results, err := r.Paginated(ctx, g.AdHocSession(), Filter{Kind: FilterByCategory, ContentCategory: "Finance"}, 0, 10)
	if err != nil {
		t.Fatalf("Paginated: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 finance blocks, got %d", len(results))
	}
	t.Log("✓ category filter matches case-insensitively")
}

func TestStreamAllVisitsEveryBlockInOrder(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	blocks := []*block.Block{gen}
	prevHash := gen.Hash
	for i := uint64(1); i <= 10; i++ {
		b := signedBlockAt(t, i, prevHash, fmt.Sprintf("payload-%d", i))
		blocks = append(blocks, b)
		prevHash = b.Hash
	}
	s, _ := g.BeginSession(ctx)
	r.BatchAppend(ctx, s, blocks)
	s.Commit()

	var seen []uint64
	err = r.StreamAll(ctx, g.AdHocSession(), func(b *block.Block) error {
		seen = append(seen, b.BlockNumber)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamAll: %v", err)
	}
	if len(seen) != 11 {
		t.Fatalf("expected 11 blocks streamed, got %d", len(seen))
	}
	for i, n := range seen {
		if n != uint64(i) {
			t.Fatalf("expected block %d at position %d, got %d", i, i, n)
		}
	}
	t.Log("✓ StreamAll visits every block in ascending blockNumber order")
}

func TestSearchByContentPrioritizesManualKeywords(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	b1 := signedBlockAt(t, 1, gen.Hash, "payload")
	b1.AutoKeywords = "invoice"
	b2 := signedBlockAt(t, 2, b1.Hash, "payload")
	b2.ManualKeywords = "invoice"

	s, _ := g.BeginSession(ctx)
	r.BatchAppend(ctx, s, []*block.Block{gen, b1, b2})
	s.Commit()

	results, err := r.SearchByContent(ctx, g.AdHocSession(), "invoice", SearchFastOnly)
	if err != nil {
		t.Fatalf("SearchByContent: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	if results[0].BlockNumber != 2 {
		t.Fatalf("expected manual-keyword block 2 first, got block %d", results[0].BlockNumber)
	}
	t.Log("✓ manual-keyword blocks sort ahead of auto-keyword blocks")
}

func TestSearchByCustomMetadataKeyValue(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	b1 := signedBlockAt(t, 1, gen.Hash, "payload")
	b1.CustomMetadata = `{"department":"legal"}`
	b2 := signedBlockAt(t, 2, b1.Hash, "payload")
	b2.CustomMetadata = `{"department":"eng"}`
	b3 := signedBlockAt(t, 3, b2.Hash, "payload")
	b3.CustomMetadata = `not-json`

	s, _ := g.BeginSession(ctx)
	r.BatchAppend(ctx, s, []*block.Block{gen, b1, b2, b3})
	s.Commit()

	results, err := r.SearchByCustomMetadataKeyValuePaginated(ctx, g.AdHocSession(), "department", "legal", 0, 10)
	if err != nil {
		t.Fatalf("SearchByCustomMetadataKeyValuePaginated: %v", err)
	}
	if len(results) != 1 || results[0].BlockNumber != 1 {
		t.Fatalf("expected only block 1 to match, got %+v", results)
	}
	t.Log("✓ custom-metadata key/value search skips malformed JSON rows without erroring")
}

func TestByNumbersAndByHashes(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	b1 := signedBlockAt(t, 1, gen.Hash, "payload")
	s, _ := g.BeginSession(ctx)
	r.BatchAppend(ctx, s, []*block.Block{gen, b1})
	s.Commit()

	byNum, err := r.ByNumbers(ctx, g.AdHocSession(), []uint64{0, 1})
	if err != nil {
		t.Fatalf("ByNumbers: %v", err)
	}
	if len(byNum) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(byNum))
	}

	byHash, err := r.ByHashes(ctx, g.AdHocSession(), []string{gen.Hash, b1.Hash})
	if err != nil {
		t.Fatalf("ByHashes: %v", err)
	}
	if len(byHash) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(byHash))
	}
	t.Log("✓ batch lookups by number and by hash both round-trip")
}

func TestOffChainDataPersistsAndSearches(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	b1 := signedBlockAt(t, 1, gen.Hash, "on-chain payload")
	b1.OffChainData = &block.OffChainData{BlockNumber: 1, Payload: "archived contract scan"}
	b2 := signedBlockAt(t, 2, b1.Hash, "plain")

	s, _ := g.BeginSession(ctx)
	if err := r.BatchAppend(ctx, s, []*block.Block{gen, b1, b2}); err != nil {
		t.Fatalf("BatchAppend: %v", err)
	}
	s.Commit()

	withOffChain, err := r.Paginated(ctx, g.AdHocSession(), Filter{Kind: FilterWithOffChainData}, 0, 10)
	if err != nil {
		t.Fatalf("Paginated with-off-chain: %v", err)
	}
	if len(withOffChain) != 1 || withOffChain[0].BlockNumber != 1 {
		t.Fatalf("expected only block 1 to carry off-chain data, got %+v", withOffChain)
	}

	// FAST_ONLY must not see the off-chain payload; EXHAUSTIVE_OFFCHAIN must.
	fast, err := r.SearchByContent(ctx, g.AdHocSession(), "archived contract", SearchFastOnly)
	if err != nil {
		t.Fatalf("SearchByContent fast: %v", err)
	}
	if len(fast) != 0 {
		t.Fatalf("fast search should not match off-chain payloads, got %d results", len(fast))
	}
	exhaustive, err := r.SearchByContent(ctx, g.AdHocSession(), "archived contract", SearchExhaustiveOffchain)
	if err != nil {
		t.Fatalf("SearchByContent exhaustive: %v", err)
	}
	if len(exhaustive) != 1 || exhaustive[0].BlockNumber != 1 {
		t.Fatalf("expected exhaustive search to find block 1 via its off-chain payload, got %+v", exhaustive)
	}

	if err := r.AttachOffChainData(ctx, g.AdHocSession(), exhaustive); err != nil {
		t.Fatalf("AttachOffChainData: %v", err)
	}
	if exhaustive[0].OffChainData == nil || exhaustive[0].OffChainData.Payload != "archived contract scan" {
		t.Fatalf("expected attached off-chain payload, got %+v", exhaustive[0].OffChainData)
	}
	t.Log("✓ off-chain data persists with its block and is reachable by filter and exhaustive search")
}

func TestStreamByCustomMetadataKeyValue(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	ctx := context.Background()

	gen := genesisBlock(t)
	blocks := []*block.Block{gen}
	prevHash := gen.Hash
	var wantFin []uint64
	for i := uint64(1); i <= 10; i++ {
		b := signedBlockAt(t, i, prevHash, "payload")
		if i%2 == 0 {
			b.CustomMetadata = `{"dept":"fin"}`
			wantFin = append(wantFin, i)
		} else {
			b.CustomMetadata = `{"dept":"ops"}`
		}
		blocks = append(blocks, b)
		prevHash = b.Hash
	}
	s, _ := g.BeginSession(ctx)
	r.BatchAppend(ctx, s, blocks)
	s.Commit()

	var streamed []uint64
	err = r.StreamByCustomMetadataKeyValue(ctx, g.AdHocSession(), "dept", "fin", func(b *block.Block) error {
		streamed = append(streamed, b.BlockNumber)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamByCustomMetadataKeyValue: %v", err)
	}
	if len(streamed) != len(wantFin) {
		t.Fatalf("streamed %d blocks, want %d", len(streamed), len(wantFin))
	}
	for i, n := range streamed {
		if n != wantFin[i] {
			t.Fatalf("streamed[%d] = %d, want %d", i, n, wantFin[i])
		}
	}

	paginated, err := r.SearchByCustomMetadataKeyValuePaginated(ctx, g.AdHocSession(), "dept", "fin", 0, 10)
	if err != nil {
		t.Fatalf("SearchByCustomMetadataKeyValuePaginated: %v", err)
	}
	if len(paginated) != len(wantFin) {
		t.Fatalf("paginated returned %d blocks, want %d", len(paginated), len(wantFin))
	}
	t.Log("✓ streaming and paginated metadata key/value search yield the same set")
}

func TestSchemaVersionEmptyTable(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	_, ok, err := r.SchemaVersion(context.Background(), g.AdHocSession())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if ok {
		t.Fatal("expected no schema version on a freshly bootstrapped database")
	}
	t.Log("✓ SchemaVersion reports absence on an unmigrated database")
}

func TestBoundedReadRejectsOutOfRangeMaxResults(t *testing.T) {
	g := openTestGateway(t)
	r, err := NewRepository(g)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if _, err := r.BoundedRead(context.Background(), g.AdHocSession(), Filter{Kind: FilterAll}, 0); !lerrors.Is(err, lerrors.ErrInvalidArgument) {
		t.Fatalf("expected maxResults=0 to fail as an invalid argument, got %v", err)
	}
	if _, err := r.BoundedRead(context.Background(), g.AdHocSession(), Filter{Kind: FilterAll}, maxResultsCeiling+1); !lerrors.Is(err, lerrors.ErrInvalidArgument) {
		t.Fatalf("expected maxResults above the ceiling to fail as an invalid argument, got %v", err)
	}
	t.Log("✓ BoundedRead enforces the maxResults range")
}
