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
	"encoding/json"
	"sort"

	"github.com/n42blockchain/blockledger/common/block"
	"github.com/n42blockchain/blockledger/log"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

// SearchLevel controls how much of a block's content a content search
// examines.
type SearchLevel int

const (
	// SearchFastOnly matches manual/auto keywords and searchable content.
	SearchFastOnly SearchLevel = iota
	// SearchIncludeData additionally matches the raw (plaintext) data field.
	SearchIncludeData
	// SearchExhaustiveOffchain additionally matches off-chain payloads.
	SearchExhaustiveOffchain
)

// SearchByContent runs a content search at the given level and returns
// results ordered by priority: blocks with manual keywords first, then
// blocks with auto keywords, then by descending blockNumber (recency).
// The in-memory re-sort is authoritative; the order SQL returns rows in
// is irrelevant.
func (r *Repository) SearchByContent(ctx context.Context, s *Session, query string, level SearchLevel) ([]*block.Block, error) {
	searchCounterFor(level).Inc()

	like := "%" + query + "%"
	sqlQuery := selectColumns + ` FROM block WHERE manual_keywords LIKE ` + s.placeholder(1) +
		` OR auto_keywords LIKE ` + s.placeholder(2) + ` OR searchable_content LIKE ` + s.placeholder(3)
	args := []any{like, like, like}

	if level >= SearchIncludeData {
		sqlQuery += ` OR data LIKE ` + s.placeholder(4)
		args = append(args, like)
	}

	rows, err := s.querier().QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: SearchByContent")
	}
	results, err := collectBlocks(rows, 0)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if level >= SearchExhaustiveOffchain {
		offchainMatches, err := r.searchOffChainPayload(ctx, s, like)
		if err != nil {
			return nil, err
		}
		results = mergeUnique(results, offchainMatches)
	}

	sortBySearchPriority(results)
	return results, nil
}

func (r *Repository) searchOffChainPayload(ctx context.Context, s *Session, like string) ([]*block.Block, error) {
	query := `SELECT b.block_number FROM block_offchain o JOIN block b ON b.block_number = o.block_number WHERE o.payload LIKE ` + s.placeholder(1)
	rows, err := s.querier().QueryContext(ctx, query, like)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: search off-chain payload")
	}
	defer rows.Close()

	var numbers []uint64
	for rows.Next() {
		var n uint64
		if err := rows.Scan(&n); err != nil {
			return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: scan off-chain match")
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return nil, nil
	}
	return r.ByNumbers(ctx, s, numbers)
}

func mergeUnique(a, b []*block.Block) []*block.Block {
	seen := make(map[uint64]bool, len(a))
	for _, blk := range a {
		seen[blk.BlockNumber] = true
	}
	for _, blk := range b {
		if !seen[blk.BlockNumber] {
			a = append(a, blk)
			seen[blk.BlockNumber] = true
		}
	}
	return a
}

// sortBySearchPriority orders results: manual-keyword blocks first, then
// auto-keyword blocks, then descending blockNumber within each tier.
func sortBySearchPriority(results []*block.Block) {
	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := searchPriority(results[i]), searchPriority(results[j])
		if pi != pj {
			return pi < pj
		}
		return results[i].BlockNumber > results[j].BlockNumber
	})
}

func searchPriority(b *block.Block) int {
	if b.ManualKeywords != "" {
		return 0
	}
	if b.AutoKeywords != "" {
		return 1
	}
	return 2
}

// matchesMetadataKeyValue tolerantly parses b's CustomMetadata and
// compares the named key's value. A parse failure is logged at debug
// level and the row skipped, never propagated. Parsed results are
// memoized by CustomMetadata's exact text, since the same metadata
// string recurs across many rows in a typical ledger.
func (r *Repository) matchesMetadataKeyValue(b *block.Block, key, value string) bool {
	if b.CustomMetadata == "" {
		return false
	}

	obj, ok := r.metadataMemo.Get(b.CustomMetadata)
	if !ok {
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(b.CustomMetadata), &parsed); err != nil {
			log.Debug("skipping block with malformed custom metadata", "blockNumber", b.BlockNumber, "err", err)
			return false
		}
		obj = parsed
		r.metadataMemo.Set(b.CustomMetadata, obj)
	}

	v, ok := obj[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s == value
}

func logPaginationCapReached() {
	log.Warn("paginated custom-metadata scan hit its batch cap; use the streaming variant for complete results",
		"maxBatches", maxPaginatedScanBatches, "batchSize", streamBatchSize)
}

// SearchByCustomMetadataKeyValuePaginated is the paginated entry point
// for exact key/value custom-metadata search.
func (r *Repository) SearchByCustomMetadataKeyValuePaginated(ctx context.Context, s *Session, key, value string, offset uint64, limit uint32) ([]*block.Block, error) {
	f := Filter{Kind: FilterMetadataKeyValue, MetadataKey: key, MetadataValue: value}
	return r.Paginated(ctx, s, f, offset, limit)
}
