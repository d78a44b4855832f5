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
	"fmt"
	"math"
	"time"

	"github.com/n42blockchain/blockledger/common/block"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

// Filter selects which predicate a paginated/bounded/streaming read
// applies. The zero value, FilterAll, matches every row.
type Filter struct {
	Kind FilterKind

	// TimeRange fields (FilterTimeRange).
	After, Before time.Time

	// AfterNumber fields (FilterAfterNumber).
	AfterNumber uint64

	// Equality fields, reused across several filter kinds.
	SignerPublicKey    string
	RecipientPublicKey string
	ContentCategory    string

	// Custom-metadata filters.
	MetadataLike      string
	MetadataKey       string
	MetadataValue     string
}

// FilterKind enumerates the predicates paginated/bounded/streaming reads
// support.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterTimeRange
	FilterWithOffChainData
	FilterEncrypted
	FilterAfterNumber
	FilterBySigner
	FilterByRecipient
	FilterByCategory
	FilterMetadataLike
	FilterMetadataKeyValue
)

// whereClause renders f's SQL predicate and bound arguments using s's
// placeholder style, starting at parameter index startAt (1-based).
func whereClause(s *Session, f Filter, startAt int) (string, []any) {
	switch f.Kind {
	case FilterAll:
		return "", nil
	case FilterTimeRange:
		return fmt.Sprintf("WHERE ts >= %s AND ts <= %s", s.placeholder(startAt), s.placeholder(startAt+1)),
			[]any{f.After.UTC().Unix(), f.Before.UTC().Unix()}
	case FilterWithOffChainData:
		return "WHERE block_number IN (SELECT block_number FROM block_offchain)", nil
	case FilterEncrypted:
		return fmt.Sprintf("WHERE is_encrypted = %s", s.placeholder(startAt)), []any{true}
	case FilterAfterNumber:
		return fmt.Sprintf("WHERE block_number > %s", s.placeholder(startAt)), []any{f.AfterNumber}
	case FilterBySigner:
		return fmt.Sprintf("WHERE signer_public_key = %s", s.placeholder(startAt)), []any{f.SignerPublicKey}
	case FilterByRecipient:
		return fmt.Sprintf("WHERE recipient_public_key = %s", s.placeholder(startAt)), []any{f.RecipientPublicKey}
	case FilterByCategory:
		return fmt.Sprintf("WHERE LOWER(content_category) = LOWER(%s)", s.placeholder(startAt)), []any{f.ContentCategory}
	case FilterMetadataLike:
		return fmt.Sprintf("WHERE custom_metadata LIKE %s", s.placeholder(startAt)), []any{"%" + f.MetadataLike + "%"}
	case FilterMetadataKeyValue:
		// custom_metadata is matched in application code (tolerant JSON
		// parsing); the SQL predicate only narrows to non-empty rows so
		// the scan doesn't walk the whole table in memory.
		return "WHERE custom_metadata IS NOT NULL", nil
	default:
		return "", nil
	}
}

func validateOffsetLimit(offset uint64, limit uint32) error {
	if limit == 0 {
		return lerrors.WithKind(lerrors.KindInvalidArgument, nil, "storage: limit must be > 0")
	}
	// database/sql binds integers as int64; an offset past that range
	// cannot be represented as a cursor position on any backend.
	if offset > math.MaxInt64 {
		return lerrors.WithKind(lerrors.KindInvalidArgument, nil, "storage: offset exceeds the representable cursor range")
	}
	return nil
}

func validateMaxResults(maxResults int) error {
	if maxResults < maxResultsFloor || maxResults > maxResultsCeiling {
		return lerrors.WithKind(lerrors.KindInvalidArgument, nil, fmt.Sprintf("storage: maxResults must be in [%d, %d]", maxResultsFloor, maxResultsCeiling))
	}
	return nil
}

// Paginated returns at most limit rows matching f, ordered by
// blockNumber, starting at offset. custom-metadata key/value matching
// (FilterMetadataKeyValue) is applied in application code after the SQL
// predicate narrows candidates, tolerantly skipping malformed JSON.
func (r *Repository) Paginated(ctx context.Context, s *Session, f Filter, offset uint64, limit uint32) ([]*block.Block, error) {
	if err := validateOffsetLimit(offset, limit); err != nil {
		return nil, err
	}
	defer readLatencySeconds.UpdateDuration(time.Now())

	if f.Kind == FilterMetadataKeyValue {
		return r.paginatedMetadataKeyValue(ctx, s, f, offset, limit)
	}

	where, args := whereClause(s, f, 1)
	query := selectColumns + ` FROM block ` + where + ` ORDER BY block_number ` +
		fmt.Sprintf("LIMIT %s OFFSET %s", s.placeholder(len(args)+1), s.placeholder(len(args)+2))
	args = append(args, limit, offset)

	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: paginated read")
	}
	defer rows.Close()

	return collectBlocks(rows, int(limit))
}

// paginatedMetadataKeyValue caps total iterations at
// maxPaginatedScanBatches batches of streamBatchSize, logging a warning
// and directing the caller to the streaming variant if the cap is hit
// before offset+limit rows have been collected.
func (r *Repository) paginatedMetadataKeyValue(ctx context.Context, s *Session, f Filter, offset uint64, limit uint32) ([]*block.Block, error) {
	where, _ := whereClause(s, f, 1)
	query := selectColumns + ` FROM block ` + where + ` ORDER BY block_number`

	rows, err := s.querier().QueryContext(ctx, query)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: metadata key/value scan")
	}
	defer rows.Close()

	var matched []*block.Block
	var skipped uint64
	batches := 0
	scannedInBatch := 0

	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: metadata key/value scan row")
		}
		if r.matchesMetadataKeyValue(b, f.MetadataKey, f.MetadataValue) {
			if skipped >= offset {
				matched = append(matched, b)
				if uint32(len(matched)) >= limit {
					break
				}
			} else {
				skipped++
			}
		}

		scannedInBatch++
		if scannedInBatch >= streamBatchSize {
			scannedInBatch = 0
			batches++
			if batches >= maxPaginatedScanBatches {
				logPaginationCapReached()
				break
			}
		}
	}
	return matched, nil
}

func collectBlocks(rows *sql.Rows, hint int) ([]*block.Block, error) {
	result := make([]*block.Block, 0, hint)
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: scan row")
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: row iteration")
	}
	return result, nil
}

// BoundedRead returns up to maxResults rows matching f in blockNumber
// order, with no offset. maxResults outside [1, 10000] fails loudly,
// directing the caller to a streaming variant instead.
func (r *Repository) BoundedRead(ctx context.Context, s *Session, f Filter, maxResults int) ([]*block.Block, error) {
	if err := validateMaxResults(maxResults); err != nil {
		return nil, err
	}
	return r.Paginated(ctx, s, f, 0, uint32(maxResults))
}

// ByNumbers batch-retrieves rows via a single IN query. Batch size is
// capped at batchLookupCap; exceeding it fails loudly.
func (r *Repository) ByNumbers(ctx context.Context, s *Session, numbers []uint64) ([]*block.Block, error) {
	if len(numbers) > batchLookupCap {
		return nil, lerrors.WithKind(lerrors.KindInvalidArgument, nil, fmt.Sprintf("storage: batch size %d exceeds cap %d", len(numbers), batchLookupCap))
	}
	if len(numbers) == 0 {
		return nil, nil
	}

	args := make([]any, len(numbers))
	ph := make([]byte, 0, len(numbers)*2)
	for i, n := range numbers {
		args[i] = n
		if i > 0 {
			ph = append(ph, ',')
		}
		ph = append(ph, []byte(s.placeholder(i+1))...)
	}

	query := selectColumns + ` FROM block WHERE block_number IN (` + string(ph) + `) ORDER BY block_number`
	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: ByNumbers")
	}
	defer rows.Close()
	return collectBlocks(rows, len(numbers))
}

// ByHashes batch-retrieves rows by hash via a single IN query, with the
// same cap as ByNumbers.
func (r *Repository) ByHashes(ctx context.Context, s *Session, hashes []string) ([]*block.Block, error) {
	if len(hashes) > batchLookupCap {
		return nil, lerrors.WithKind(lerrors.KindInvalidArgument, nil, fmt.Sprintf("storage: batch size %d exceeds cap %d", len(hashes), batchLookupCap))
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	args := make([]any, len(hashes))
	ph := make([]byte, 0, len(hashes)*2)
	for i, h := range hashes {
		args[i] = h
		if i > 0 {
			ph = append(ph, ',')
		}
		ph = append(ph, []byte(s.placeholder(i+1))...)
	}

	query := selectColumns + ` FROM block WHERE hash IN (` + string(ph) + `) ORDER BY block_number`
	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: ByHashes")
	}
	defer rows.Close()
	return collectBlocks(rows, len(hashes))
}
