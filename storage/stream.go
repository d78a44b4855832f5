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

	"github.com/n42blockchain/blockledger/common/block"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

// Consumer receives one streamed block at a time. Returning an error
// aborts the stream; the error is propagated to Stream's caller.
type Consumer func(b *block.Block) error

// Stream walks every row matching f in blockNumber order, calling
// consume once per block, without ever materializing the full result
// set in memory. Backends that advertise SupportsServerCursor drive a
// single open *sql.Rows, one row at a time; no fetch size is passed to
// the driver, so how many rows it buffers is the driver's own default.
// Backends that don't (the sqlite family, which has no true server-side
// cursor) are walked in manual pages of streamBatchSize rows apiece,
// each page fetched by its own query, so their memory use is bounded by
// streamBatchSize, not by chain length.
func (r *Repository) Stream(ctx context.Context, s *Session, f Filter, consume Consumer) error {
	if f.Kind == FilterMetadataKeyValue {
		// The SQL predicate only narrows to rows carrying any metadata;
		// the key/value match itself happens here, tolerantly, so a
		// malformed row is skipped rather than surfaced.
		inner := consume
		consume = func(b *block.Block) error {
			if !r.matchesMetadataKeyValue(b, f.MetadataKey, f.MetadataValue) {
				return nil
			}
			return inner(b)
		}
	}
	if s.capability().SupportsServerCursor {
		return r.streamCursor(ctx, s, f, consume)
	}
	return r.streamPaginated(ctx, s, f, consume)
}

func (r *Repository) streamCursor(ctx context.Context, s *Session, f Filter, consume Consumer) error {
	where, args := whereClause(s, f, 1)
	query := selectColumns + ` FROM block ` + where + ` ORDER BY block_number`

	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: open stream cursor")
	}
	defer rows.Close()

	inBatch := 0
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: stream scan row")
		}
		if err := consume(b); err != nil {
			return err
		}
		inBatch++
		if inBatch >= streamBatchSize {
			inBatch = 0
			streamBatchesTotal.Inc()
		}
	}
	if err := rows.Err(); err != nil {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: stream row iteration")
	}
	return nil
}

// streamPaginated walks a FilterKind with no server cursor in manual
// pages, each page a fresh "WHERE block_number > last ORDER BY
// block_number LIMIT streamBatchSize" query. This keyset style avoids
// OFFSET, whose cost grows with how far into the table the scan has
// already gone. last starts at -1 so the first page includes block 0.
func (r *Repository) streamPaginated(ctx context.Context, s *Session, f Filter, consume Consumer) error {
	lastSeen := int64(-1)

	for {
		where, args := whereClause(s, f, 2)
		var query string
		if where == "" {
			query = selectColumns + fmt.Sprintf(` FROM block WHERE block_number > %s ORDER BY block_number LIMIT %s`,
				s.placeholder(1), s.placeholder(2))
			args = []any{lastSeen, streamBatchSize}
		} else {
			cond := where[len("WHERE "):]
			query = selectColumns + fmt.Sprintf(` FROM block WHERE block_number > %s AND (%s) ORDER BY block_number LIMIT %s`,
				s.placeholder(1), cond, s.placeholder(len(args)+2))
			args = append([]any{lastSeen}, args...)
			args = append(args, streamBatchSize)
		}

		rows, err := s.querier().QueryContext(ctx, query, args...)
		if err != nil {
			return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: stream page query")
		}

		count := 0
		for rows.Next() {
			b, err := scanBlock(rows)
			if err != nil {
				rows.Close()
				return lerrors.WithKind(lerrors.KindBackendFailure, err, "storage: stream page scan")
			}
			if err := consume(b); err != nil {
				rows.Close()
				return err
			}
			lastSeen = int64(b.BlockNumber)
			count++
		}
		rowsErr := rows.Err()
		rows.Close()
		if rowsErr != nil {
			return lerrors.WithKind(lerrors.KindBackendFailure, rowsErr, "storage: stream page iteration")
		}

		streamBatchesTotal.Inc()
		if count < streamBatchSize {
			return nil
		}
	}
}

// StreamAll is a convenience wrapper over Stream with FilterAll.
func (r *Repository) StreamAll(ctx context.Context, s *Session, consume Consumer) error {
	return r.Stream(ctx, s, Filter{Kind: FilterAll}, consume)
}

// StreamByCustomMetadataKeyValue streams every block whose custom
// metadata carries key=value, in blockNumber order, bounded to one batch
// of memory irrespective of chain size.
func (r *Repository) StreamByCustomMetadataKeyValue(ctx context.Context, s *Session, key, value string, consume Consumer) error {
	return r.Stream(ctx, s, Filter{Kind: FilterMetadataKeyValue, MetadataKey: key, MetadataValue: value}, consume)
}
