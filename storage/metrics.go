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

import "github.com/VictoriaMetrics/metrics"

var (
	appendedBlocksTotal  = metrics.NewCounter(`blockledger_append_total`)
	batchAppendRowsTotal = metrics.NewCounter(`blockledger_batch_append_rows_total`)
	streamBatchesTotal   = metrics.NewCounter(`blockledger_stream_batches_total`)
	cacheHitsTotal       = metrics.NewCounter(`blockledger_block_cache_hits_total`)
	cacheMissesTotal     = metrics.NewCounter(`blockledger_block_cache_misses_total`)

	searchQueriesFast       = metrics.NewCounter(`blockledger_search_queries_total{level="fast"}`)
	searchQueriesData       = metrics.NewCounter(`blockledger_search_queries_total{level="include_data"}`)
	searchQueriesExhaustive = metrics.NewCounter(`blockledger_search_queries_total{level="exhaustive_offchain"}`)

	readLatencySeconds = metrics.NewHistogram(`blockledger_read_latency_seconds`)
)

func searchCounterFor(level SearchLevel) *metrics.Counter {
	switch level {
	case SearchIncludeData:
		return searchQueriesData
	case SearchExhaustiveOffchain:
		return searchQueriesExhaustive
	default:
		return searchQueriesFast
	}
}
