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
	"database/sql"
	"time"

	"github.com/n42blockchain/blockledger/common/block"
)

const selectColumns = `SELECT block_number, previous_hash, ts, data, signer_public_key, recipient_public_key,
	is_encrypted, encryption_metadata, hash, signature, manual_keywords, auto_keywords,
	searchable_content, content_category, custom_metadata`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row rowScanner) (*block.Block, error) {
	var (
		b   block.Block
		ts  int64
		recipient, encMeta, manual, auto, searchable, category, customMeta sql.NullString
	)

	if err := row.Scan(
		&b.BlockNumber, &b.PreviousHash, &ts, &b.Data, &b.SignerPublicKey, &recipient,
		&b.IsEncrypted, &encMeta, &b.Hash, &b.Signature, &manual, &auto,
		&searchable, &category, &customMeta,
	); err != nil {
		return nil, err
	}

	b.Timestamp = time.Unix(ts, 0).UTC()
	b.RecipientPublicKey = recipient.String
	b.EncryptionMetadata = encMeta.String
	b.ManualKeywords = manual.String
	b.AutoKeywords = auto.String
	b.SearchableContent = searchable.String
	b.ContentCategory = category.String
	b.CustomMetadata = customMeta.String

	return &b, nil
}
