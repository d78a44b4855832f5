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

package block

import (
	"encoding/json"

	"github.com/n42blockchain/blockledger/common/crypto"
)

// CustomMetadataValue parses CustomMetadata as a JSON object and looks up
// key. A parse failure or missing key both return ok=false; malformed
// metadata never fails a search, it only excludes that row.
func (b *Block) CustomMetadataValue(key string) (string, bool) {
	if b.CustomMetadata == "" {
		return "", false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(b.CustomMetadata), &obj); err != nil {
		return "", false
	}
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}

// ValidateEncryptionInvariant reports whether the encryption fields are
// coherent: when IsEncrypted is set, EncryptionMetadata must be a
// well-formed AES-GCM envelope.
func (b *Block) ValidateEncryptionInvariant() bool {
	if !b.IsEncrypted {
		return true
	}
	return crypto.IsValidEnvelope(b.EncryptionMetadata)
}
