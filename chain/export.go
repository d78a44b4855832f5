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
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/n42blockchain/blockledger/common/block"
	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

// exportFile is the opaque backup file format: the ordered list of
// blocks with every persisted field and the original hash/signature,
// plus an id so two exports of the same chain are distinguishable on
// disk.
type exportFile struct {
	ExportID  string         `json:"exportId"`
	ExportedAt time.Time     `json:"exportedAt"`
	Blocks    []*block.Block `json:"blocks"`
}

// Export writes every block, in order, to path as JSON. It takes no lock
// (it is a pure read), so a block appended while it streams may or may
// not be included. The Recovery Manager's partial export does not go
// through Export; it writes its prefix with ExportPrefix while the
// recovery ladder holds the write lock.
func (s *Service) Export(ctx context.Context, path string) error {
	sess := s.gateway.AdHocSession()
	var blocks []*block.Block
	if err := s.repo.StreamAll(ctx, sess, func(b *block.Block) error {
		blocks = append(blocks, b)
		return nil
	}); err != nil {
		return err
	}
	if err := s.repo.AttachOffChainData(ctx, sess, blocks); err != nil {
		return err
	}
	return writeExportFile(path, blocks)
}

// ExportPrefix writes blocks to a timestamped backup path under dir,
// returning the path written. This is the Chain Service's export
// facility the Recovery Manager's partial-export strategy goes through,
// rather than writing files on its own.
func (s *Service) ExportPrefix(blocks []*block.Block, dir string) (string, error) {
	path := dir + "/partial-export-" + formatRecoveryTimestamp(nowUTC()) + "-" + uuid.NewString() + ".json"
	if err := writeExportFile(path, blocks); err != nil {
		return "", err
	}
	return path, nil
}

func writeExportFile(path string, blocks []*block.Block) error {
	f := exportFile{ExportID: uuid.NewString(), ExportedAt: nowUTC(), Blocks: blocks}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return lerrors.Wrap(err, "chain: marshal export file")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "chain: write export file")
	}
	return nil
}

// Import replaces the chain atomically: delete-all, bulk insert, flush.
// Every invariant is verified before anything is committed; a chain
// that fails verification is rejected without touching the database.
func (s *Service) Import(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return lerrors.WithKind(lerrors.KindBackendFailure, err, "chain: read import file")
	}
	var f exportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return lerrors.WithKind(lerrors.KindInvalidArgument, err, "chain: malformed import file")
	}

	var prev *block.Block
	for _, b := range f.Blocks {
		if !ValidateSingle(prev, b) {
			return lerrors.WithKind(lerrors.KindIntegrityViolation, nil, "chain: import file fails invariant verification")
		}
		prev = b
	}

	s.lockWrite()
	defer s.unlockWrite()

	sess, err := s.gateway.BeginSession(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.ResetDeleteAll(ctx, sess); err != nil {
		sess.Rollback()
		return err
	}
	if err := s.repo.BatchAppend(ctx, sess, f.Blocks); err != nil {
		sess.Rollback()
		return err
	}
	return sess.Commit()
}

func nowUTC() time.Time { return time.Now().UTC() }
