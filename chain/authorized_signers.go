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
	"sort"
	"sync"
	"time"
)

// AuthorizedSigners is the process-wide map from serialized signer
// public key to owner label, tracking which keys the operator currently
// trusts. It carries its own lock, the same way the Password Registry
// does (not the Chain Service's write lock), since adding or revoking a
// key is independent of appending a block.
type AuthorizedSigners struct {
	mu      sync.RWMutex
	owners  map[string]string
	revoked map[string]bool
}

// NewAuthorizedSigners returns an empty registry.
func NewAuthorizedSigners() *AuthorizedSigners {
	return &AuthorizedSigners{
		owners:  make(map[string]string),
		revoked: make(map[string]bool),
	}
}

// Authorize records publicKey as trusted under owner, clearing any
// earlier revocation.
func (a *AuthorizedSigners) Authorize(publicKey, owner string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.owners[publicKey] = owner
	delete(a.revoked, publicKey)
}

// Revoke marks publicKey as no longer trusted. The owner label is kept
// for audit purposes; IsAuthorized reports false regardless.
func (a *AuthorizedSigners) Revoke(publicKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[publicKey] = true
}

// IsAuthorized reports whether publicKey is currently trusted.
func (a *AuthorizedSigners) IsAuthorized(publicKey string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, known := a.owners[publicKey]
	return known && !a.revoked[publicKey]
}

// Owner returns the label publicKey was most recently authorized under,
// whether or not it is currently revoked.
func (a *AuthorizedSigners) Owner(publicKey string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	owner, ok := a.owners[publicKey]
	return owner, ok
}

// SignerState is one tracked key's persisted state: operator tooling
// (cmd/ledgerd) snapshots and restores these across process restarts,
// since the registry itself is in-memory only for the lifetime of a
// single Service.
type SignerState struct {
	PublicKey string
	Owner     string
	Revoked   bool
}

// Snapshot returns every tracked key's state, sorted by public key for a
// stable on-disk representation.
func (a *AuthorizedSigners) Snapshot() []SignerState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]SignerState, 0, len(a.owners))
	for key, owner := range a.owners {
		out = append(out, SignerState{PublicKey: key, Owner: owner, Revoked: a.revoked[key]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicKey < out[j].PublicKey })
	return out
}

// Restore replays a Snapshot produced by an earlier process, rebuilding
// the owner/revoked maps exactly as they were.
func (a *AuthorizedSigners) Restore(states []SignerState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, st := range states {
		a.owners[st.PublicKey] = st.Owner
		if st.Revoked {
			a.revoked[st.PublicKey] = true
		}
	}
}

// DerivedOwnerLabel builds the owner label a recovered key is
// re-authorized under: the original owner, suffixed with the recovery
// timestamp, so repeated recoveries of the same key are individually
// distinguishable in an audit trail.
func DerivedOwnerLabel(owner string, at time.Time) string {
	return owner + "-recovered-" + formatRecoveryTimestamp(at)
}

func formatRecoveryTimestamp(at time.Time) string {
	return at.UTC().Format("20060102T150405Z")
}
