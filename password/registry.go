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

// Package password holds the in-process Password Registry: a map from
// block hash to the password that encrypted that block's payload, itself
// wrapped at rest with a process-local master key. Passwords are never
// persisted to the relational backend.
package password

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"sync"

	lerrors "github.com/n42blockchain/blockledger/pkg/errors"
)

const masterKeyLength = 32

// entry is a password ciphertext sealed under the registry's master key.
type entry struct {
	nonce      []byte
	ciphertext []byte
}

// Registry is the process-wide, thread-safe store mapping a block hash to
// the password used to encrypt that block. Reads (lookup/has/list) may run
// concurrently; register/remove/clear/shutdown take the write side.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]entry
	masterKey []byte
	gcm       cipher.AEAD
}

// New creates a Registry with a freshly generated, random master key.
func New() (*Registry, error) {
	key := make([]byte, masterKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, lerrors.Wrap(err, "password: generate master key")
	}
	return newWithKey(key)
}

func newWithKey(key []byte) (*Registry, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, lerrors.Wrap(err, "password: init master cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, lerrors.Wrap(err, "password: init master GCM")
	}
	return &Registry{
		entries:   make(map[string]entry),
		masterKey: key,
		gcm:       gcm,
	}, nil
}

// Register seals password under the master key and stores it keyed by
// blockHash, overwriting any prior entry for that hash.
func (r *Registry) Register(blockHash, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.masterKey == nil {
		return lerrors.WithKind(lerrors.KindInvalidArgument, nil, "password: registry already shut down")
	}

	nonce := make([]byte, r.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return lerrors.Wrap(err, "password: generate nonce")
	}
	ciphertext := r.gcm.Seal(nil, nonce, []byte(password), nil)

	r.entries[blockHash] = entry{nonce: nonce, ciphertext: ciphertext}
	return nil
}

// Lookup returns the password registered for blockHash, and whether one
// was found.
func (r *Registry) Lookup(blockHash string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[blockHash]
	if !ok {
		return "", false, nil
	}

	plaintext, err := r.gcm.Open(nil, e.nonce, e.ciphertext, nil)
	if err != nil {
		return "", false, lerrors.WithKind(lerrors.KindIntegrityViolation, err, "password: master-key seal verification failed")
	}
	return string(plaintext), true, nil
}

// Has reports whether a password is registered for blockHash.
func (r *Registry) Has(blockHash string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[blockHash]
	return ok
}

// Remove deletes the password registered for blockHash, if any.
func (r *Registry) Remove(blockHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, blockHash)
}

// List returns every block hash currently holding a registered password.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hashes := make([]string, 0, len(r.entries))
	for h := range r.entries {
		hashes = append(hashes, h)
	}
	return hashes
}

// Clear removes every registered password without zeroing the master key.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]entry)
}

// Shutdown clears all entries and best-effort zeroes the master key. The
// registry must not be used afterward.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]entry)
	for i := range r.masterKey {
		r.masterKey[i] = 0
	}
	r.masterKey = nil
	r.gcm = nil
}
