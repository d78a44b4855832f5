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

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// saltLength is the random salt size fed to the KDF, in bytes.
	saltLength = 16
	// nonceLength is the GCM standard nonce size, in bytes.
	nonceLength = 12
	// keyLength is 32 bytes, matching AES-256.
	keyLength = 32

	// envelopeSeparator joins the base64 salt, nonce and ciphertext fields.
	envelopeSeparator = "."
)

// Argon2 parameters. Chosen to be memory-hard on a single-node ledger
// process without making interactive encryptExisting calls sluggish.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
)

// ErrAuthenticationFailure is returned by Decrypt when the AES-GCM
// authentication tag does not verify, either from a wrong password or
// corrupted ciphertext. It is the caller (ByNumberWithPassword) that
// turns this into a "no-access" nil return rather than an error.
var ErrAuthenticationFailure = errors.New("crypto: authentication tag verification failed")

// ErrMalformedEnvelope is returned when the stored envelope text cannot be
// parsed into its three base64 fields.
var ErrMalformedEnvelope = errors.New("crypto: malformed encryption envelope")

// deriveKey stretches a password into a 32-byte AES-256 key with Argon2id,
// the memory-hard KDF required for password-to-key derivation.
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, keyLength)
}

// Encrypt seals plaintext under a password, returning the base64-joined
// envelope "salt.nonce.ciphertext" stored as Block.EncryptionMetadata. The
// plaintext itself (Block.Data) is never mutated, so hashing is unaffected.
func Encrypt(password, plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ciphertext),
	}, envelopeSeparator), nil
}

// Decrypt opens an envelope produced by Encrypt. A wrong password or
// corrupted ciphertext both surface as ErrAuthenticationFailure, per the
// AES-GCM tag-mismatch requirement; a malformed envelope surfaces as
// ErrMalformedEnvelope.
func Decrypt(password, envelope string) (string, error) {
	parts := strings.Split(envelope, envelopeSeparator)
	if len(parts) != 3 {
		return "", ErrMalformedEnvelope
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedEnvelope
	}

	key := deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", ErrMalformedEnvelope
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrAuthenticationFailure
	}
	return string(plaintext), nil
}

// IsValidEnvelope reports whether s parses as a three-field envelope,
// without attempting to decrypt it. Lets an encrypted block's envelope
// be validated without a password.
func IsValidEnvelope(s string) bool {
	parts := strings.Split(s, envelopeSeparator)
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, err := base64.StdEncoding.DecodeString(p); err != nil {
			return false
		}
	}
	return true
}
