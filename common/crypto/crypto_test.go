// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.

package crypto

import (
	"testing"
	"time"

	"github.com/n42blockchain/blockledger/common/types"
)

func TestCanonicalContentOrder(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	got := CanonicalContent(3, "abc", "hello", ts, "PUBKEY")
	want := "3" + "abc" + "hello" + "1700000000" + "PUBKEY"
	if got != want {
		t.Fatalf("CanonicalContent = %q, want %q", got, want)
	}
	t.Log("✓ canonical content concatenates fields with no separators")
}

func TestCanonicalContentTruncatesSubSecond(t *testing.T) {
	withNanos := time.Unix(1700000000, 999999999).UTC()
	onTheSecond := time.Unix(1700000000, 0).UTC()

	a := CanonicalContent(0, "0", "x", withNanos, "K")
	b := CanonicalContent(0, "0", "x", onTheSecond, "K")
	if a != b {
		t.Fatalf("sub-second precision leaked into canonical content: %q != %q", a, b)
	}
	t.Log("✓ canonical content truncates to epoch-seconds")
}

func TestHashHexDeterministic(t *testing.T) {
	content := CanonicalContent(0, "0", "hello", time.Unix(0, 0), types.GenesisSigner)
	if HashHex(content) != HashHex(content) {
		t.Fatal("HashHex is not deterministic")
	}
	if len(HashHex(content)) != 64 {
		t.Fatalf("expected 64 hex chars (32 bytes), got %d", len(HashHex(content)))
	}
	t.Log("✓ HashHex is deterministic and 256 bits wide")
}

func TestSignAndVerify(t *testing.T) {
	pk, err := GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	pub := types.NewPublicKey(pk.PubKey())

	content := CanonicalContent(1, "deadbeef", "payload", time.Now(), pub.Serialize())
	sig := Sign(pk, content)

	if !Verify(sig, content, pub) {
		t.Fatal("signature failed to verify against its own content and key")
	}
	t.Log("✓ signature verifies against the signing key")
}

func TestVerifyRejectsTamperedContent(t *testing.T) {
	pk, _ := GenerateSignerKey()
	pub := types.NewPublicKey(pk.PubKey())

	content := CanonicalContent(1, "deadbeef", "payload", time.Now(), pub.Serialize())
	sig := Sign(pk, content)

	if Verify(sig, content+"x", pub) {
		t.Fatal("signature unexpectedly verified against tampered content")
	}
	t.Log("✓ tampered content is rejected")
}

func TestVerifySkipsGenesisSigner(t *testing.T) {
	if Verify("", "anything", types.PublicKey{}) {
		t.Fatal("zero-value signer public key should never verify")
	}
	t.Log("✓ zero-value signer key never verifies, matching the GENESIS exemption")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	envelope, err := Encrypt("correct horse", "hello")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !IsValidEnvelope(envelope) {
		t.Fatal("produced envelope does not parse as valid")
	}

	plaintext, err := Decrypt("correct horse", envelope)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "hello" {
		t.Fatalf("Decrypt = %q, want %q", plaintext, "hello")
	}
	t.Log("✓ encrypt/decrypt round-trips")
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	envelope, _ := Encrypt("right", "secret data")

	_, err := Decrypt("wrong", envelope)
	if err != ErrAuthenticationFailure {
		t.Fatalf("Decrypt with wrong password = %v, want ErrAuthenticationFailure", err)
	}
	t.Log("✓ wrong password surfaces as ErrAuthenticationFailure, not silent corruption")
}

func TestDecryptMalformedEnvelope(t *testing.T) {
	_, err := Decrypt("pw", "not-an-envelope")
	if err != ErrMalformedEnvelope {
		t.Fatalf("Decrypt of garbage = %v, want ErrMalformedEnvelope", err)
	}
	t.Log("✓ malformed envelope is reported distinctly from auth failure")
}

func TestEncryptProducesFreshNonceEachCall(t *testing.T) {
	a, _ := Encrypt("pw", "same plaintext")
	b, _ := Encrypt("pw", "same plaintext")
	if a == b {
		t.Fatal("two encryptions of identical plaintext produced identical envelopes")
	}
	t.Log("✓ random salt/nonce defeats envelope-comparison leakage")
}
