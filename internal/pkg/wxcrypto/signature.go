// Package wxcrypto implements the official-account callback signature
// scheme and the secure-mode message envelope (AES-256-CBC with the
// platform's key/IV convention).
package wxcrypto

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// VerifySignature checks the plain callback signature: SHA-1 over the
// lexicographically sorted concatenation of {token, timestamp, nonce}.
// Missing inputs fail verification, they never panic.
func VerifySignature(signature, timestamp, nonce, token string) bool {
	if signature == "" || timestamp == "" || nonce == "" || token == "" {
		return false
	}
	expected := sortedDigest(token, timestamp, nonce)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// EnvelopeSignature computes the secure-mode message signature over the
// encrypted payload: the same sorted-concatenation scheme with the
// ciphertext as a fourth element.
func EnvelopeSignature(token, timestamp, nonce, encrypted string) string {
	return sortedDigest(token, timestamp, nonce, encrypted)
}

// VerifyEnvelopeSignature checks msg_signature against the encrypted payload.
func VerifyEnvelopeSignature(signature, token, timestamp, nonce, encrypted string) bool {
	if signature == "" || timestamp == "" || nonce == "" || token == "" || encrypted == "" {
		return false
	}
	expected := EnvelopeSignature(token, timestamp, nonce, encrypted)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func sortedDigest(parts ...string) string {
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}
