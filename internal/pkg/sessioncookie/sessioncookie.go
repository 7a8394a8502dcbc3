// Package sessioncookie seals the session payload into the client-side
// cookie. The token format is part of the deployed client contract:
// hex(iv):hex(tag):hex(ciphertext), AES-256-GCM under SHA-256(secret)
// with a random 16-byte nonce.
package sessioncookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wx-callback-gateway/internal/domain"
)

const (
	nonceSize = 16
	tagSize   = 16
)

func newGCM(secret string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

// Seal serializes and encrypts session data into a cookie token.
func Seal(data domain.SessionData, secret string) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	gcm, err := newGCM(secret)
	if err != nil {
		return "", fmt.Errorf("init session cipher: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate session nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Open decrypts and parses a cookie token. Every failure mode, malformed
// structure, bad hex, tag mismatch, or broken JSON, comes back as
// domain.ErrSessionInvalid; callers treat it as "no session".
func Open(token, secret string) (domain.SessionData, error) {
	var data domain.SessionData
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return data, fmt.Errorf("token has %d parts: %w", len(parts), domain.ErrSessionInvalid)
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return data, fmt.Errorf("bad nonce: %w", domain.ErrSessionInvalid)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return data, fmt.Errorf("bad tag: %w", domain.ErrSessionInvalid)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return data, fmt.Errorf("bad ciphertext: %w", domain.ErrSessionInvalid)
	}
	gcm, err := newGCM(secret)
	if err != nil {
		return data, fmt.Errorf("init session cipher: %w", domain.ErrSessionInvalid)
	}
	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return data, fmt.Errorf("open session: %w", domain.ErrSessionInvalid)
	}
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return data, fmt.Errorf("parse session: %w", domain.ErrSessionInvalid)
	}
	return data, nil
}

// Config carries the cookie attributes.
type Config struct {
	Name   string
	MaxAge int // seconds
	Secure bool
}

// Write sets the session cookie on the response.
func Write(w http.ResponseWriter, cfg Config, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the raw session cookie value, or empty if absent.
func Read(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// Clear expires the session cookie.
func Clear(w http.ResponseWriter, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
