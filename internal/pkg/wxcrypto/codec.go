package wxcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/wx-callback-gateway/internal/domain"
)

// The envelope pads to 32-byte blocks regardless of the AES block size;
// that is the platform's convention, not a cipher requirement.
const padBlockSize = 32

// deriveKey turns the 43-character EncodingAESKey into the 32-byte AES key.
// The platform hands out the key material with its base64 padding stripped.
func deriveKey(encodingAESKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encodingAESKey + "=")
	if err != nil {
		return nil, fmt.Errorf("decode aes key: %w", domain.ErrDecryptFailed)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("aes key is %d bytes, want 32: %w", len(key), domain.ErrDecryptFailed)
	}
	return key, nil
}

// Decrypt unwraps a secure-mode envelope and returns the plaintext message.
// Layout after CBC decryption and pad stripping:
//
//	16 random bytes | 4-byte big-endian length | message | appid
//
// The trailing appid must match exactly; a mismatch means the message was
// encrypted for a different account and is rejected outright.
func Decrypt(encryptedB64, encodingAESKey, appID string) (string, error) {
	key, err := deriveKey(encodingAESKey)
	if err != nil {
		return "", err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", domain.ErrDecryptFailed)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("ciphertext length %d: %w", len(ciphertext), domain.ErrDecryptFailed)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", domain.ErrDecryptFailed)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, key[:aes.BlockSize]).CryptBlocks(plain, ciphertext)

	plain, err = stripPadding(plain)
	if err != nil {
		return "", err
	}
	if len(plain) < 20 {
		return "", fmt.Errorf("envelope too short: %w", domain.ErrDecryptFailed)
	}
	msgLen := binary.BigEndian.Uint32(plain[16:20])
	if int(msgLen) > len(plain)-20 {
		return "", fmt.Errorf("message length %d exceeds envelope: %w", msgLen, domain.ErrDecryptFailed)
	}
	msg := plain[20 : 20+msgLen]
	tail := plain[20+msgLen:]
	if string(tail) != appID {
		return "", fmt.Errorf("appid mismatch: %w", domain.ErrDecryptFailed)
	}
	return string(msg), nil
}

// Encrypt wraps a plaintext reply into a secure-mode envelope.
func Encrypt(plaintext, encodingAESKey, appID string) (string, error) {
	key, err := deriveKey(encodingAESKey)
	if err != nil {
		return "", err
	}

	random := make([]byte, 16)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("generate random prefix: %w", err)
	}
	var msgLen [4]byte
	binary.BigEndian.PutUint32(msgLen[:], uint32(len(plaintext)))

	buf := make([]byte, 0, 20+len(plaintext)+len(appID)+padBlockSize)
	buf = append(buf, random...)
	buf = append(buf, msgLen[:]...)
	buf = append(buf, plaintext...)
	buf = append(buf, appID...)
	buf = applyPadding(buf)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	ciphertext := make([]byte, len(buf))
	cipher.NewCBCEncrypter(block, key[:aes.BlockSize]).CryptBlocks(ciphertext, buf)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// applyPadding pads to a multiple of padBlockSize, filling with the pad
// length itself. A buffer already on a boundary gets a full extra block.
func applyPadding(b []byte) []byte {
	padLen := padBlockSize - len(b)%padBlockSize
	if padLen == 0 {
		padLen = padBlockSize
	}
	return append(b, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func stripPadding(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty plaintext: %w", domain.ErrDecryptFailed)
	}
	padLen := int(b[len(b)-1])
	if padLen < 1 || padLen > padBlockSize || padLen > len(b) {
		return nil, fmt.Errorf("bad padding length %d: %w", padLen, domain.ErrDecryptFailed)
	}
	return b[:len(b)-padLen], nil
}
