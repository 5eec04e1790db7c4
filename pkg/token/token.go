package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	keyMu     sync.RWMutex
	secretKey []byte
)

// SessionPayload 是被签名的数据结构。
// It travels with every fill request after the session has been opened.
type SessionPayload struct {
	SessionID string `json:"s"`
	ChatID    int64  `json:"c"`
}

// GenerateSecretKey installs a fresh random 32-byte key. Signatures issued
// before a restart stop validating, which simply expires open fill sessions.
func GenerateSecretKey() error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("token: cannot generate secret key: %w", err)
	}
	SetSecretKey(key)
	return nil
}

// SetSecretKey installs a fixed key, e.g. one loaded from configuration.
func SetSecretKey(key []byte) {
	keyMu.Lock()
	defer keyMu.Unlock()
	secretKey = append([]byte(nil), key...)
}

func sign(payload SessionPayload) ([]byte, error) {
	keyMu.RLock()
	defer keyMu.RUnlock()
	if len(secretKey) == 0 {
		return nil, errors.New("token: secret key not initialised")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.New("token: cannot marshal payload")
	}
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	return mac.Sum(nil), nil
}

// GenerateSessionSignature returns the base64url HMAC-SHA256 of payload.
func GenerateSessionSignature(payload SessionPayload) (string, error) {
	signature, err := sign(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(signature), nil
}

// ValidateSessionSignature reports whether signatureB64 was issued for payload.
func ValidateSessionSignature(payload SessionPayload, signatureB64 string) bool {
	expected, err := sign(payload)
	if err != nil {
		return false
	}
	actual, err := base64.RawURLEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, actual)
}
