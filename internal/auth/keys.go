// Package auth provides password hashing and access tokens.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit (32-byte) symmetric key.
	keyLength = 32
	// Expected hex-encoded length (32 bytes = 64 hex characters).
	keyHexLength = 64

	keyFileName = "auth.key"
)

// DecodeKey parses a hex-encoded 32-byte key.
func DecodeKey(keyHex string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
	}
	return key, nil
}

// ResolveKey returns the configured key when one is set, and otherwise
// the key persisted in dataPath (generated on first start).
func ResolveKey(configuredHex, dataPath string) ([]byte, error) {
	if strings.TrimSpace(configuredHex) != "" {
		return DecodeKey(configuredHex)
	}
	return LoadOrGenerateKey(dataPath)
}

// LoadOrGenerateKey loads {dataPath}/auth.key, creating it with a fresh
// random key when it does not exist.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- Auth key path is derived from the configured data path
	if keyBytes, err := os.ReadFile(keyPath); err == nil {
		return DecodeKey(string(keyBytes))
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to save auth key: %w", err)
	}

	return key, nil
}
