// Package auth handles API key generation and verification for the admin
// surface.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultKeyPrefix is used when no prefix is configured.
	DefaultKeyPrefix = "flp_"
	// KeyLength is the length of the random part of the key (32 bytes = 256 bits).
	KeyLength = 32
	// BCryptCost is the cost factor for bcrypt hashing.
	BCryptCost = 12
)

// GenerateAPIKey generates a new API key with the given prefix. An empty
// prefix falls back to DefaultKeyPrefix.
func GenerateAPIKey(prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	randomBytes := make([]byte, KeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	// URL-safe base64, no padding.
	return prefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// HashAPIKey hashes an API key using bcrypt. Only the hash is ever persisted.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against its bcrypt hash.
func VerifyAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// VerifyAPIKeyConstantTime compares an API key against a plain expected key
// in constant time. Used for the static ADMIN_API_KEY from config.
func VerifyAPIKeyConstantTime(got, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// ExtractBearerToken extracts the bearer token from an Authorization header.
// The "Bearer " prefix is matched case-insensitively; a header without the
// prefix is returned as-is.
func ExtractBearerToken(authHeader string) string {
	token := strings.TrimSpace(authHeader)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
