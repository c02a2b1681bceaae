package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrNotRevealed means the server seed has not been disclosed yet. This
	// is an "ask again later" condition, not a protocol violation.
	ErrNotRevealed = errors.New("server seed not yet revealed")

	// ErrSeedMismatch means the disclosed seed does not hash to the original
	// commitment. This is a hard integrity failure: the commit-reveal
	// protocol was violated for this challenge.
	ErrSeedMismatch = errors.New("revealed seed does not match commitment")
)

// SeedSource produces server seeds. Challenge resolution must only ever use
// the cryptographically secure implementation; a predictable or reused seed
// breaks the fairness guarantee for every challenge that uses it.
type SeedSource interface {
	NewSeed() (string, error)
}

// CryptoSeedSource draws 32-byte seeds from crypto/rand.
type CryptoSeedSource struct{}

// NewSeed returns a fresh hex-encoded 256-bit seed.
func (CryptoSeedSource) NewSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to draw server seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CommitSeed returns the SHA-256 commitment for a server seed, published
// before any participant acts.
func CommitSeed(seed string) string {
	hash := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(hash[:])
}

// VerifyCommit recomputes the commitment for a disclosed seed and compares it
// to the published one. Returns ErrNotRevealed when the seed is still
// withheld and ErrSeedMismatch when the recomputed hash differs.
func VerifyCommit(seed, commit string) error {
	if seed == "" {
		return ErrNotRevealed
	}
	if subtle.ConstantTimeCompare([]byte(CommitSeed(seed)), []byte(normalizeHash(commit))) != 1 {
		return ErrSeedMismatch
	}
	return nil
}

// ValidHash reports whether s is exactly 64 hex characters, the width of a
// SHA-256 digest. Both cases are accepted.
func ValidHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func normalizeHash(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'F' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
