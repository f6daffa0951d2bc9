package password

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Config holds hashing parameters.
type Config struct {
	Cost int // bcrypt cost factor
}

// Result is the verification outcome. NeedsMigration reports that the
// credential validated under a legacy scheme and should be re-hashed
// and persisted under bcrypt by the caller.
type Result struct {
	Valid          bool
	NeedsMigration bool
}

// Service hashes and verifies credentials. It authenticates against
// every hash generation an aging account store accumulates (bcrypt,
// single-round hex digests, a plaintext fallback column) while steering
// each successful legacy login toward the current scheme.
type Service struct {
	config Config
}

// NewService validates the cost factor and creates a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Service{config: cfg}, nil
}

// Hash produces a salted bcrypt hash at the configured cost. Output is
// non-deterministic (embedded salt); verification is deterministic.
func (s *Service) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.config.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify checks plaintext against a stored hash, trying in order:
// bcrypt (detected by format marker), a legacy hex digest (md5, sha1,
// or sha256, detected by digest length), and finally direct equality
// against legacyPlaintext when supplied. Total: malformed input yields
// {false, false}, never a panic or error.
func (s *Service) Verify(plaintext, storedHash, legacyPlaintext string) Result {
	if plaintext == "" {
		return Result{}
	}

	if isBcrypt(storedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
		return Result{Valid: err == nil}
	}

	if matchesLegacyDigest(plaintext, storedHash) {
		return Result{Valid: true, NeedsMigration: true}
	}

	if legacyPlaintext != "" && subtle.ConstantTimeCompare([]byte(plaintext), []byte(legacyPlaintext)) == 1 {
		return Result{Valid: true, NeedsMigration: true}
	}

	return Result{}
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// matchesLegacyDigest compares against the single-round digest schemes
// older rows still carry, picking the algorithm by hex digest length.
func matchesLegacyDigest(plaintext, storedHash string) bool {
	stored := strings.ToLower(strings.TrimSpace(storedHash))
	if !isHex(stored) {
		return false
	}

	var computed string
	switch len(stored) {
	case md5.Size * 2:
		sum := md5.Sum([]byte(plaintext))
		computed = hex.EncodeToString(sum[:])
	case sha1.Size * 2:
		sum := sha1.Sum([]byte(plaintext))
		computed = hex.EncodeToString(sum[:])
	case sha256.Size * 2:
		sum := sha256.Sum256([]byte(plaintext))
		computed = hex.EncodeToString(sum[:])
	default:
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
