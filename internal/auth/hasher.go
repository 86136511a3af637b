// Package auth holds the credential primitives of the blog: password hashing,
// session token signing and the guard that turns a token into an acting identity.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// DefaultBcryptCost matches the work factor existing accounts were created with.
const DefaultBcryptCost = 10

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher hashes passwords and verifies candidates against stored hashes.
type PasswordHasher interface {
	// Hash produces a self-describing salted hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. Malformed hashes never match.
	Verify(password, hash string) bool
}

// Hasher implements PasswordHasher. New hashes use the configured algorithm;
// verification picks the algorithm from the hash prefix.
type Hasher struct {
	algorithm string
	cost      int
	params    *argon2id.Params
}

// Ensure Hasher implements PasswordHasher
var _ PasswordHasher = (*Hasher)(nil)

// NewHasher creates a hasher for algorithm. cost is the bcrypt work factor and is
// ignored for argon2id, which uses the library's recommended parameters.
func NewHasher(algorithm string, cost int) (*Hasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		if cost == 0 {
			cost = DefaultBcryptCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
		}
		return &Hasher{algorithm: AlgorithmBcrypt, cost: cost}, nil
	case AlgorithmArgon2id:
		return &Hasher{algorithm: AlgorithmArgon2id, params: argon2id.DefaultParams}, nil
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
}

// Algorithm returns the algorithm used for new hashes.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash produces a hash of the password with a random embedded salt.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	if h.algorithm == AlgorithmArgon2id {
		hash, err := argon2id.CreateHash(password, h.params)
		if err != nil {
			return "", fmt.Errorf("argon2id hash: %w", err)
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the hash.
func (h *Hasher) Verify(password, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		match, err := argon2id.ComparePasswordAndHash(password, hash)
		return err == nil && match
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
	default:
		return false
	}
}

// bcryptMaxInput is the number of password bytes bcrypt reads.
const bcryptMaxInput = 72

// bcryptInput truncates longer passwords to the bytes bcrypt actually hashes,
// so long passwords hash and verify instead of failing.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxInput {
		b = b[:bcryptMaxInput]
	}
	return b
}
