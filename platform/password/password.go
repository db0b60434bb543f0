// Package password hashes and verifies user passwords with bcrypt and
// enforces the password strength policy.
package password

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultCost is the bcrypt work factor used when none is configured.
	DefaultCost = 12
	// MinGeneratedLength is the shortest password GenerateSecurePassword returns.
	MinGeneratedLength = 12

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()"
)

// Strength policy messages.
const (
	MsgTooShort     = "Password must be at least 8 characters long"
	MsgNoUppercase  = "Password must contain at least one uppercase letter"
	MsgNoLowercase  = "Password must contain at least one lowercase letter"
	MsgNoDigit      = "Password must contain at least one number"
	MsgNoSpecial    = "Password must contain at least one special character"
	MsgTooLong      = "Password must not exceed 72 bytes"
	minPasswordSize = 8
	// MaxBytes is the longest input bcrypt accepts.
	MaxBytes = 72
)

// ErrInvalidCost is returned by NewHasher for costs outside bcrypt's range.
var ErrInvalidCost = errors.New("bcrypt cost must be between 4 and 31")

// ErrTooLong is returned by Hash for inputs longer than MaxBytes.
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Hasher hashes and verifies passwords. bcrypt is CPU-bound, so concurrent
// hash operations are capped at GOMAXPROCS.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher creates a Hasher with the given bcrypt cost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, ErrInvalidCost
	}
	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}, nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt digest of plain.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if len(plain) > MaxBytes {
		return "", ErrTooLong
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. Context cancellation counts as a mismatch.
func (h *Hasher) Verify(ctx context.Context, plain, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// NeedsRehash reports whether digest was produced with a different cost.
func (h *Hasher) NeedsRehash(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// StrengthResult lists every strength rule a password violates.
type StrengthResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateStrength checks plain against all rules and collects every failure.
// Letter and digit classes are ASCII only; any other byte counts as special.
func ValidateStrength(plain string) StrengthResult {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for i := 0; i < len(plain); i++ {
		switch b := plain[i]; {
		case b >= 'A' && b <= 'Z':
			hasUpper = true
		case b >= 'a' && b <= 'z':
			hasLower = true
		case b >= '0' && b <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	errs := make([]string, 0)
	if len(plain) < minPasswordSize {
		errs = append(errs, MsgTooShort)
	}
	if len(plain) > MaxBytes {
		errs = append(errs, MsgTooLong)
	}
	if !hasUpper {
		errs = append(errs, MsgNoUppercase)
	}
	if !hasLower {
		errs = append(errs, MsgNoLowercase)
	}
	if !hasDigit {
		errs = append(errs, MsgNoDigit)
	}
	if !hasSpecial {
		errs = append(errs, MsgNoSpecial)
	}

	return StrengthResult{Valid: len(errs) == 0, Errors: errs}
}

// GenerateSecurePassword returns a random password drawn from a fixed
// alphanumeric and symbol alphabet using crypto/rand.
func GenerateSecurePassword(length int) (string, error) {
	if length < MinGeneratedLength {
		length = MinGeneratedLength
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
