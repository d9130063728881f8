package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultMinPasswordLength is the shortest password HashPassword accepts.
const DefaultMinPasswordLength = 8

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// BcryptHasher is a PasswordHasher backed by bcrypt. bcrypt generates a
// fresh salt for every call and embeds it in the digest.
type BcryptHasher struct {
	cost      int
	minLength int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// HasherOption configures a BcryptHasher.
type HasherOption func(*BcryptHasher)

// WithHashCost sets the bcrypt work factor. Values outside the bcrypt range
// are ignored.
func WithHashCost(cost int) HasherOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithMinPasswordLength sets the minimum accepted plaintext length.
func WithMinPasswordLength(length int) HasherOption {
	return func(h *BcryptHasher) {
		if length > 0 {
			h.minLength = length
		}
	}
}

// NewPasswordHasher returns a bcrypt hasher.
func NewPasswordHasher(opts ...HasherOption) *BcryptHasher {
	h := &BcryptHasher{
		cost:      passwordHashCost(),
		minLength: DefaultMinPasswordLength,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Hash will generate a password hash. Short passwords are rejected
// before any hashing work is done.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) < h.minLength || password == "" {
		return "", ErrWeakPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify will validate the given cleartext password matches the hashed
// password. Malformed digests never match.
func (h *BcryptHasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

var defaultHasher = NewPasswordHasher()

// HashPassword hashes with the package default hasher.
func HashPassword(password string) (string, error) {
	return defaultHasher.Hash(password)
}

// ComparePasswordAndHash returns ErrInvalidCredentials when the password
// does not match the hash.
func ComparePasswordAndHash(password, hash string) error {
	if !defaultHasher.Verify(password, hash) {
		return ErrInvalidCredentials
	}
	return nil
}
