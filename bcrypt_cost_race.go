//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// Race builds hash at the library default so the concurrent session and
// limiter suites stay inside their timeouts.
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
