//go:build !race

package auth

const defaultPasswordHashCost = 12

func passwordHashCost() int {
	return defaultPasswordHashCost
}
