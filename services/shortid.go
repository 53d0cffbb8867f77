package services

import (
	"crypto/rand"
	"math/big"
)

const (
	// URL-safe alphabet, matching the ids the original nanoid-based data used.
	shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	shortIDLength   = 7

	// Redraws allowed after the initial draw collides.
	maxIDAttempts = 5
)

// GenerateShortID returns a random 7-character identifier.
func GenerateShortID() (string, error) {
	id := make([]byte, shortIDLength)
	alphabetLen := big.NewInt(int64(len(shortIDAlphabet)))

	for i := 0; i < shortIDLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		id[i] = shortIDAlphabet[n.Int64()]
	}

	return string(id), nil
}
