package credential

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const cardIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxCardIDAttempts bounds the optimistic generate-and-check loop. With a
// 62-character alphabet and 12-character ids, collisions are vanishingly
// rare; hitting the bound indicates something is wrong with the store.
const maxCardIDAttempts = 10

// CardIDChecker answers whether a candidate card id is already taken.
// The pre-check only shortens the common path: the store's unique constraint
// is the real guarantee, and insertion must still retry on conflict.
type CardIDChecker interface {
	CardIDExists(ctx context.Context, cardID string) (bool, error)
}

// RandomString returns a cryptographically random string of the given length
// over the card id alphabet. Also used for generated usernames and initial
// passwords.
func RandomString(length int) (string, error) {
	out := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(cardIDAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("could not generate random string: %w", err)
		}
		out[i] = cardIDAlphabet[n.Int64()]
	}
	return string(out), nil
}

// GenerateCardID produces a card id that is collision-free at the time of the
// check. Callers insert under a unique constraint and call again on conflict.
func GenerateCardID(ctx context.Context, checker CardIDChecker, length int) (string, error) {
	for attempt := 0; attempt < maxCardIDAttempts; attempt++ {
		candidate, err := RandomString(length)
		if err != nil {
			return "", err
		}
		exists, err := checker.CardIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check card id uniqueness: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique card id after %d attempts", maxCardIDAttempts)
}
