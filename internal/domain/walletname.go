package domain

import (
	"crypto/rand"
	"fmt"
)

// walletNameAlphabet is the character set wallet names are drawn from.
const walletNameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateWalletName produces a random wallet name of the given length drawn
// uniformly from uppercase letters and digits. Uniqueness is not guaranteed
// here; the store's unique constraint catches the rare collision and the
// caller regenerates.
func GenerateWalletName(length int) (string, error) {
	if length <= 0 {
		length = DefaultWalletNameLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	// Rejection sampling keeps the distribution uniform across the alphabet.
	max := byte(256 - 256%len(walletNameAlphabet))
	out := make([]byte, 0, length)
	for len(out) < length {
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, walletNameAlphabet[int(b)%len(walletNameAlphabet)])
			if len(out) == length {
				break
			}
		}
		if len(out) < length {
			if _, err := rand.Read(buf); err != nil {
				return "", fmt.Errorf("read random bytes: %w", err)
			}
		}
	}
	return string(out), nil
}
