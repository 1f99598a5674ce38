package util

import (
	"crypto/rand"
)

const digits = "0123456789"

// RandDigits returns a fixed-length numeric string suitable for one-time
// codes sent over email.
func RandDigits(n int) (string, error) {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	for i := range b {
		b[i] = digits[int(b[i])%len(digits)]
	}

	return string(b), nil
}
