package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeDigits = 6

// GenerateCode returns a random six digit login code, zero padded.
func GenerateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
