package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in an issued code.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator draws codes uniformly from 000000-999999.
type RandomGenerator struct{}

func (RandomGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// FixedGenerator always returns the same code. Test use only.
type FixedGenerator string

func (g FixedGenerator) Generate() (string, error) {
	return string(g), nil
}
