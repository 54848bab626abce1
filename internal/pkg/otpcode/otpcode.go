// Package otpcode generates short numeric one-time passcodes.
package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the number of decimal digits in a generated code.
const Length = 6

var codeSpace = big.NewInt(1_000_000)

// Generator produces verification codes.
type Generator interface {
	// Generate returns a new code as a string of exactly Length decimal digits.
	Generate() (string, error)
}

// Numeric generates uniformly random numeric codes using crypto/rand.
type Numeric struct{}

// NewNumeric returns a Numeric code generator.
func NewNumeric() *Numeric {
	return &Numeric{}
}

// Generate returns a random 6-digit code, zero-padded to preserve leading zeros.
func (*Numeric) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
