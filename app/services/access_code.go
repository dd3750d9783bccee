// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/knobo/simple-queue-management-sub000/utils"
)

// GenerateAccessCode produces a random join code of the given length drawn
// from an alphabet without visually ambiguous characters
func GenerateAccessCode(length int) (string, error) {
	if length <= 0 {
		length = utils.AccessCodeLength
	}

	alphabet := utils.AccessCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate access code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}

	return string(code), nil
}

// GenerateDisplayToken produces a random public identifier for status displays
func GenerateDisplayToken() (string, error) {
	return GenerateAccessCode(utils.DisplayTokenLength)
}
