package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// GroupCodeLength is the fixed length of a group share code.
	GroupCodeLength = 8

	// MaxCodeAttempts caps the collision-retry loop of the allocator. At 36^8
	// possible codes a collision is already vanishingly unlikely, so hitting
	// this cap means something is badly wrong with the groups table.
	MaxCodeAttempts = 20
)

const groupCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrCodeSpaceExhausted is returned when the allocator fails to find a free
// code within MaxCodeAttempts tries.
var ErrCodeSpaceExhausted = errors.New("group code allocation retry limit reached")

// GenerateGroupCode returns a random 8-character uppercase alphanumeric code,
// drawn uniformly with crypto/rand. Uniqueness is the caller's problem.
func GenerateGroupCode() (string, error) {
	code := make([]byte, GroupCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(groupCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = groupCodeAlphabet[num.Int64()]
	}
	return string(code), nil
}
