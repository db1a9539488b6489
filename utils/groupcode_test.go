package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGroupCode(t *testing.T) {
	shape := regexp.MustCompile(`^[A-Z0-9]{8}$`)

	codes := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateGroupCode()
		require.NoError(t, err)
		assert.Regexp(t, shape, code)
		codes[code] = true
	}

	// 100 draws from a 36^8 space should never collide.
	assert.Len(t, codes, 100)
}
