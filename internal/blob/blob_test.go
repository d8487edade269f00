package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken(t *testing.T) {
	// sha256 of empty input, pinned so the token scheme never drifts.
	assert.Equal(t,
		Token("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"),
		HashToken(nil))

	assert.Equal(t, HashToken([]byte("a")), HashToken([]byte("a")))
	assert.NotEqual(t, HashToken([]byte("a")), HashToken([]byte("b")))
	assert.Len(t, string(HashToken([]byte("abc"))), 64)
}
