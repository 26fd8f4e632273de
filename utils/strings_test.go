package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKey(t *testing.T) {
	assert.Equal(t, HashKey("a", "b"), HashKey("a", "b"))
	assert.NotEqual(t, HashKey("ab", ""), HashKey("a", "b"))
	assert.Len(t, HashKey("x"), 64)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("  hello  ", 10))
	assert.Equal(t, "hel...", Truncate("hello", 3))
	assert.Equal(t, "hél...", Truncate("héllo", 3))
}
