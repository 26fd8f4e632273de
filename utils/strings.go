package utils

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// HashKey derives a stable cache key from parts.
func HashKey(parts ...string) string {
	hash := sha256.New()
	for _, part := range parts {
		hash.Write([]byte(part))
		hash.Write([]byte{0})
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// Truncate shortens s to at most size runes for log lines.
func Truncate(s string, size int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= size {
		return s
	}
	return string(runes[:size]) + "..."
}
