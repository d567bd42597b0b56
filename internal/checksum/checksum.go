// Package checksum provides content digests used to detect source changes
// between publishes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumFile returns the digest of a file's contents.
func SumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("checksum: read %s: %w", path, err)
	}
	return Sum(data), nil
}
