package util

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomToken returns a random alphanumeric token of the given length,
// used for project API keys (spec: a fresh 50-character token per project,
// returned once on creation).
func RandomToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cannot generate random token: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = alnum[int(b)%len(alnum)]
	}
	return string(out), nil
}

// RandomSecret returns a UUID-shaped secret, used for sandbox dataset
// re-upload protection: a dataset uploaded with a `secret` must have the
// same secret resupplied to be overwritten.
func RandomSecret() string {
	return uuid.NewString()
}
