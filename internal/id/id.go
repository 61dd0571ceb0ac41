// Package id generates the prefixed identifiers used across Haven.
// Every record carries an ID of the form "prefix-nanoid", e.g.
// "spc-V1StGXR8_Z5jdHi6B-myT" for a space, so an ID names its own kind.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// size is the length of the random part. 21 URL-safe characters carry
// roughly the same entropy as a UUID in far fewer bytes.
const size = 21

// Generate returns a new "prefix-" qualified identifier. It fails only
// when the system entropy source does.
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.New(size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + suffix, nil
}

// MustGenerate is Generate for callers that cannot surface an error,
// such as package initialization and tests. It panics on failure.
func MustGenerate(prefix string) string {
	generated, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return generated
}
