// Package id generates the string identifiers used outside the relational store:
// session ids, SSE client ids, token ids, photo references and subscription keys.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated ids.
const (
	PrefixSession = "ses"
	PrefixSSE     = "sse"
	PrefixToken   = "tok"
)

// keyAlphabet avoids characters that are easy to misread when typed by hand.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate creates a prefixed unique ID, e.g. "ses-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// PhotoRef returns a new opaque reference for a stored photo.
func PhotoRef() string {
	return uuid.NewString()
}

// IsPhotoRef reports whether ref looks like a reference produced by PhotoRef.
// Only the canonical 36-char form is accepted, so a ref is always safe as a file name.
func IsPhotoRef(ref string) bool {
	if len(ref) != 36 {
		return false
	}
	_, err := uuid.Parse(ref)
	return err == nil
}

// SubscriptionKey generates an activation key in the form FS-XXXX-XXXX-XXXX.
func SubscriptionKey() (string, error) {
	raw, err := gonanoid.Generate(keyAlphabet, 12)
	if err != nil {
		return "", fmt.Errorf("generate subscription key: %w", err)
	}
	parts := []string{"FS", raw[0:4], raw[4:8], raw[8:12]}
	return strings.Join(parts, "-"), nil
}
