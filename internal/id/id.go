// Package id generates the prefixed NanoID identifiers used across the
// catalog. The prefix makes the entity kind readable in logs and URLs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each identified entity kind.
const (
	PrefixSet   = "set"
	PrefixChart = "chart"
)

// Generate creates an ID of the form "prefix-V1StGXR8_Z5jdHi6B-myT".
// It returns an error only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is Generate for call sites where entropy exhaustion should
// crash the program rather than propagate.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("id: %v", err))
	}
	return id
}

// NewSetID returns a fresh chart-set identifier.
func NewSetID() string { return MustGenerate(PrefixSet) }

// NewChartID returns a fresh chart identifier.
func NewChartID() string { return MustGenerate(PrefixChart) }
