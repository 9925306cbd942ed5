// Package id provides unique identifier generation for scans.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Prefix starts every scan ID.
const Prefix = "scan-"

// Generate creates a new unique scan ID.
// Format: scan-<uuid>
// Example: scan-6f1c2e0a-4b7d-4c1e-9a55-2f0b8d3e7c11
func Generate() string {
	return Prefix + uuid.NewString()
}

// Valid reports whether s looks like an ID produced by Generate.
func Valid(s string) bool {
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok {
		return false
	}
	return uuid.Validate(rest) == nil
}
