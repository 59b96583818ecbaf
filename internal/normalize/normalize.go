// Package normalize provides utilities for normalizing scanned filenames
// and user-facing tag strings.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Filename returns the NFC form of a filename with null bytes stripped.
// macOS volumes hand back decomposed (NFD) names, so the same file would
// otherwise produce two distinct catalog rows depending on the host.
func Filename(name string) string {
	return norm.NFC.String(sanitizeString(name))
}

// Tag canonicalizes a tag string: NFC form, lowercased, inner whitespace
// collapsed to single spaces. Returns "" for whitespace-only input.
func Tag(raw string) string {
	s := norm.NFC.String(sanitizeString(raw))
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Tags canonicalizes a tag list, dropping empties and duplicates while
// preserving the order of first appearance.
func Tags(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		t := Tag(r)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Title trims and NFC-normalizes a display string such as a set title or
// artist name, preserving case.
func Title(raw string) string {
	return strings.TrimSpace(norm.NFC.String(sanitizeString(raw)))
}

// sanitizeString drops null bytes, which some audio tag parsers leave as
// terminators and which break SQLite text columns and JSON encoding.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
