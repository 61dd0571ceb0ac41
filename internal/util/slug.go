// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with hyphens).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except hyphens).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive hyphens.
	multipleHyphenRe = regexp.MustCompile(`-+`)
)

// NormalizeChannelName converts user input to a canonical channel name.
// The normalized name is the source of truth for channel identity within
// a space.
//
// Normalization rules:
//  1. Decompose unicode and drop non-ASCII runes
//  2. Trim whitespace and lowercase
//  3. Replace spaces, underscores, and slashes with hyphens
//  4. Remove non-alphanumeric characters (except hyphens)
//  5. Collapse multiple hyphens, trim leading/trailing hyphens
//
// Examples:
//
//	"General Chat"  → "general-chat"
//	"general_chat"  → "general-chat"
//	"Café / Lounge" → "cafe-lounge"
func NormalizeChannelName(input string) string {
	// Decompose accented characters, then drop anything outside ASCII.
	s := norm.NFKD.String(input)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(strings.TrimSpace(s))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleHyphenRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	return s
}
