package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var tagStripper = bluemonday.StrictPolicy()

const maxStripPasses = 8

// StripTags removes HTML markup and returns the remaining text as written:
// quotes, ampersands and lone angle brackets are kept verbatim, not escaped.
//
// Each pass strips tags and decodes the text back. Decoding can turn an
// entity-encoded tag into a real one, so passes repeat until the text no
// longer changes; a fixed point contains no markup because stripping a tag
// or decoding an entity always shortens the text.
func StripTags(input string) string {
	s := input
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(tagStripper.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	// did not settle; fall back to the escaped form, which is inert
	return tagStripper.Sanitize(s)
}
