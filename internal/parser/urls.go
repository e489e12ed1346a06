package parser

import "strings"

// Normalizer turns site-relative links into absolute URLs.
type Normalizer struct {
	base string
}

// NewNormalizer creates a Normalizer for the given site base, e.g. "https://2cent.ru".
func NewNormalizer(base string) *Normalizer {
	return &Normalizer{base: base}
}

// Normalize returns link unchanged when it already carries an http(s)
// scheme and base+link otherwise. No path merging is attempted.
func (n *Normalizer) Normalize(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return n.base + link
}
