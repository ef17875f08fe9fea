package service

import (
	"regexp"
	"strings"
)

var (
	blankLineRe  = regexp.MustCompile(`\n\s*\n`)
	horizSpaceRe = regexp.MustCompile(`[ \t]+`)
)

// NormalizeText cleans raw extracted text before chunking: runs of blank
// lines collapse to a single newline, runs of horizontal whitespace collapse
// to a single space, and surrounding whitespace is trimmed.
func NormalizeText(raw string) string {
	text := blankLineRe.ReplaceAllString(raw, "\n")
	text = horizSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
