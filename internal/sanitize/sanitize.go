// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sanitize holds the pure text transforms applied around pandoc:
// stripping contenteditable artifacts from editor HTML before conversion and
// collapsing whitespace noise in the Markdown that comes back.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	contentEditableAttr = regexp.MustCompile(`\s+contenteditable="[^"]*"`)
	spellcheckAttr      = regexp.MustCompile(`\s+spellcheck="[^"]*"`)
	emptyDiv            = regexp.MustCompile(`<div>\s*</div>`)
	blankLineRun        = regexp.MustCompile(`\n{3,}`)
)

// CleanIncomingHTML removes editor-injected contenteditable and spellcheck
// attributes and empty <div></div> elements, then trims surrounding
// whitespace. It works on the attribute text, not a parsed DOM, so the rest
// of the markup is left byte-for-byte intact.
func CleanIncomingHTML(html string) string {
	cleaned := contentEditableAttr.ReplaceAllString(html, "")
	cleaned = spellcheckAttr.ReplaceAllString(cleaned, "")
	cleaned = emptyDiv.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// PostProcessMarkdown collapses runs of three or more newlines into exactly
// two and trims surrounding whitespace. It is idempotent.
func PostProcessMarkdown(markdown string) string {
	return strings.TrimSpace(blankLineRun.ReplaceAllString(markdown, "\n\n"))
}
