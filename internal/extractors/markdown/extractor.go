// Package markdown extracts readable text from Markdown documents.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "markdown"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Extract returns the document text with Markdown syntax removed.
// Code is kept, only its fences and backticks go.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	text, err := plaintext.Decode(content)
	if err != nil {
		return "", err
	}
	return stripMarkdown(text), nil
}

// Pre-compiled regular expressions for Markdown stripping.
var (
	codeFences    = regexp.MustCompile("(?m)^[ \\t]*(```|~~~).*$")
	inlineCode    = regexp.MustCompile("`([^`\n]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	horizontal    = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	blockquotes   = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	listMarkers   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList  = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	boldStars     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnders    = regexp.MustCompile(`__([^_]+)__`)
	italicStars   = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnders  = regexp.MustCompile(`(^|[ \t])_([^_\n]+)_`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting, leaving plain text.
func stripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	content = codeFences.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = blockquotes.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = boldStars.ReplaceAllString(content, "$1")
	content = boldUnders.ReplaceAllString(content, "$1")
	content = italicStars.ReplaceAllString(content, "$1")
	content = italicUnders.ReplaceAllString(content, "$1$2")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
