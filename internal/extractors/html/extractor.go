package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Elements whose content is never readable text.
const hiddenElements = "script, style, noscript, template, svg, iframe, head"

// Elements that start a new line of text.
const blockElements = "p, div, br, hr, h1, h2, h3, h4, h5, h6, li, dt, dd, tr, " +
	"blockquote, pre, table, section, article, header, footer, nav, aside, main, figcaption"

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "html"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Extract returns the readable text of the document, one block per line.
// The <title> comes first when it is not repeated by the body.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(content), "text/html")
	if err != nil {
		return "", fmt.Errorf("%w: detecting charset: %w", domain.ErrExtractionFailed, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", fmt.Errorf("%w: parsing html: %w", domain.ErrExtractionFailed, err)
	}

	title := collapseSpaces(doc.Find("title").First().Text())

	doc.Find(hiddenElements).Remove()
	doc.Find(blockElements).AfterHtml("\n")
	doc.Find("td, th").AfterHtml(" ")

	lines := cleanLines(doc.Text())
	if title != "" && (len(lines) == 0 || lines[0] != title) {
		lines = append([]string{title}, lines...)
	}

	return strings.Join(lines, "\n"), nil
}

// cleanLines collapses runs of whitespace within each line and drops
// empty lines.
func cleanLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
