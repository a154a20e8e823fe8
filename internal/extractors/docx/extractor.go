// Package docx extracts text from Word (.docx) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".docx"}
}

// Extract returns the text of the main document part, one paragraph per
// line. Table cells are paragraphs too, so tables come out row by row.
func (e *Extractor) Extract(ctx context.Context, content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: opening docx archive: %w", domain.ErrExtractionFailed, err)
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: opening %s: %w", domain.ErrExtractionFailed, documentPart, err)
		}
		defer rc.Close() //nolint:errcheck

		text, err := parseDocumentXML(ctx, rc)
		if err != nil {
			return "", fmt.Errorf("%w: parsing %s: %w", domain.ErrExtractionFailed, documentPart, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %s not found", domain.ErrExtractionFailed, documentPart)
}

// parseDocumentXML streams WordprocessingML, keeping the contents of text
// runs and turning paragraph ends, tabs and breaks into whitespace.
func parseDocumentXML(ctx context.Context, r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		result    strings.Builder
		paragraph strings.Builder
		inText    bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br", "cr":
				paragraph.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(paragraph.String()); line != "" {
					if result.Len() > 0 {
						result.WriteByte('\n')
					}
					result.WriteString(line)
				}
				paragraph.Reset()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	return result.String(), nil
}
