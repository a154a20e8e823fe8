// Package html provides a TextExtractor for HTML documents.
// It extracts readable text from HTML, dropping scripts, styles and markup,
// decoding entities and honouring the document's declared character set.
package html
