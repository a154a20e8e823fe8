package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/extractors/docx"
	"github.com/custodia-labs/ragnote/internal/extractors/html"
	"github.com/custodia-labs/ragnote/internal/extractors/markdown"
	"github.com/custodia-labs/ragnote/internal/extractors/pdf"
	"github.com/custodia-labs/ragnote/internal/extractors/plaintext"
	"github.com/custodia-labs/ragnote/internal/extractors/xlsx"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.TextExtractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.TextExtractor),
	}
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	r.Register(xlsx.New())
	return r
}

// Register adds an extractor for each of its extensions.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range extractor.SupportedExtensions() {
		r.extractors[normaliseExt(ext)] = extractor
	}
}

// Extract selects an extractor by the extension of fileName and runs it.
func (r *Registry) Extract(ctx context.Context, fileName string, content []byte) (string, error) {
	ext := normaliseExt(filepath.Ext(fileName))

	r.mu.RLock()
	extractor, ok := r.extractors[ext]
	r.mu.RUnlock()

	if !ok || ext == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, fileName)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger.Debug("Extracting %s with %s", fileName, extractor.Name())
	return extractor.Extract(ctx, content)
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Has reports whether fileName has a registered extension.
func (r *Registry) Has(fileName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[normaliseExt(filepath.Ext(fileName))]
	return ok
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
