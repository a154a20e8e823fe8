package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragnote/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragnote/internal/core/domain"
)

type ingestFixture struct {
	settings *staticSettings
	factory  *mockFactory
	store    *memory.DocumentStore
	service  *IngestionService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		settings: newStaticSettings(),
		factory:  newMockFactory(),
		store:    memory.NewDocumentStore(),
	}
	f.settings.settings.Chunking = domain.ChunkingSettings{Size: 10, Overlap: 3}
	embedder := NewEmbedder(f.settings, f.factory, f.store)
	f.service = NewIngestionService(f.settings, mockExtractors{}, embedder, f.store)
	return f
}

func (f *ingestFixture) documentCount(t *testing.T) int {
	t.Helper()
	docs, err := f.store.ListDocuments(context.Background())
	require.NoError(t, err)
	return len(docs)
}

func TestIngestionService_IngestFile(t *testing.T) {
	f := newIngestFixture(t)

	doc, err := f.service.IngestFile(context.Background(), domain.UploadedFile{
		Name:    "letters.txt",
		Content: []byte("ABCDEFGHIJKLMNO"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "letters.txt", doc.FileName)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.False(t, doc.UploadedAt.IsZero())

	chunks, err := f.store.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "ABCDEFGHIJ", chunks[0].Text)
	assert.Equal(t, "HIJKLMNO", chunks[1].Text)
	assert.Equal(t, letterVector("ABCDEFGHIJ"), chunks[0].Embedding)
}

func TestIngestionService_IngestFile_StripsDirectory(t *testing.T) {
	f := newIngestFixture(t)

	doc, err := f.service.IngestFile(context.Background(), domain.UploadedFile{
		Name:    "/home/user/notes/today.txt",
		Content: []byte("abc"),
	})

	require.NoError(t, err)
	assert.Equal(t, "today.txt", doc.FileName)
}

func TestIngestionService_IngestFile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		file    domain.UploadedFile
		setup   func(f *ingestFixture)
		wantErr error
	}{
		{
			name:    "whitespace only",
			file:    domain.UploadedFile{Name: "blank.txt", Content: []byte(" \n\t ")},
			wantErr: domain.ErrNoExtractableText,
		},
		{
			name:    "empty file",
			file:    domain.UploadedFile{Name: "empty.txt"},
			wantErr: domain.ErrNoExtractableText,
		},
		{
			name:    "unsupported type",
			file:    domain.UploadedFile{Name: "image.png", Content: []byte("abc")},
			wantErr: domain.ErrUnsupportedFileType,
		},
		{
			name:    "corrupt file",
			file:    domain.UploadedFile{Name: "broken.bad", Content: []byte("abc")},
			wantErr: domain.ErrExtractionFailed,
		},
		{
			name:    "missing name",
			file:    domain.UploadedFile{Content: []byte("abc")},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "embedding unavailable",
			file: domain.UploadedFile{Name: "a.txt", Content: []byte("abc")},
			setup: func(f *ingestFixture) {
				f.factory.embedder.embedErr = errors.New("connection refused")
			},
			wantErr: domain.ErrEmbeddingUnavailable,
		},
		{
			name: "invalid chunking",
			file: domain.UploadedFile{Name: "a.txt", Content: []byte("abc")},
			setup: func(f *ingestFixture) {
				f.settings.settings.Chunking.Overlap = 10
			},
			wantErr: domain.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			doc, err := f.service.IngestFile(context.Background(), tt.file)

			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.documentCount(t), "a failed ingestion must not store a document")
		})
	}
}

func TestIngestionService_IngestFile_FailsMidEmbedding(t *testing.T) {
	f := newIngestFixture(t)
	calls := 0
	f.factory.embedder.embedFn = func(texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("timeout")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 1, 1}
		}
		return out, nil
	}

	_, err := f.service.IngestFile(context.Background(), domain.UploadedFile{
		Name:    "long.txt",
		Content: []byte(strings.Repeat("abcdefghij", 10)),
	})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Zero(t, f.documentCount(t))
	vectors, _ := f.store.AllChunkVectors(context.Background())
	assert.Empty(t, vectors)
}

func TestIngestionService_IngestFile_Cancelled(t *testing.T) {
	f := newIngestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.factory.embedder.embedFn = func(texts []string) ([][]float32, error) {
		cancel()
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 1, 1}
		}
		return out, nil
	}

	_, err := f.service.IngestFile(ctx, domain.UploadedFile{Name: "a.txt", Content: []byte("abc")})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.documentCount(t))
}

func TestIngestionService_IngestFile_UsesCurrentChunkSettings(t *testing.T) {
	f := newIngestFixture(t)
	content := []byte(strings.Repeat("abcde", 10))

	first, err := f.service.IngestFile(context.Background(), domain.UploadedFile{Name: "a.txt", Content: content})
	require.NoError(t, err)

	f.settings.settings.Chunking = domain.ChunkingSettings{Size: 25, Overlap: 0}
	second, err := f.service.IngestFile(context.Background(), domain.UploadedFile{Name: "b.txt", Content: content})
	require.NoError(t, err)

	assert.Equal(t, 7, first.ChunkCount)
	assert.Equal(t, 2, second.ChunkCount)
}

func TestIngestionService_IngestFiles_IsolatesFailures(t *testing.T) {
	f := newIngestFixture(t)

	results := f.service.IngestFiles(context.Background(), []domain.UploadedFile{
		{Name: "good.txt", Content: []byte("abc")},
		{Name: "blank.txt", Content: []byte("   ")},
		{Name: "photo.jpg", Content: []byte("abc")},
		{Name: "also-good.txt", Content: []byte("cab")},
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].OK())
	assert.NotEmpty(t, results[0].DocumentID)
	assert.Equal(t, 1, results[0].ChunkCount)
	assert.ErrorIs(t, results[1].Err, domain.ErrNoExtractableText)
	assert.Equal(t, "blank.txt", results[1].FileName)
	assert.ErrorIs(t, results[2].Err, domain.ErrUnsupportedFileType)
	assert.True(t, results[3].OK())

	assert.Equal(t, 2, f.documentCount(t))
}

func TestIngestionService_IngestFiles_ParallelKeepsOrder(t *testing.T) {
	f := newIngestFixture(t)
	f.settings.settings.Ingest.Workers = 4

	var inFlight, peak atomic.Int32
	f.factory.embedder.embedFn = func(texts []string) ([][]float32, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = letterVector(text)
		}
		return out, nil
	}

	files := make([]domain.UploadedFile, 12)
	for i := range files {
		files[i] = domain.UploadedFile{Name: fmt.Sprintf("f%02d.txt", i), Content: []byte("abc")}
	}

	results := f.service.IngestFiles(context.Background(), files)

	require.Len(t, results, len(files))
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, files[i].Name, r.FileName)
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
	assert.Equal(t, len(files), f.documentCount(t))
}

func TestIngestionService_IngestFiles_Cancelled(t *testing.T) {
	f := newIngestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.service.IngestFiles(ctx, []domain.UploadedFile{
		{Name: "a.txt", Content: []byte("abc")},
		{Name: "b.txt", Content: []byte("abc")},
	})

	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Zero(t, f.documentCount(t))
}

func TestIngestionService_IngestFiles_SettingsError(t *testing.T) {
	f := newIngestFixture(t)
	f.settings.err = errors.New("config unreadable")

	results := f.service.IngestFiles(context.Background(), []domain.UploadedFile{{Name: "a.txt"}})

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestIngestionService_SupportedExtensions(t *testing.T) {
	f := newIngestFixture(t)
	assert.Equal(t, []string{".txt"}, f.service.SupportedExtensions())
}
