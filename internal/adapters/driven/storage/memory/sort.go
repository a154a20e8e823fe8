package memory

import (
	"sort"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

func sortDocuments(docs []domain.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.Before(docs[j].UploadedAt)
	})
}

func sortChunksBySeq(chunks []domain.Chunk, seq map[string]uint64) {
	sort.Slice(chunks, func(i, j int) bool {
		return seq[chunks[i].ID] < seq[chunks[j].ID]
	})
}
