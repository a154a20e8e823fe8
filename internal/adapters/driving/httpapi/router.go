package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
)

// DefaultMaxUploadBytes bounds a multipart upload request.
const DefaultMaxUploadBytes int64 = 64 << 20

// defaultMaxJSONBytes bounds JSON request bodies.
const defaultMaxJSONBytes int64 = 1 << 20

// Ports holds the driving ports the API serves.
type Ports struct {
	Ingestion driving.IngestionService
	Search    driving.SearchService
	Chat      driving.ChatService
	Documents driving.DocumentService
}

// Options tunes the router.
type Options struct {
	// MaxUploadBytes bounds POST /documents (default: 64 MiB).
	MaxUploadBytes int64

	// RequestTimeout bounds non-streaming requests. Zero disables it.
	RequestTimeout time.Duration
}

type handler struct {
	ports *Ports
	opts  Options
}

// NewRouter builds the HTTP handler for the API.
func NewRouter(ports *Ports, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	h := &handler{ports: ports, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Streaming answers can outlive any request timeout.
	r.With(MaxBodySize(defaultMaxJSONBytes)).Post("/ask", h.ask)

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.listDocuments)
			r.With(MaxBodySize(opts.MaxUploadBytes)).Post("/", h.uploadDocuments)
			r.Get("/{id}", h.getDocument)
			r.Get("/{id}/chunks", h.getDocumentChunks)
			r.Delete("/{id}", h.deleteDocument)
		})

		r.With(MaxBodySize(defaultMaxJSONBytes)).Post("/search", h.search)
		r.Get("/chats", h.listChats)
		r.Get("/stats", h.stats)
	})

	return r
}
