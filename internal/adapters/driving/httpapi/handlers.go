package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// uploadField is the multipart field carrying uploaded files.
const uploadField = "files"

const (
	defaultChatLimit = 20
	maxChatLimit     = 500
)

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	HandleError(w, err)
}

func (h *handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.ports.Documents.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}
	out := make([]documentJSON, len(docs))
	for i, d := range docs {
		out[i] = toDocumentJSON(d)
	}
	Success(w, http.StatusOK, out)
}

func (h *handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ports.Documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}
	Success(w, http.StatusOK, toDocumentJSON(*doc))
}

func (h *handler) getDocumentChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.ports.Documents.Chunks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}
	Success(w, http.StatusOK, toStoredChunksJSON(chunks))
}

func (h *handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.ports.Documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		Error(w, http.StatusBadRequest, "expected a multipart/form-data upload")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		Error(w, http.StatusBadRequest, fmt.Sprintf("no files in form field %q", uploadField))
		return
	}

	files := make([]domain.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			HandleError(w, fmt.Errorf("open upload %s: %w", fh.Filename, err))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			HandleError(w, fmt.Errorf("read upload %s: %w", fh.Filename, err))
			return
		}
		files = append(files, domain.UploadedFile{Name: fh.Filename, Content: content})
	}

	results := h.ports.Ingestion.IngestFiles(r.Context(), files)
	out := make([]ingestResultJSON, len(results))
	for i, res := range results {
		out[i] = toIngestResultJSON(res)
	}
	Success(w, http.StatusOK, out)
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	results, err := h.ports.Search.Search(r.Context(), req.Query, domain.SearchOptions{
		TopK:          req.TopK,
		MinSimilarity: req.MinSimilarity,
	})
	if err != nil {
		HandleError(w, err)
		return
	}
	Success(w, http.StatusOK, toChunksJSON(results))
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	askReq := domain.AskRequest{
		Question: req.Question,
		UseRAG:   req.UseRAG,
		Search: domain.SearchOptions{
			TopK:          req.TopK,
			MinSimilarity: req.MinSimilarity,
		},
	}

	if req.Stream {
		h.askStream(w, r, askReq)
		return
	}

	answer, err := h.ports.Chat.Ask(r.Context(), askReq)
	if err != nil {
		HandleError(w, err)
		return
	}
	Success(w, http.StatusOK, toAnswerJSON(answer))
}

// askStream answers as server-sent events: a "fragment" event per piece of
// text, then "done" with the stored turn, or "error". Failures before the
// first fragment are reported as an ordinary JSON error.
func (h *handler) askStream(w http.ResponseWriter, r *http.Request, req domain.AskRequest) {
	rc := http.NewResponseController(w)
	started := false

	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	answer, err := h.ports.Chat.AskStream(r.Context(), req, func(fragment string) error {
		start()
		if err := writeEvent(w, "fragment", fragment); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil {
		if !started {
			HandleError(w, err)
			return
		}
		logger.Warn("Streamed answer failed: %v", err)
		if werr := writeEvent(w, "error", ErrorResponse{Error: err.Error()}); werr == nil {
			_ = rc.Flush()
		}
		return
	}

	start()
	if err := writeEvent(w, "done", toAnswerJSON(answer)); err != nil {
		logger.Debug("Client went away before done event: %v", err)
		return
	}
	_ = rc.Flush()
}

func writeEvent(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func (h *handler) listChats(w http.ResponseWriter, r *http.Request) {
	limit := defaultChatLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxChatLimit {
			Error(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxChatLimit))
			return
		}
		limit = n
	}

	turns, err := h.ports.Chat.History(r.Context(), limit)
	if err != nil {
		HandleError(w, err)
		return
	}
	out := make([]chatTurnJSON, len(turns))
	for i, t := range turns {
		out[i] = toChatTurnJSON(t)
	}
	Success(w, http.StatusOK, out)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ports.Documents.Stats(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}
	Success(w, http.StatusOK, statsJSON{
		Documents:  stats.Documents,
		Chunks:     stats.Chunks,
		ChatTurns:  stats.ChatTurns,
		Dimensions: stats.Dimensions,
	})
}
