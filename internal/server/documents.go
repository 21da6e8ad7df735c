package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/docuchat/docuchat-go/internal/logging"
	"github.com/docuchat/docuchat-go/internal/rag"
)

// handleDocumentUpload handles POST /api/documents. The request is a
// multipart form with a single "file" field; the document is extracted,
// chunked, embedded, and indexed before the response is written, so a 201
// means the document is immediately queryable.
func (s *Server) handleDocumentUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	doc, chunks, err := s.pipeline.Ingest(r.Context(), header.Filename, mimeType, data)
	if err != nil {
		log.Error("documents: ingest failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, rag.ErrUnsupportedFileType):
			http.Error(w, "unsupported file type", http.StatusBadRequest)
		case errors.Is(err, rag.ErrEmptyInput):
			http.Error(w, "file is empty", http.StatusBadRequest)
		case errors.Is(err, rag.ErrServiceUnavailable):
			http.Error(w, "indexing backend unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	s.metrics.documentsIngestedTotal.Inc()
	s.metrics.chunksIndexedTotal.Add(float64(chunks))
	log.Info("documents: indexed",
		slog.String("document_id", doc.ID),
		slog.String("source", doc.Source),
		slog.Int("chunks", chunks),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(uploadResponse{
		Document: documentResponse{ID: doc.ID, Name: doc.Source, CreatedAt: doc.CreatedAt},
		Chunks:   chunks,
	})
}

// handleDocumentList handles GET /api/documents.
func (s *Server) handleDocumentList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("documents: list failed",
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, documentResponse{ID: d.ID, Name: d.Source, CreatedAt: d.CreatedAt})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleDocumentDelete handles DELETE /api/documents/{id}. The document's
// chunks are removed from the vector store before its registry row, so a 204
// means the document no longer contributes to answers.
func (s *Server) handleDocumentDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.pipeline.Remove(r.Context(), id); err != nil {
		if errors.Is(err, rag.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("documents: delete failed",
			slog.String("document_id", id),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
