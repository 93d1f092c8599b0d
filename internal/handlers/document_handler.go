// File: internal/handlers/document_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-medrag/internal/domain"
	"github.com/iyunix/go-medrag/internal/repository/document"
	"github.com/iyunix/go-medrag/internal/services"
	"github.com/iyunix/go-medrag/internal/services/extract"
	"github.com/iyunix/go-medrag/internal/services/retrieval"
)

// Pipeline is the document service surface the handlers call.
type Pipeline interface {
	Ingest(ctx context.Context, fileText, fileName string) (*services.IngestResult, error)
	Query(ctx context.Context, query string, documentIDs []string) (*retrieval.Answer, error)
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type DocumentHandler struct {
	pipeline  Pipeline
	extractor extract.Extractor
	logger    services.Logger
}

func NewDocumentHandler(pipeline Pipeline, extractor extract.Extractor, logger services.Logger) (*DocumentHandler, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if extractor == nil {
		return nil, errors.New("text extractor is required")
	}
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return &DocumentHandler{pipeline: pipeline, extractor: extractor, logger: logger}, nil
}

type uploadRequest struct {
	Text     string `json:"text"`
	FileName string `json:"fileName"`
}

type uploadResponse struct {
	Message string `json:"message"`
	*services.IngestResult
}

type queryRequest struct {
	Query       string   `json:"query"`
	DocumentID  string   `json:"documentId,omitempty"`
	DocumentIDs []string `json:"documentIds,omitempty"`
}

type queryResponse struct {
	*retrieval.Answer
	AnswerHTML string `json:"answerHtml"`
}

// Upload accepts a multipart "file" field or a JSON body with text and fileName.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var text, fileName string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, extract.MaxFileSize+1<<20)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, "No file uploaded", http.StatusBadRequest)
			return
		}
		defer file.Close()

		fileName = header.Filename
		contentType := extract.ResolveContentType(fileName, header.Header.Get("Content-Type"))
		text, err = h.extractor.Extract(r.Context(), fileName, contentType, file)
		if err != nil {
			h.logger.Warn("text extraction failed", "file_name", fileName, "error", err)
			status, msg := extractionStatus(err)
			writeError(w, msg, status)
			return
		}
	} else {
		var req uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		text, fileName = req.Text, req.FileName
	}

	if strings.TrimSpace(text) == "" {
		writeError(w, "No text provided", http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), text, fileName)
	if err != nil {
		var ingestErr *services.IngestError
		if errors.As(err, &ingestErr) && ingestErr.Stage == services.StageValidate {
			writeError(w, ingestErr.Cause.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("ingestion failed", "file_name", fileName, "error", err)
		writeError(w, "Error processing document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{Message: "Document processed successfully", IngestResult: result})
}

// Query answers a question against the named documents or the most recent upload.
func (h *DocumentHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, "Query is required", http.StatusBadRequest)
		return
	}

	ids := req.DocumentIDs
	if req.DocumentID != "" {
		ids = append([]string{req.DocumentID}, ids...)
	}

	answer, err := h.pipeline.Query(r.Context(), req.Query, ids)
	if err != nil {
		switch {
		case errors.Is(err, retrieval.ErrNothingToAnswer):
			writeError(w, "No relevant content found", http.StatusNotFound)
		case errors.Is(err, document.ErrDocumentNotFound):
			writeError(w, "Document not found", http.StatusNotFound)
		default:
			var rerr *retrieval.RetrievalError
			if errors.As(err, &rerr) && rerr.Type == retrieval.ErrTypeValidation {
				writeError(w, rerr.Message, http.StatusBadRequest)
				return
			}
			h.logger.Error("query failed", "error", err)
			writeError(w, "Error processing query", http.StatusInternalServerError)
		}
		return
	}

	html, err := renderMarkdown(answer.Text)
	if err != nil {
		h.logger.Warn("answer rendering failed", "error", err)
		html = answer.Text
	}
	writeJSON(w, http.StatusOK, queryResponse{Answer: answer, AnswerHTML: html})
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.pipeline.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error("listing documents failed", "error", err)
		writeError(w, "Could not retrieve documents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.pipeline.GetDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.DeleteDocument(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, document.ErrDocumentNotFound) {
		writeError(w, "Document not found", http.StatusNotFound)
		return
	}
	h.logger.Error("document lookup failed", "error", err)
	writeError(w, "Could not retrieve document", http.StatusInternalServerError)
}

func extractionStatus(err error) (int, string) {
	var xerr *extract.ExtractionError
	if !errors.As(err, &xerr) {
		return http.StatusInternalServerError, "Error extracting text"
	}
	switch xerr.Type {
	case extract.ErrTypeUnsupported:
		return http.StatusUnsupportedMediaType, xerr.Message
	case extract.ErrTypeEmpty:
		return http.StatusUnprocessableEntity, xerr.Message
	case extract.ErrTypeService:
		return http.StatusBadGateway, "Text extraction service unavailable"
	default:
		return http.StatusBadRequest, xerr.Message
	}
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
