package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"techdoc-rag/internal/models"
	"techdoc-rag/internal/parser"
	"techdoc-rag/internal/rag"
)

const maxUploadBytes = 64 << 20

type ingestResponse struct {
	OK      bool               `json:"ok"`
	Added   int                `json:"added"`
	Total   int                `json:"total"`
	Results []rag.IngestResult `json:"results"`
}

// handleIngest accepts multipart uploads, extracts text per file and indexes
// it. A failing file is reported in its result entry; siblings continue.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}
	system := r.FormValue("system")
	subsystem := r.FormValue("subsystem")

	resp := ingestResponse{OK: true}
	for _, fh := range files {
		res := s.ingestUpload(r, fh, system, subsystem)
		resp.Added += res.Chunks
		resp.Results = append(resp.Results, res)
	}
	resp.Total = s.engine.Store().Len()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ingestUpload(r *http.Request, fh *multipart.FileHeader, system, subsystem string) rag.IngestResult {
	if !parser.Supported(fh.Filename) {
		return rag.IngestResult{FileName: fh.Filename, Status: "error", Error: "unsupported file format"}
	}

	text, err := s.extractUpload(fh)
	if err != nil {
		loggerFrom(r).Warn().Err(err).Str("file", fh.Filename).Msg("Extraction failed")
		return rag.IngestResult{FileName: fh.Filename, Status: "error", Error: err.Error()}
	}

	return s.engine.IngestDocument(r.Context(), models.Document{
		Name:      fh.Filename,
		MimeType:  parser.MimeType(fh.Filename),
		System:    system,
		Subsystem: subsystem,
		Content:   text,
	})
}

// extractUpload spools the upload to a temp file so extension-based extractors
// can reopen it by path.
func (s *Server) extractUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "ingest-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return parser.Extract(tmp.Name())
}

type ingestJSONRequest struct {
	Content   string `json:"content"`
	FileName  string `json:"fileName"`
	System    string `json:"system"`
	Subsystem string `json:"subsystem"`
	MimeType  string `json:"mimeType"`
}

// handleIngestJSON indexes already-extracted text.
func (s *Server) handleIngestJSON(w http.ResponseWriter, r *http.Request) {
	var req ingestJSONRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileName == "" {
		req.FileName = "untitled"
	}
	if req.MimeType == "" {
		req.MimeType = "text/plain"
	}

	res := s.engine.IngestDocument(r.Context(), models.Document{
		Name:      req.FileName,
		MimeType:  req.MimeType,
		System:    req.System,
		Subsystem: req.Subsystem,
		Content:   req.Content,
	})
	writeJSON(w, http.StatusOK, ingestResponse{
		OK:      true,
		Added:   res.Chunks,
		Total:   s.engine.Store().Len(),
		Results: []rag.IngestResult{res},
	})
}

type askRequest struct {
	Query     string   `json:"query"`
	K         int      `json:"k"`
	System    string   `json:"system"`
	Subsystem string   `json:"subsystem"`
	Tags      []string `json:"tags"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ans, err := s.engine.Answer(r.Context(), rag.AskRequest{
		Query: req.Query,
		K:     req.K,
		Filter: models.Filter{
			System:    req.System,
			Subsystem: req.Subsystem,
			Tags:      req.Tags,
		},
	})
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "Missing query")
		return
	case errors.Is(err, models.ErrEmptyIndex):
		writeError(w, http.StatusBadRequest, "Index is empty. Ingest documents before asking.")
		return
	case err != nil:
		loggerFrom(r).Error().Err(err).Msg("Query failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.engine.Store().Clear()
	loggerFrom(r).Info().Msg("Index cleared")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "total": 0})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Store().Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"uptime":       time.Since(s.startedAt).Round(time.Second).String(),
		"totalIndexed": s.engine.Store().Len(),
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
