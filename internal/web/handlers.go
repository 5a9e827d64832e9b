package web

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/glossary/internal/catalog"
	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/JonMunkholm/glossary/internal/service"
	"github.com/JonMunkholm/glossary/internal/web/views"
)

// maxMemory is the part of a multipart form kept in memory; the rest spills
// to temporary files.
const maxMemory = 32 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := views.Index(views.UploadPage{
		MaxFileSize:   s.cfg.Upload.MaxFileSize,
		PreviewRows:   s.cfg.Upload.PreviewRows,
		ImportEnabled: s.service.ImportEnabled(),
		Glossary:      s.cfg.Catalog.Glossary,
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

type healthResponse struct {
	Status      string                `json:"status"`
	Conversions service.LimiterStatus `json:"conversions"`
	Import      bool                  `json:"import"`
	History     bool                  `json:"history"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{
		Status:      "ok",
		Conversions: s.service.LimiterStatus(),
		Import:      s.service.ImportEnabled(),
		History:     s.service.HistoryEnabled(),
	})
}

// uploadedFile opens the "file" part of a multipart request.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, "", service.ErrFileTooLarge
		}
		return nil, "", service.ErrNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", service.ErrNoFile
	}
	return file, header.Filename, nil
}

// convertUpload runs the conversion for the request's uploaded file.
func (s *Server) convertUpload(w http.ResponseWriter, r *http.Request) (*service.ConvertResult, error) {
	file, name, err := s.uploadedFile(w, r)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return s.service.Convert(r.Context(), name, file)
}

// handleConvertFragment renders the preview and download link for the
// upload page.
func (s *Server) handleConvertFragment(w http.ResponseWriter, r *http.Request) {
	res, err := s.convertUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	fragment := views.ConvertFragment(views.ConvertResult{
		FileName:  res.FileName,
		Sheet:     res.Sheet,
		TotalRows: len(res.Records),
		Preview:   s.service.Preview(res, 0),
		CSV:       res.CSV,
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := fragment.Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// handleConvertCSV returns the converted CSV as a download.
func (s *Server) handleConvertCSV(w http.ResponseWriter, r *http.Request) {
	res, err := s.convertUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition(res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.CSV)))
	w.Header().Set("X-Row-Count", strconv.Itoa(len(res.Records)))
	_, _ = w.Write(res.CSV)
}

type previewResponse struct {
	FileName  string                  `json:"fileName"`
	Sheet     string                  `json:"sheet"`
	TotalRows int                     `json:"totalRows"`
	Columns   []string                `json:"columns"`
	Rows      []glossary.TargetRecord `json:"rows"`
}

// handlePreview returns the first ?rows= records as JSON.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res, err := s.convertUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, previewResponse{
		FileName:  res.FileName,
		Sheet:     res.Sheet,
		TotalRows: len(res.Records),
		Columns:   glossary.OutputHeader(),
		Rows:      s.service.Preview(res, parseIntParam(r, "rows", s.cfg.Upload.PreviewRows)),
	})
}

// handleImport converts the upload and creates the terms in the catalog.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.service.ImportEnabled() {
		s.respondError(w, r, catalog.ErrNotConfigured)
		return
	}

	file, name, err := s.uploadedFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	res, err := s.service.Import(r.Context(), name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), parseIntParam(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, run)
}

// parseIntParam reads a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return defaultVal
	}
	return v
}

// contentDisposition builds an attachment header that survives non-ASCII
// file names.
func contentDisposition(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
