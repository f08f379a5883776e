package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/trazabilidad/internal/export"
	"github.com/hyperjump/trazabilidad/internal/models"
	"github.com/hyperjump/trazabilidad/internal/pipeline"
	"github.com/hyperjump/trazabilidad/internal/workspace"
)

const (
	uploadField         = "files"
	defaultPreviewRows  = 5
	multipartMemory     = 8 << 20
	warningsCountHeader = "X-Trazabilidad-Warnings"
)

const indexHTML = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>Trazabilidad PDF a Excel</title></head>
<body>
<h1>Trazabilidad PDF a Excel</h1>
<form method="post" action="/api/v1/export" enctype="multipart/form-data">
<input type="file" name="files" accept="application/pdf,.pdf" multiple required>
<button type="submit">Descargar resultado.xlsx</button>
</form>
</body>
</html>
`

type previewResponse struct {
	Columns   []string         `json:"columns"`
	Rows      [][]models.Cell  `json:"rows"`
	TotalRows int              `json:"total_rows"`
	Report    *pipeline.Report `json:"report"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace.New(s.config.Workspace.Root)
	if err != nil {
		s.logger.Error("workspace failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer s.closeWorkspace(ws)

	ds, report, ok := s.extract(w, r, ws)
	if !ok {
		return
	}

	name := s.config.Export.FileName
	path := filepath.Join(ws.Dir(), name)
	if err := export.WriteFile(path, ds, s.exportOpts); err != nil {
		s.logger.Error("export failed", zap.String("op", ws.ID()), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	f, err := os.Open(path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set(warningsCountHeader, strconv.Itoa(len(report.Warnings)))
	http.ServeContent(w, r, name, info.ModTime(), f)
	s.logger.Info("export served", zap.String("op", ws.ID()), zap.Int("rows", ds.Len()), zap.Int64("bytes", info.Size()))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	limit := defaultPreviewRows
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	ws, err := workspace.New(s.config.Workspace.Root)
	if err != nil {
		s.logger.Error("workspace failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer s.closeWorkspace(ws)

	ds, report, ok := s.extract(w, r, ws)
	if !ok {
		return
	}
	head := ds.Head(limit)
	s.respondJSON(w, http.StatusOK, previewResponse{
		Columns:   head.Columns,
		Rows:      head.Rows,
		TotalRows: ds.Len(),
		Report:    report,
	})
}

// extract stores the uploaded files in ws and runs the pipeline over them in
// upload order. When it returns false the error response has been written.
func (s *Server) extract(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) (*models.Dataset, *pipeline.Report, bool) {
	maxBytes := int64(s.config.Server.MaxUploadMB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.config.Server.MaxUploadMB))
			return nil, nil, false
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, nil, false
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("no files uploaded in field %q", uploadField))
		return nil, nil, false
	}

	sources := make([]pipeline.Source, 0, len(headers))
	for _, fh := range headers {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("not a PDF file: %s", fh.Filename))
			return nil, nil, false
		}
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return nil, nil, false
		}
		path, err := ws.Put(fh.Filename, f)
		f.Close()
		if err != nil {
			s.logger.Error("store upload failed", zap.String("op", ws.ID()), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return nil, nil, false
		}
		sources = append(sources, pipeline.Source{Name: filepath.Base(fh.Filename), Path: path})
	}
	s.logger.Debug("upload stored", zap.String("op", ws.ID()), zap.Int("files", len(sources)))

	ds, report, err := s.pipeline.Run(r.Context(), sources)
	switch {
	case errors.Is(err, pipeline.ErrNothingToExport):
		s.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "no tables could be extracted from the uploaded files",
			"report": report,
		})
		return nil, nil, false
	case r.Context().Err() != nil:
		s.logger.Warn("request cancelled", zap.String("op", ws.ID()), zap.Error(r.Context().Err()))
		return nil, nil, false
	case err != nil:
		s.logger.Error("extraction failed", zap.String("op", ws.ID()), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	return ds, report, true
}

func (s *Server) closeWorkspace(ws *workspace.Workspace) {
	if err := ws.Close(); err != nil {
		s.logger.Warn("workspace cleanup failed", zap.String("op", ws.ID()), zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
