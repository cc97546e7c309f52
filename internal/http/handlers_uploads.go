package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fleetdesk/internal/core"
)

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	s.listFiles(w, r, core.FileContract)
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	s.listFiles(w, r, core.FileChart)
}

func (s *Server) handleUploadContract(w http.ResponseWriter, r *http.Request) {
	s.uploadFile(w, r, core.FileContract)
}

func (s *Server) handleUploadChart(w http.ResponseWriter, r *http.Request) {
	s.uploadFile(w, r, core.FileChart)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request, kind core.FileKind) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	files, err := s.deps.Repo.ListStoredFiles(r.Context(), id, kind)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	if files == nil {
		files = []core.StoredFile{}
	}
	respondData(w, http.StatusOK, files)
}

// uploadFile stores a multipart upload under a generated name inside
// the media directory and records it. The original filename is kept
// only as metadata, never as a path.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request, kind core.FileKind) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if _, err := s.deps.Repo.GetClient(r.Context(), id); err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing form file field \"file\"")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[kind][ext] {
		respondError(w, http.StatusBadRequest, "unsupported file type "+ext)
		return
	}

	storedName := uuid.New().String() + ext
	destPath := filepath.Join(s.deps.MediaDir, storedName)

	dest, err := os.Create(destPath)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	written, err := io.Copy(dest, file)
	if cerr := dest.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(destPath)
		respondDomainError(r.Context(), w, err)
		return
	}

	stored := core.StoredFile{
		ClientID:     id,
		Kind:         kind,
		StoredName:   storedName,
		OriginalName: filepath.Base(header.Filename),
		ContentType:  header.Header.Get("Content-Type"),
		SizeBytes:    written,
	}
	fileID, err := s.deps.Repo.AddStoredFile(r.Context(), stored)
	if err != nil {
		os.Remove(destPath)
		respondDomainError(r.Context(), w, err)
		return
	}
	stored.ID = fileID

	slog.InfoContext(r.Context(), "File uploaded",
		"client_id", id, "kind", kind, "stored_name", storedName, "size_bytes", written)
	respondData(w, http.StatusCreated, stored)
}

var allowedExtensions = map[core.FileKind]map[string]bool{
	core.FileContract: {".pdf": true},
	core.FileChart:    {".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".pdf": true},
}

// handleServeMedia serves an uploaded file. Only names present in the
// stored_files table are served, so path traversal never reaches disk.
func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))

	stored, err := s.deps.Repo.GetStoredFileByName(r.Context(), name)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	path := filepath.Join(s.deps.MediaDir, stored.StoredName)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		respondDomainError(r.Context(), w, err)
		return
	}
	defer f.Close()

	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+stored.OriginalName+`"`)
	http.ServeContent(w, r, stored.StoredName, stored.UploadedAt, f)
}
