package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/eprregister/internal/core"
	"github.com/JonMunkholm/eprregister/internal/sheet"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is the in-memory budget for multipart parsing; larger
// parts spill to temporary files.
const multipartMemory = 32 << 20

// rowParams returns the kind, owner and row key route parameters.
func rowParams(r *http.Request) (kind, ownerID, key string) {
	return chi.URLParam(r, "kind"), chi.URLParam(r, "owner"), chi.URLParam(r, "key")
}

type addRowRequest struct {
	Values map[string]any `json:"values"`
}

// handleAddRow appends a new row, optionally with initial values.
func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	kind, ownerID := chi.URLParam(r, "kind"), chi.URLParam(r, "owner")

	var req addRowRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.respondError(w, r, err)
		return
	}
	row, err := s.service.AddRow(kind, ownerID, req.Values)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

type fieldRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (s *Server) decodeField(w http.ResponseWriter, r *http.Request) (fieldRequest, error) {
	var req fieldRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		return req, err
	}
	if req.Field == "" {
		return req, fmt.Errorf("%w: field is required", errBadRequest)
	}
	return req, nil
}

// handleEditField sets one field of a row and returns the recomputed row.
func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	kind, ownerID, key := rowParams(r)

	req, err := s.decodeField(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	row, err := s.service.EditField(kind, ownerID, key, req.Field, req.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleBlurField runs the leave-field normalisation, such as rescaling
// percentages typed as whole numbers.
func (s *Server) handleBlurField(w http.ResponseWriter, r *http.Request) {
	kind, ownerID, key := rowParams(r)

	req, err := s.decodeField(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	row, err := s.service.BlurField(kind, ownerID, key, req.Field)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleToggleEdit(w http.ResponseWriter, r *http.Request) {
	kind, ownerID, key := rowParams(r)

	row, err := s.service.ToggleEdit(kind, ownerID, key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	kind, ownerID, key := rowParams(r)

	row, err := s.service.Revert(kind, ownerID, key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleSaveRow confirms a row. The whole register is sent with it.
func (s *Server) handleSaveRow(w http.ResponseWriter, r *http.Request) {
	kind, ownerID, key := rowParams(r)

	res, err := s.service.SaveRow(WithRequestMetadata(r.Context(), r), kind, ownerID, key)
	s.finishPersist(w, r, kind, ownerID, res, err)
}

// handleSaveAll saves the whole register.
func (s *Server) handleSaveAll(w http.ResponseWriter, r *http.Request) {
	kind, ownerID := chi.URLParam(r, "kind"), chi.URLParam(r, "owner")

	res, err := s.service.SaveAll(WithRequestMetadata(r.Context(), r), kind, ownerID)
	s.finishPersist(w, r, kind, ownerID, res, err)
}

// handleDeleteRow removes a row. When the persistence service refuses, the
// row is restored and returned under "restored".
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	kind, ownerID, key := rowParams(r)

	res, err := s.service.DeleteRow(WithRequestMetadata(r.Context(), r), kind, ownerID, key)
	s.finishPersist(w, r, kind, ownerID, res, err)
}

func (s *Server) finishPersist(w http.ResponseWriter, r *http.Request, kind, ownerID string, res core.Result, err error) {
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.service.View(kind, ownerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondResult(w, r, res, view)
}

// handleAttachment stores an uploaded file on a row as a pending
// attachment. The file is sent to the persistence service on the next save.
func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	kind, ownerID, key := rowParams(r)
	field := chi.URLParam(r, "field")
	limit := s.cfg.Upload.MaxAttachmentSize

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondUploadError(w, r, err, limit)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: missing file field", errBadRequest))
		return
	}
	defer file.Close()

	if header.Size > limit {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("attachment exceeds %d bytes", limit))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondUploadError(w, r, err, limit)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	row, err := s.service.SetAttachment(kind, ownerID, key, field, core.PendingFile{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// multipartOverhead allows for multipart boundaries and headers on top of
// the file itself.
const multipartOverhead = 64 << 10

// handleImport appends the rows of an uploaded workbook. A single bad cell
// rejects the whole file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind, ownerID := chi.URLParam(r, "kind"), chi.URLParam(r, "owner")
	limit := s.cfg.Upload.MaxFileSize

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondUploadError(w, r, err, limit)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: missing file field", errBadRequest))
		return
	}
	defer file.Close()

	records, err := sheet.ReadRecords(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Import(WithRequestMetadata(r.Context(), r), kind, ownerID, records)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) respondUploadError(w http.ResponseWriter, r *http.Request, err error, limit int64) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", limit))
		return
	}
	s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
}
