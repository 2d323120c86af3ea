package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/eprregister/internal/core"
	"github.com/JonMunkholm/eprregister/internal/sheet"
	"github.com/go-chi/chi/v5"
)

// maxJSONBody limits JSON request bodies.
const maxJSONBody = 1 << 20

type fieldInfo struct {
	Name       string   `json:"name"`
	Header     string   `json:"header"`
	Type       string   `json:"type"`
	Required   bool     `json:"required,omitempty"`
	Derived    bool     `json:"derived,omitempty"`
	Transient  bool     `json:"transient,omitempty"`
	EnumValues []string `json:"enumValues,omitempty"`
}

type registerInfo struct {
	Kind      string      `json:"kind"`
	Label     string      `json:"label"`
	Group     string      `json:"group"`
	CodeField string      `json:"codeField,omitempty"`
	Fields    []fieldInfo `json:"fields"`
}

func describe(def core.Definition) registerInfo {
	info := registerInfo{
		Kind:   def.Info.Kind,
		Label:  def.Info.Label,
		Group:  def.Info.Group,
		Fields: make([]fieldInfo, len(def.Fields)),
	}
	if def.Code != nil {
		info.CodeField = def.Code.Field
	}
	for i, f := range def.Fields {
		info.Fields[i] = fieldInfo{
			Name:       f.Name,
			Header:     f.Header,
			Type:       f.Type.String(),
			Required:   f.Required,
			Derived:    f.Derived,
			Transient:  f.Transient,
			EnumValues: f.EnumValues,
		}
	}
	return info
}

// handleHealth reports liveness and the number of open registers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"registers":   core.Count(),
		"open":        s.service.OpenCount(),
		"activeSaves": s.service.ActiveSaves(),
	})
}

// handleListRegisters returns every register with its columns.
func (s *Server) handleListRegisters(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	out := make([]registerInfo, len(defs))
	for i, def := range defs {
		out[i] = describe(def)
	}
	writeJSON(w, http.StatusOK, map[string]any{"registers": out})
}

// handleDownloadTemplate serves the import template for a register.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	def, err := s.service.Definition(kind)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, err := sheet.Template(def)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("template %s: %w", kind, err))
		return
	}
	writeSpreadsheet(w, kind+"_template.xlsx", data)
}

type openRequest struct {
	OwnerName string `json:"ownerName"`
	Period    string `json:"period"`
}

// handleOpen fetches a register for an owner and returns its rows.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	ownerID := chi.URLParam(r, "owner")

	var req openRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.respondError(w, r, err)
		return
	}

	owner := core.Owner{ID: ownerID, Name: req.OwnerName, Period: strings.TrimSpace(req.Period)}
	view, err := s.service.Open(WithRequestMetadata(r.Context(), r), kind, owner)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleView returns the open register with dirty flags.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(chi.URLParam(r, "kind"), chi.URLParam(r, "owner"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleExport serves the open register's current rows, saved or not, as a workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	ownerID := chi.URLParam(r, "owner")

	store, err := s.service.Store(kind, ownerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, err := sheet.Export(store.Definition(), store.Rows())
	if err != nil {
		s.respondError(w, r, fmt.Errorf("export %s: %w", kind, err))
		return
	}
	writeSpreadsheet(w, fmt.Sprintf("%s_%s.xlsx", kind, ownerID), data)
}

func writeSpreadsheet(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// decodeJSON reads a JSON body into v. With optional set an empty body is
// accepted and leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
