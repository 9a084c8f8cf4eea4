package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cuantrack/internal/core"
	"cuantrack/internal/shopping"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.tracker.Shopping().Categories()))
}

type categoryRequest struct {
	Name string `json:"name"`
}

// handleAddCategory answers 201 for a new category and 200 when it already exists.
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name := sanitizeText(req.Name)
	if name == "" {
		respondError(w, r, invalidField("name", core.ErrEmptyName))
		return
	}

	var added bool
	err := s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		added = st.AddCategory(name)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, nonNil(s.tracker.Shopping().Categories()))
}

func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	item := sanitizeText(r.URL.Query().Get("item"))
	writeJSON(w, http.StatusOK, s.tracker.Shopping().PriceHistory(item))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Shopping().Templates())
}

type saveTemplateRequest struct {
	ListID string `json:"listId"`
	Name   string `json:"name"`
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req saveTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	var tmpl *core.Template
	err := s.mutateList(r, req.ListID, func(st *shopping.Store) error {
		var err error
		tmpl, err = st.SaveTemplate(req.ListID, sanitizeText(req.Name))
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

type applyTemplateRequest struct {
	ListID string `json:"listId"`
}

type applyTemplateResponse struct {
	Added int          `json:"added"`
	List  listResponse `json:"list"`
}

func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req applyTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	templateID := chi.URLParam(r, "templateID")

	var added int
	err := s.mutateList(r, req.ListID, func(st *shopping.Store) error {
		if !hasTemplate(st, templateID) {
			return errNotFound
		}
		var err error
		added, err = st.ApplyTemplate(templateID, req.ListID)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	l, _ := s.tracker.Shopping().List(req.ListID)
	writeJSON(w, http.StatusOK, applyTemplateResponse{Added: added, List: s.listView(l)})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	err := s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		if !hasTemplate(st, templateID) {
			return errNotFound
		}
		st.DeleteTemplate(templateID)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func hasTemplate(st *shopping.Store, templateID string) bool {
	for _, t := range st.Templates() {
		if t.ID == templateID {
			return true
		}
	}
	return false
}

// handleExport streams the shopping export document as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.tracker.Export()
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cuantrack-export.json"`)
	_, _ = w.Write(data)
}

// handleImport replaces the shopping state with the posted export document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readImport(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.tracker.Import(r.Context(), data); err != nil {
		respondError(w, r, err)
		return
	}
	st := s.tracker.Shopping()
	writeJSON(w, http.StatusOK, map[string]int{
		"lists":        len(st.Lists()),
		"inventory":    len(st.Inventory()),
		"templates":    len(st.Templates()),
		"priceHistory": len(st.PriceHistory("")),
	})
}
