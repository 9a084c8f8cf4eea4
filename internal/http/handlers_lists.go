package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
	"cuantrack/internal/shopping"
)

type listRequest struct {
	Title  *string `json:"title"`
	Period *string `json:"period"`
	Store  *string `json:"store"`
}

type listResponse struct {
	core.ShoppingList
	Totals core.ListTotals `json:"totals"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Server) listView(l core.ShoppingList) listResponse {
	return listResponse{ShoppingList: l, Totals: core.ComputeListTotals(&l)}
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	lists := s.tracker.Shopping().Lists()
	out := make([]listResponse, 0, len(lists))
	for _, l := range lists {
		out = append(out, s.listView(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	var created core.ShoppingList
	err := s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		var err error
		created, err = st.CreateList(
			sanitizeText(deref(req.Title)),
			sanitizeText(deref(req.Period)),
			sanitizeText(deref(req.Store)))
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.listView(created))
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	l, ok := s.tracker.Shopping().List(chi.URLParam(r, "listID"))
	if !ok {
		respondError(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.listView(l))
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	listID := chi.URLParam(r, "listID")
	err := s.mutateList(r, listID, func(st *shopping.Store) error {
		return st.UpdateList(listID, shopping.ListUpdate{
			Title:  sanitizePtr(req.Title),
			Period: sanitizePtr(req.Period),
			Store:  sanitizePtr(req.Store),
		})
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.handleGetList(w, r)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	err := s.mutateList(r, listID, func(st *shopping.Store) error {
		st.DeleteList(listID)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetActiveList(w http.ResponseWriter, r *http.Request) {
	l, ok := s.tracker.Shopping().ActiveList()
	if !ok {
		writeError(w, http.StatusNotFound, "no active list")
		return
	}
	writeJSON(w, http.StatusOK, s.listView(l))
}

type activeListRequest struct {
	ListID string `json:"listId"`
}

// handleSetActiveList points the session at a list; an empty id clears it.
func (s *Server) handleSetActiveList(w http.ResponseWriter, r *http.Request) {
	var req activeListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	err := s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		if req.ListID != "" {
			if _, ok := st.List(req.ListID); !ok {
				return errNotFound
			}
		}
		st.SetActiveList(req.ListID)
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.ListID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.handleGetActiveList(w, r)
}

func (s *Server) handleListTotals(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	if _, ok := s.tracker.Shopping().List(listID); !ok {
		respondError(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Shopping().Totals(listID))
}

type linkBudgetRequest struct {
	Category *string `json:"category"`
}

// handleLinkBudget links the list to a budget category, or unlinks it on null.
func (s *Server) handleLinkBudget(w http.ResponseWriter, r *http.Request) {
	var req linkBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	category := sanitizePtr(req.Category)
	if category != nil && *category == "" {
		category = nil
	}
	listID := chi.URLParam(r, "listID")
	err := s.mutateList(r, listID, func(st *shopping.Store) error {
		return st.LinkListToBudget(listID, category)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.handleGetList(w, r)
}

type completeResponse struct {
	Transaction core.Transaction `json:"transaction"`
	List        listResponse     `json:"list"`
}

func (s *Server) handleCompleteList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	if _, ok := s.tracker.Shopping().List(listID); !ok {
		respondError(w, r, errNotFound)
		return
	}
	tx, err := s.tracker.Complete(r.Context(), listID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	l, _ := s.tracker.Shopping().List(listID)
	writeJSON(w, http.StatusOK, completeResponse{Transaction: tx, List: s.listView(l)})
}

type itemRequest struct {
	Name        *string `json:"name"`
	Qty         *amount `json:"qty"`
	Unit        *string `json:"unit"`
	Category    *string `json:"category"`
	EstPrice    *amount `json:"estPrice"`
	ActualPrice *amount `json:"actualPrice"`
	Notes       *string `json:"notes"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in := shopping.NewItem{
		Name:     sanitizeText(deref(req.Name)),
		Unit:     sanitizeText(deref(req.Unit)),
		Category: sanitizeText(deref(req.Category)),
		Notes:    sanitizeText(deref(req.Notes)),
	}
	qty, err := parseOptionalAmount(req.Qty, "qty")
	if err != nil {
		respondError(w, r, err)
		return
	}
	in.Qty = decimal.NewFromInt(1)
	if qty != nil {
		in.Qty = *qty
	}
	est, err := parseOptionalAmount(req.EstPrice, "estPrice")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if est != nil {
		in.EstPrice = *est
	}

	listID := chi.URLParam(r, "listID")
	var added *core.ShoppingItem
	err = s.mutateList(r, listID, func(st *shopping.Store) error {
		var err error
		added, err = st.AddItem(listID, in)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u := shopping.ItemUpdate{
		Name:     sanitizePtr(req.Name),
		Unit:     sanitizePtr(req.Unit),
		Category: sanitizePtr(req.Category),
		Notes:    sanitizePtr(req.Notes),
	}
	var err error
	if u.Qty, err = parseOptionalAmount(req.Qty, "qty"); err != nil {
		respondError(w, r, err)
		return
	}
	if u.EstPrice, err = parseOptionalAmount(req.EstPrice, "estPrice"); err != nil {
		respondError(w, r, err)
		return
	}
	if u.ActualPrice, err = parseOptionalAmount(req.ActualPrice, "actualPrice"); err != nil {
		respondError(w, r, err)
		return
	}

	listID, itemID := chi.URLParam(r, "listID"), chi.URLParam(r, "itemID")
	err = s.mutateItem(r, listID, itemID, func(st *shopping.Store) error {
		return st.UpdateItem(listID, itemID, u)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeItem(w, r, listID, itemID)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID := chi.URLParam(r, "listID"), chi.URLParam(r, "itemID")
	err := s.mutateItem(r, listID, itemID, func(st *shopping.Store) error {
		return st.RemoveItem(listID, itemID)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleRequest struct {
	ActualPrice *amount `json:"actualPrice"`
}

// handleTogglePurchased flips the purchased flag. The body is optional.
func (s *Server) handleTogglePurchased(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}
	price, err := parseOptionalAmount(req.ActualPrice, "actualPrice")
	if err != nil {
		respondError(w, r, err)
		return
	}

	listID, itemID := chi.URLParam(r, "listID"), chi.URLParam(r, "itemID")
	err = s.mutateItem(r, listID, itemID, func(st *shopping.Store) error {
		return st.TogglePurchased(listID, itemID, price)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeItem(w, r, listID, itemID)
}

func (s *Server) handleClearList(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	err := s.mutateList(r, listID, func(st *shopping.Store) error {
		return st.ClearShoppingList(listID)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type removeItemsRequest struct {
	ItemIDs []string `json:"itemIds"`
}

func (s *Server) handleRemoveSelectedItems(w http.ResponseWriter, r *http.Request) {
	var req removeItemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	listID := chi.URLParam(r, "listID")
	err := s.mutateList(r, listID, func(st *shopping.Store) error {
		return st.RemoveSelectedItems(listID, req.ItemIDs)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.handleGetList(w, r)
}

// mutateList runs fn under the tracker after checking the list exists.
func (s *Server) mutateList(r *http.Request, listID string, fn func(*shopping.Store) error) error {
	return s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		if _, ok := st.List(listID); !ok {
			return errNotFound
		}
		return fn(st)
	})
}

// mutateItem is mutateList that also requires the item to be on the list.
func (s *Server) mutateItem(r *http.Request, listID, itemID string, fn func(*shopping.Store) error) error {
	return s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		l, ok := st.List(listID)
		if !ok || findItem(l, itemID) == nil {
			return errNotFound
		}
		return fn(st)
	})
}

func (s *Server) writeItem(w http.ResponseWriter, r *http.Request, listID, itemID string) {
	l, _ := s.tracker.Shopping().List(listID)
	item := findItem(l, itemID)
	if item == nil {
		respondError(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func findItem(l core.ShoppingList, itemID string) *core.ShoppingItem {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return &l.Items[i]
		}
	}
	return nil
}
