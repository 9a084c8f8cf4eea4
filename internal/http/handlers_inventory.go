package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cuantrack/internal/core"
	"cuantrack/internal/shopping"
)

type inventoryRequest struct {
	Name         *string `json:"name"`
	Unit         *string `json:"unit"`
	CurrentStock *amount `json:"currentStock"`
	MinStock     *amount `json:"minStock"`
	Category     *string `json:"category"`
}

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.tracker.Shopping().Inventory()))
}

func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Shopping().LowStock())
}

func (s *Server) handleAddInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in := shopping.NewInventoryItem{
		Name:     sanitizeText(deref(req.Name)),
		Unit:     sanitizeText(deref(req.Unit)),
		Category: sanitizeText(deref(req.Category)),
	}
	if req.CurrentStock != nil {
		stock, err := req.CurrentStock.parse("currentStock")
		if err != nil {
			respondError(w, r, err)
			return
		}
		in.CurrentStock = stock
	}
	if req.MinStock != nil {
		minStock, err := req.MinStock.parse("minStock")
		if err != nil {
			respondError(w, r, err)
			return
		}
		in.MinStock = minStock
	}

	var created core.InventoryItem
	err := s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		var err error
		created, err = st.AddInventoryItem(in)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u := shopping.InventoryUpdate{
		Name:     sanitizePtr(req.Name),
		Unit:     sanitizePtr(req.Unit),
		Category: sanitizePtr(req.Category),
	}
	var err error
	if u.CurrentStock, err = parseOptionalAmount(req.CurrentStock, "currentStock"); err != nil {
		respondError(w, r, err)
		return
	}
	if u.MinStock, err = parseOptionalAmount(req.MinStock, "minStock"); err != nil {
		respondError(w, r, err)
		return
	}

	invID := chi.URLParam(r, "invID")
	err = s.tracker.UpdateShopping(r.Context(), func(st *shopping.Store) error {
		if _, ok := st.InventoryItem(invID); !ok {
			return errNotFound
		}
		return st.UpdateInventoryItem(invID, u)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	item, _ := s.tracker.Shopping().InventoryItem(invID)
	writeJSON(w, http.StatusOK, item)
}

type adjustRequest struct {
	Delta amount `json:"delta"`
}

type adjustResponse struct {
	Item      core.InventoryItem `json:"item"`
	AutoAdded *core.ShoppingItem `json:"autoAdded"`
}

// handleAdjustStock applies a signed stock delta. When stock falls under the
// minimum the response names the item put on the active list, if any.
func (s *Server) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	delta, err := req.Delta.parseSigned("delta")
	if err != nil {
		respondError(w, r, err)
		return
	}

	invID := chi.URLParam(r, "invID")
	if _, ok := s.tracker.Shopping().InventoryItem(invID); !ok {
		respondError(w, r, errNotFound)
		return
	}
	added, err := s.tracker.AdjustStock(r.Context(), invID, delta)
	if err != nil {
		respondError(w, r, err)
		return
	}
	item, _ := s.tracker.Shopping().InventoryItem(invID)
	writeJSON(w, http.StatusOK, adjustResponse{Item: item, AutoAdded: added})
}
