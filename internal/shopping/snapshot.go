package shopping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuantrack/internal/core"
)

// Export returns a detached copy of the whole store.
func (s *Store) Export() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Restore replaces the whole store with st. Last write wins; nothing is merged.
func (s *Store) Restore(st State) {
	st = copyState(st)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// ImportJSON parses an export document and replaces the store with it. The
// only shape check is that version is a JSON number; anything else fails
// with ErrInvalidImport and leaves the store as it was.
func (s *Store) ImportJSON(data []byte) error {
	st, err := DecodeState(data)
	if err != nil {
		return err
	}
	s.Restore(st)
	return nil
}

// ExportJSON encodes the export document.
func (s *Store) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s.Export(), "", "  ")
}

// DecodeState parses a shopping-state document, requiring a numeric version.
func DecodeState(data []byte) (State, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	raw, ok := probe["version"]
	if !ok || !isJSONNumber(raw) {
		return State{}, fmt.Errorf("%w: version must be a number", ErrInvalidImport)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return st, nil
}

func isJSONNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func copyState(st State) State {
	out := State{
		Version:      st.Version,
		Lists:        make([]core.ShoppingList, 0, len(st.Lists)),
		Inventory:    append([]core.InventoryItem{}, st.Inventory...),
		PriceHistory: append([]core.PriceHistoryEntry{}, st.PriceHistory...),
		Templates:    make([]core.Template, 0, len(st.Templates)),
		Categories:   append([]string{}, st.Categories...),
	}
	for _, l := range st.Lists {
		out.Lists = append(out.Lists, cloneList(l))
	}
	for _, t := range st.Templates {
		t.Items = append([]core.TemplateItem{}, t.Items...)
		out.Templates = append(out.Templates, t)
	}
	if st.ActiveListID != nil {
		id := *st.ActiveListID
		out.ActiveListID = &id
	}
	return out
}
