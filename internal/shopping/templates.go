package shopping

import (
	"strings"

	"cuantrack/internal/core"
)

// SaveTemplate captures a list's items as a reusable template. It returns
// nil for an unknown list.
func (s *Store) SaveTemplate(listID, name string) (*core.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.list(listID)
	if l == nil {
		return nil, nil
	}
	t := core.Template{ID: s.newID(), Name: name, Items: make([]core.TemplateItem, 0, len(l.Items))}
	for _, it := range l.Items {
		t.Items = append(t.Items, core.TemplateItem{
			Name:     it.Name,
			Qty:      it.Qty,
			Unit:     it.Unit,
			Category: it.Category,
			EstPrice: it.EstPrice,
			Notes:    it.Notes,
		})
	}
	s.state.Templates = append(s.state.Templates, t)

	out := t
	out.Items = append([]core.TemplateItem(nil), t.Items...)
	return &out, nil
}

// ApplyTemplate appends the template's items to a list as fresh unpurchased
// items and returns how many were added.
func (s *Store) ApplyTemplate(templateID, listID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tmpl *core.Template
	for i := range s.state.Templates {
		if s.state.Templates[i].ID == templateID {
			tmpl = &s.state.Templates[i]
			break
		}
	}
	if tmpl == nil {
		return 0, nil
	}
	l, err := s.mutableList(listID)
	if l == nil || err != nil {
		return 0, err
	}
	for _, ti := range tmpl.Items {
		s.appendItem(l, core.ShoppingItem{
			Name:     ti.Name,
			Qty:      ti.Qty,
			Unit:     ti.Unit,
			Category: ti.Category,
			EstPrice: ti.EstPrice,
			Notes:    ti.Notes,
		})
	}
	return len(tmpl.Items), nil
}

func (s *Store) DeleteTemplate(templateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.state.Templates[:0]
	for _, t := range s.state.Templates {
		if t.ID != templateID {
			kept = append(kept, t)
		}
	}
	s.state.Templates = kept
}

func (s *Store) Templates() []core.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Template, 0, len(s.state.Templates))
	for _, t := range s.state.Templates {
		t.Items = append([]core.TemplateItem(nil), t.Items...)
		out = append(out, t)
	}
	return out
}
