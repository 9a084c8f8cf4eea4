package shopping

import (
	"errors"
	"testing"
)

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	list := mustList(t, s, "Mingguan")
	it := mustItem(t, s, list.ID, "Telur", "1", "14000")
	_ = s.TogglePurchased(list.ID, it.ID, nil)
	s.SetActiveList(list.ID)
	s.AddCategory("Minuman")

	data, err := s.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	other, _ := newTestStore(t)
	if err := other.ImportJSON(data); err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	got, ok := other.ActiveList()
	if !ok || got.ID != list.ID || len(got.Items) != 1 || !got.Items[0].Purchased {
		t.Fatalf("unexpected imported active list: %+v", got)
	}
	if !got.Items[0].ActualPrice.Equal(d("14000")) {
		t.Fatalf("actual price lost on import")
	}
	if len(other.PriceHistory("Telur")) != 1 {
		t.Fatalf("price history lost on import")
	}
	if n := len(other.Categories()); n != len(DefaultCategories)+1 {
		t.Fatalf("categories lost on import: %d", n)
	}
}

func TestImportJSONRejectsNonNumericVersion(t *testing.T) {
	docs := map[string]string{
		"missing version": `{"lists": []}`,
		"string version":  `{"version": "1", "lists": []}`,
		"null version":    `{"version": null}`,
		"not an object":   `[1, 2, 3]`,
		"not json":        `version=1`,
		"wrong shape":     `{"version": 1, "lists": "nope"}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestStore(t)
			list := mustList(t, s, "Tetap")
			if err := s.ImportJSON([]byte(doc)); !errors.Is(err, ErrInvalidImport) {
				t.Fatalf("expected ErrInvalidImport, got %v", err)
			}
			if _, ok := s.List(list.ID); !ok {
				t.Fatalf("rejected import changed the store")
			}
		})
	}
}

func TestImportJSONReplacesWholesale(t *testing.T) {
	s, _ := newTestStore(t)
	old := mustList(t, s, "Lama")

	if err := s.ImportJSON([]byte(`{"version": 2, "lists": [], "categories": ["Satu"]}`)); err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if _, ok := s.List(old.ID); ok {
		t.Fatalf("import should replace existing lists")
	}
	if cats := s.Categories(); len(cats) != 1 || cats[0] != "Satu" {
		t.Fatalf("unexpected categories: %v", cats)
	}
	if v := s.Export().Version; v != "2" {
		t.Fatalf("version = %s, want the imported 2", v)
	}
}

func TestImportJSONAcceptsAnyNumericVersion(t *testing.T) {
	for _, version := range []string{"1.5", "0", "-3", "2e1"} {
		t.Run(version, func(t *testing.T) {
			s, _ := newTestStore(t)
			doc := `{"version": ` + version + `, "lists": []}`
			if err := s.ImportJSON([]byte(doc)); err != nil {
				t.Fatalf("ImportJSON(%s): %v", doc, err)
			}
			if v := s.Export().Version; string(v) != version {
				t.Fatalf("version = %s, want %s", v, version)
			}
			data, err := s.ExportJSON()
			if err != nil {
				t.Fatalf("ExportJSON: %v", err)
			}
			if _, err := DecodeState(data); err != nil {
				t.Fatalf("re-import of exported document: %v", err)
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	s, _ := newTestStore(t)
	src := mustList(t, s, "Sumber")
	it := mustItem(t, s, src.ID, "Beras", "5", "12000")
	_ = s.TogglePurchased(src.ID, it.ID, nil)
	mustItem(t, s, src.ID, "Minyak", "1", "20000")

	tmpl, err := s.SaveTemplate(src.ID, "Bulanan")
	if err != nil || tmpl == nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	if len(tmpl.Items) != 2 {
		t.Fatalf("template has %d items", len(tmpl.Items))
	}

	dst := mustList(t, s, "Tujuan")
	n, err := s.ApplyTemplate(tmpl.ID, dst.ID)
	if err != nil || n != 2 {
		t.Fatalf("ApplyTemplate = %d, %v", n, err)
	}
	got, _ := s.List(dst.ID)
	if len(got.Items) != 2 || got.Items[0].Purchased || got.Items[0].ActualPrice != nil {
		t.Fatalf("applied items must start unpurchased: %+v", got.Items)
	}
	if got.Items[0].ID == it.ID {
		t.Fatalf("applied items need fresh ids")
	}

	if _, err := s.SaveTemplate(src.ID, " "); err == nil {
		t.Fatalf("blank template name must be rejected")
	}
	s.DeleteTemplate(tmpl.ID)
	if len(s.Templates()) != 0 {
		t.Fatalf("template not deleted")
	}
}
