package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cuantrack/internal/config"
	"cuantrack/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "gcs", GCSBucket: "b", GCSPrefix: "p"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != GCSBackend || cfg.GCSBucket != "b" || cfg.GCSPrefix != "p" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file without dir", Config{Type: FileBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"gcs without bucket", Config{Type: GCSBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 5 || got[0] != "memory" || got[4] != "gcs" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "cuantrack.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			result, err := NewFactory(nil).CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer result.Cleanup()

			if _, err := result.Store.Load(ctx, storage.KeyShopping); !errors.Is(err, storage.ErrSnapshotNotFound) {
				t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
			}
			if err := result.Store.Save(ctx, storage.KeyShopping, []byte(`{"version":1}`)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			data, err := result.Store.Load(ctx, storage.KeyShopping)
			if err != nil || string(data) != `{"version":1}` {
				t.Fatalf("Load() = %s, %v", data, err)
			}
		})
	}
}
