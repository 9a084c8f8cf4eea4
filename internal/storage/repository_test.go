package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "cuantrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	if _, err := repo.Load(ctx, KeyShopping); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	if err := repo.Save(ctx, KeyShopping, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, KeyShopping, []byte(`{"version":2}`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err := repo.Load(ctx, KeyShopping)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"version":2}` {
		t.Fatalf("got %s, want the last write", got)
	}

	if _, err := repo.Load(ctx, KeyTransactions); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("keys must be independent, got %v", err)
	}
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cuantrack.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	if err := repo.Save(ctx, KeyTransactions, []byte(`{"version":1,"transactions":[]}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo.Close()

	// Migrations must be idempotent across restarts.
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if _, err := repo.Load(ctx, KeyTransactions); err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
}

func TestSQLiteRepositorySaveAll(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cuantrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	err = repo.SaveAll(ctx, []Snapshot{
		{Key: KeyTransactions, Data: []byte(`{"version":1,"transactions":[]}`)},
		{Key: KeyShopping, Data: []byte(`{"version":1}`)},
	})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	for _, key := range []string{KeyTransactions, KeyShopping} {
		if _, err := repo.Load(ctx, key); err != nil {
			t.Errorf("Load(%s): %v", key, err)
		}
	}

	// A failing snapshot rolls back the ones written before it.
	err = repo.SaveAll(ctx, []Snapshot{
		{Key: KeyTransactions, Data: []byte(`{"version":2,"transactions":[]}`)},
		{Key: KeyShopping, Data: nil},
	})
	if err == nil {
		t.Fatal("expected SaveAll to fail")
	}
	got, err := repo.Load(ctx, KeyTransactions)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"version":1,"transactions":[]}` {
		t.Fatalf("partial batch was committed: %s", got)
	}
}
