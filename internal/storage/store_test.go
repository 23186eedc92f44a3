package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	tmpDir, err := os.MkdirTemp("", "store-test-*")
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewStore(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatal(err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func putRaw(t *testing.T, s *Store, bucket, key, value []byte) {
	t.Helper()
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, value)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStore_LoadExclusions_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ids, err := store.LoadExclusions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no ids, got %v", ids)
	}
}

func TestStore_SaveAndLoadExclusions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	want := []string{"101", "202", "303"}
	if err := store.SaveExclusions(want); err != nil {
		t.Fatalf("failed to save exclusions: %v", err)
	}

	got, err := store.LoadExclusions()
	if err != nil {
		t.Fatalf("failed to load exclusions: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestStore_SaveExclusions_Overwrites(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.SaveExclusions([]string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveExclusions([]string{"c"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadExclusions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "c" {
		t.Errorf("expected [c], got %v", got)
	}
}

func TestStore_LoadExclusions_Corrupt(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	putRaw(t, store, exclusionsBucket, servedIDsKey, []byte("{not json"))

	if _, err := store.LoadExclusions(); err == nil {
		t.Error("expected error for corrupt exclusion state, got nil")
	}
}

func TestStore_ClearExclusions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.SaveExclusions([]string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearExclusions(); err != nil {
		t.Fatalf("failed to clear exclusions: %v", err)
	}

	got, err := store.LoadExclusions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty exclusions after clear, got %v", got)
	}
}

func TestStore_LastProject(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetLastProject()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SaveLastProject(&Project{Topic: "Coffee Shop", SlotCount: 4}); err != nil {
		t.Fatalf("failed to save project: %v", err)
	}

	p, err := store.GetLastProject()
	if err != nil {
		t.Fatalf("failed to get project: %v", err)
	}
	if p.Topic != "Coffee Shop" {
		t.Errorf("expected topic Coffee Shop, got %s", p.Topic)
	}
	if p.SlotCount != 4 {
		t.Errorf("expected slot count 4, got %d", p.SlotCount)
	}
	if p.UpdatedAt.IsZero() || time.Since(p.UpdatedAt) > time.Minute {
		t.Errorf("expected recent UpdatedAt, got %v", p.UpdatedAt)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "reopen.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveExclusions([]string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.LoadExclusions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("expected [x y] after reopen, got %v", got)
	}
}
