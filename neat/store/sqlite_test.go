package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neat.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "neat.db")

	store := NewSQLiteStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveGeneration(ctx, GenerationEntry{RunID: "run-1", Generation: 4, MaxFitness: 2.5}); err != nil {
		t.Fatalf("save generation: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := NewSQLiteStore(path)
	if err := reopened.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.ListGenerations(ctx, "run-1")
	if err != nil {
		t.Fatalf("list generations: %v", err)
	}
	if len(entries) != 1 || entries[0].Generation != 4 || entries[0].MaxFitness != 2.5 {
		t.Fatalf("unexpected generations: %+v", entries)
	}
}

func TestSQLiteStoreErrors(t *testing.T) {
	ctx := context.Background()
	if err := NewSQLiteStore("").Init(ctx); err == nil {
		t.Fatal("expected error for empty path")
	}

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neat.db"))
	if _, _, err := store.GetGenome(ctx, "g1"); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close before init: %v", err)
	}
}
