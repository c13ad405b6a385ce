package store

import (
	"context"
	"testing"

	"github.com/baldhumanity/neat-evolve/neat"
)

func testPopulation(t *testing.T, opts ...neat.Option) *neat.Population {
	t.Helper()
	config := neat.DefaultConfig()
	config.Neat.PopSize = 6
	config.Neat.NumInputs = 2
	config.Neat.NumOutputs = 1
	config.Neat.Seed = 4
	p, err := neat.NewPopulation(config, opts...)
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	return p
}

// exerciseStore runs the behaviour every Store implementation shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	p := testPopulation(t)

	champion := p.Best().Record()
	genome := GenomeEntry{ID: NewID(), RunID: "run-1", Generation: 3, Genome: champion}
	if err := store.SaveGenome(ctx, genome); err != nil {
		t.Fatalf("save genome: %v", err)
	}
	got, ok, err := store.GetGenome(ctx, genome.ID)
	if err != nil {
		t.Fatalf("get genome: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted genome")
	}
	if got.SchemaVersion != CurrentSchemaVersion || got.CodecVersion != CurrentCodecVersion {
		t.Fatalf("unexpected versions: %+v", got.VersionedRecord)
	}
	if got.Generation != 3 || len(got.Genome.Connections) != len(champion.Connections) {
		t.Fatalf("unexpected genome: %+v", got)
	}
	if _, ok, err := store.GetGenome(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing genome, ok=%v err=%v", ok, err)
	}

	for _, gen := range []int{2, 0, 1} {
		entry := GenerationEntry{ID: NewID(), RunID: "run-1", Generation: gen, MaxFitness: float64(gen)}
		if err := store.SaveGeneration(ctx, entry); err != nil {
			t.Fatalf("save generation %d: %v", gen, err)
		}
	}
	if err := store.SaveGeneration(ctx, GenerationEntry{RunID: "run-1", Generation: 1, MaxFitness: 7}); err != nil {
		t.Fatalf("overwrite generation: %v", err)
	}
	if err := store.SaveGeneration(ctx, GenerationEntry{RunID: "run-2", Generation: 0}); err != nil {
		t.Fatalf("save other run: %v", err)
	}
	entries, err := store.ListGenerations(ctx, "run-1")
	if err != nil {
		t.Fatalf("list generations: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 generations, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Generation != i {
			t.Fatalf("generations out of order: %+v", entries)
		}
	}
	if entries[1].MaxFitness != 7 {
		t.Fatalf("expected overwritten generation, got %+v", entries[1])
	}
	if entries, err := store.ListGenerations(ctx, "nope"); err != nil || len(entries) != 0 {
		t.Fatalf("expected no generations, got %v err=%v", entries, err)
	}

	snap := p.Snapshot()
	if err := store.SaveSnapshot(ctx, SnapshotEntry{RunID: "run-1", Snapshot: snap}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	stored, ok, err := store.GetSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted snapshot")
	}
	restored, err := neat.RestorePopulation(p.Config, stored.Snapshot)
	if err != nil {
		t.Fatalf("restore snapshot: %v", err)
	}
	if restored.Size() != p.Size() || restored.Innovations().Len() != p.Innovations().Len() {
		t.Fatalf("restored population differs: size=%d innovations=%d", restored.Size(), restored.Innovations().Len())
	}
	if _, ok, err := store.GetSnapshot(ctx, "run-2"); err != nil || ok {
		t.Fatalf("expected missing snapshot, ok=%v err=%v", ok, err)
	}
}
