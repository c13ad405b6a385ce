// Package store persists genome records, population snapshots and
// per-generation statistics of NEAT runs.
package store

import (
	"context"

	"github.com/baldhumanity/neat-evolve/neat"
)

// GenomeEntry is a stored genome together with where it came from.
type GenomeEntry struct {
	VersionedRecord
	ID         string             `json:"id"`
	RunID      string             `json:"run_id"`
	Generation int                `json:"generation"`
	Genome     *neat.GenomeRecord `json:"genome"`
}

// GenerationEntry is the stored form of neat.GenerationStats.
type GenerationEntry struct {
	VersionedRecord
	ID             string  `json:"id"`
	RunID          string  `json:"run_id"`
	Generation     int     `json:"generation"`
	PopulationSize int     `json:"population_size"`
	SpeciesCount   int     `json:"species_count"`
	MaxFitness     float64 `json:"max_fitness"`
	MeanFitness    float64 `json:"mean_fitness"`
	FitnessStdev   float64 `json:"fitness_stdev"`
	Innovations    int     `json:"innovations"`
	DurationMillis int64   `json:"duration_ms"`
	ChampionID     string  `json:"champion_id,omitempty"`
}

// SnapshotEntry is the latest population snapshot of a run.
type SnapshotEntry struct {
	VersionedRecord
	RunID    string                   `json:"run_id"`
	Snapshot *neat.PopulationSnapshot `json:"snapshot"`
}

// Store defines persistence operations for NEAT runs.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, entry GenomeEntry) error
	GetGenome(ctx context.Context, id string) (GenomeEntry, bool, error)
	SaveGeneration(ctx context.Context, entry GenerationEntry) error
	ListGenerations(ctx context.Context, runID string) ([]GenerationEntry, error)
	SaveSnapshot(ctx context.Context, entry SnapshotEntry) error
	GetSnapshot(ctx context.Context, runID string) (SnapshotEntry, bool, error)
}
