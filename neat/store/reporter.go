package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/baldhumanity/neat-evolve/neat"
)

// Reporter persists generation statistics and the champion of every
// generation. It implements neat.Reporter; failures are logged since
// reporters cannot fail a generation.
type Reporter struct {
	Store   Store
	RunID   string
	Timeout time.Duration // Per-generation write budget; 0 means 5s
	Logger  *slog.Logger
}

// NewReporter returns a reporter writing to s under a fresh run id.
func NewReporter(s Store) *Reporter {
	return &Reporter{Store: s, RunID: NewID()}
}

// GenerationAdvanced implements neat.Reporter.
func (r *Reporter) GenerationAdvanced(stats neat.GenerationStats) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := r.Record(ctx, stats); err != nil {
		logger := r.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("failed to persist generation", "run", r.RunID, "generation", stats.Generation, "error", err)
	}
}

// Record writes stats, and its champion when present, to the store.
func (r *Reporter) Record(ctx context.Context, stats neat.GenerationStats) error {
	entry := GenerationEntry{
		ID:             NewID(),
		RunID:          r.RunID,
		Generation:     stats.Generation,
		PopulationSize: stats.PopulationSize,
		SpeciesCount:   stats.SpeciesCount,
		MaxFitness:     stats.MaxFitness,
		MeanFitness:    stats.MeanFitness,
		FitnessStdev:   stats.FitnessStdev,
		Innovations:    stats.Innovations,
		DurationMillis: stats.Duration.Milliseconds(),
	}
	if stats.Champion != nil {
		entry.ChampionID = NewID()
		champion := GenomeEntry{
			ID:         entry.ChampionID,
			RunID:      r.RunID,
			Generation: stats.Generation,
			Genome:     stats.Champion,
		}
		if err := r.Store.SaveGenome(ctx, champion); err != nil {
			return err
		}
	}
	return r.Store.SaveGeneration(ctx, entry)
}

// SaveSnapshot stores the population's current snapshot as the run's latest.
func (r *Reporter) SaveSnapshot(ctx context.Context, p *neat.Population) error {
	return r.Store.SaveSnapshot(ctx, SnapshotEntry{RunID: r.RunID, Snapshot: p.Snapshot()})
}
