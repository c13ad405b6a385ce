package neat

import (
	"log/slog"
	"time"
)

// GenerationStats summarises the generation that AdvanceGeneration just
// replaced. Fitness figures describe the scored generation; Generation is
// the number of the generation that was scored.
type GenerationStats struct {
	Generation     int
	PopulationSize int
	SpeciesCount   int
	MaxFitness     float64
	MeanFitness    float64
	FitnessStdev   float64
	Innovations    int           // Registry size after reproduction
	Champion       *GenomeRecord // Fittest genome of the scored generation
	Duration       time.Duration
}

// Reporter receives a notification after every generation boundary.
// Reporters are called synchronously, in registration order.
type Reporter interface {
	GenerationAdvanced(stats GenerationStats)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(stats GenerationStats)

// GenerationAdvanced calls f(stats).
func (f ReporterFunc) GenerationAdvanced(stats GenerationStats) { f(stats) }

// LogReporter writes one info record per generation.
type LogReporter struct {
	Logger *slog.Logger // nil means slog.Default()
}

// GenerationAdvanced implements Reporter.
func (r LogReporter) GenerationAdvanced(stats GenerationStats) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"generation", stats.Generation,
		"population", stats.PopulationSize,
		"species", stats.SpeciesCount,
		"max_fitness", stats.MaxFitness,
		"mean_fitness", stats.MeanFitness,
		"stdev_fitness", stats.FitnessStdev,
		"innovations", stats.Innovations,
		"duration", stats.Duration,
	}
	if stats.Champion != nil {
		attrs = append(attrs,
			"champion_nodes", len(stats.Champion.Nodes),
			"champion_connections", len(stats.Champion.Connections))
	}
	logger.Info("generation advanced", attrs...)
}
