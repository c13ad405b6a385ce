// Package metrics publishes NEAT generation statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/baldhumanity/neat-evolve/neat"
)

// Reporter is a neat.Reporter that updates Prometheus collectors after every
// generation.
type Reporter struct {
	generations prometheus.Counter
	generation  prometheus.Gauge
	population  prometheus.Gauge
	species     prometheus.Gauge
	maxFitness  prometheus.Gauge
	meanFitness prometheus.Gauge
	innovations prometheus.Gauge
	duration    prometheus.Histogram
}

// NewReporter creates the collectors and registers them with reg. A nil reg
// means prometheus.DefaultRegisterer.
func NewReporter(reg prometheus.Registerer) (*Reporter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Reporter{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neat_generations_total",
			Help: "Generation boundaries crossed.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_generation",
			Help: "Number of the last scored generation.",
		}),
		population: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_population_size",
			Help: "Genomes in the current generation.",
		}),
		species: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_species",
			Help: "Species found at the last generation boundary.",
		}),
		maxFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_max_fitness",
			Help: "Highest fitness of the last scored generation.",
		}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_mean_fitness",
			Help: "Mean fitness of the last scored generation.",
		}),
		innovations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_innovations",
			Help: "Distinct structural innovations in the registry.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "neat_advance_duration_seconds",
			Help:    "Time spent speciating and reproducing one generation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{
		r.generations, r.generation, r.population, r.species,
		r.maxFitness, r.meanFitness, r.innovations, r.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// GenerationAdvanced implements neat.Reporter.
func (r *Reporter) GenerationAdvanced(stats neat.GenerationStats) {
	r.generations.Inc()
	r.generation.Set(float64(stats.Generation))
	r.population.Set(float64(stats.PopulationSize))
	r.species.Set(float64(stats.SpeciesCount))
	r.maxFitness.Set(stats.MaxFitness)
	r.meanFitness.Set(stats.MeanFitness)
	r.innovations.Set(float64(stats.Innovations))
	r.duration.Observe(stats.Duration.Seconds())
}
