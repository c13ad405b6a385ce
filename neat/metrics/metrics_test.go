package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-evolve/neat"
)

func TestReporterPublishesStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewReporter(reg)
	require.NoError(t, err)

	r.GenerationAdvanced(neat.GenerationStats{
		Generation:     4,
		PopulationSize: 150,
		SpeciesCount:   7,
		MaxFitness:     12.5,
		MeanFitness:    3.25,
		Innovations:    42,
		Duration:       3 * time.Millisecond,
	})
	r.GenerationAdvanced(neat.GenerationStats{Generation: 5, PopulationSize: 150, SpeciesCount: 6, MaxFitness: 13})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.generations))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.generation))
	assert.Equal(t, 150.0, testutil.ToFloat64(r.population))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.species))
	assert.Equal(t, 13.0, testutil.ToFloat64(r.maxFitness))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}

func TestReporterRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewReporter(reg)
	require.NoError(t, err)

	_, err = NewReporter(reg)
	assert.Error(t, err)
}

func TestReporterDrivenByPopulation(t *testing.T) {
	r, err := NewReporter(prometheus.NewRegistry())
	require.NoError(t, err)

	config := neat.DefaultConfig()
	config.Neat.PopSize = 10
	config.Neat.NumInputs = 2
	config.Neat.NumOutputs = 1
	config.Neat.Seed = 1
	p, err := neat.NewPopulation(config, neat.WithReporter(r))
	require.NoError(t, err)

	for gen := 0; gen < 3; gen++ {
		require.NoError(t, p.AddFitness(0, 2))
		_, err := p.AdvanceGeneration()
		require.NoError(t, err)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(r.generations))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.generation))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.population))
	assert.Equal(t, float64(p.Innovations().Len()), testutil.ToFloat64(r.innovations))
}
