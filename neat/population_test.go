package neat

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(popSize, inputs, outputs int) *Config {
	config := DefaultConfig()
	config.Neat.PopSize = popSize
	config.Neat.NumInputs = inputs
	config.Neat.NumOutputs = outputs
	config.Neat.Seed = 1
	return config
}

func newTestPopulation(t *testing.T, config *Config, opts ...Option) *Population {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	p, err := NewPopulation(config, opts...)
	require.NoError(t, err)
	return p
}

// requireValidPopulation checks every genome and that innovation numbers
// name the same pair everywhere.
func requireValidPopulation(t *testing.T, p *Population) {
	t.Helper()
	pairs := make(map[int]InnovationPair)
	for i := 0; i < p.Size(); i++ {
		g, err := p.Genome(i)
		require.NoError(t, err)
		require.NoError(t, g.Validate(), "genome %d", i)
		for _, c := range g.Connections {
			pair := InnovationPair{c.In, c.Out}
			if prev, ok := pairs[c.Innovation]; ok {
				require.Equal(t, prev, pair, "innovation %d names two pairs", c.Innovation)
			}
			pairs[c.Innovation] = pair
		}
	}
}

func TestCreatePopulation(t *testing.T) {
	p, err := CreatePopulation(2, 1, 10, true)
	require.NoError(t, err)

	assert.Equal(t, 10, p.Size())
	assert.Zero(t, p.Generation())
	g, err := p.Genome(0)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumInputs(), "bias adds an input node")
	assert.Equal(t, 1, g.NumOutputs())

	_, err = CreatePopulation(0, 1, 10, false)
	assert.Error(t, err)
	_, err = CreatePopulation(2, 1, 0, false)
	assert.Error(t, err)
}

func TestPopulationEvaluate(t *testing.T) {
	for _, bias := range []bool{false, true} {
		config := testConfig(6, 3, 2)
		config.Neat.UseBias = bias
		p := newTestPopulation(t, config)

		for i := 0; i < p.Size(); i++ {
			out, err := p.Evaluate(i, []float64{0.2, -1, 3})
			require.NoError(t, err)
			require.Len(t, out, 2)
			for _, v := range out {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}

		_, err := p.Evaluate(0, []float64{1, 2})
		assert.ErrorIs(t, err, ErrInputLength)
		_, err = p.Evaluate(0, []float64{1, 2, 3, 1})
		assert.ErrorIs(t, err, ErrInputLength, "the bias input is never supplied by the caller")
		_, err = p.Evaluate(6, []float64{1, 2, 3})
		assert.ErrorIs(t, err, ErrGenomeIndex)
		_, err = p.Evaluate(-1, []float64{1, 2, 3})
		assert.ErrorIs(t, err, ErrGenomeIndex)
	}
}

func TestPopulationBiasInputIsOne(t *testing.T) {
	config := testConfig(1, 1, 1)
	config.Neat.UseBias = true
	p := newTestPopulation(t, config)

	g, _ := p.Genome(0)
	g.Connections = nil
	g.rebuildCandidates()
	g.addConnection(1, 2, 1.5, true)

	out, err := p.Evaluate(0, []float64{0})
	require.NoError(t, err)
	assert.InDelta(t, Sigmoid(1.5, config.Genome.SigmoidSteepness), out[0], 1e-12)
}

func TestFitnessBookkeeping(t *testing.T) {
	p := newTestPopulation(t, testConfig(5, 2, 1))
	assert.Zero(t, p.MaxFitness())

	require.NoError(t, p.AddFitness(2, 1.5))
	require.NoError(t, p.AddFitness(2, 1))
	require.NoError(t, p.AddFitness(4, -3))
	assert.Equal(t, 2.5, p.MaxFitness())
	best := p.Best()
	g, _ := p.Genome(2)
	assert.Same(t, g, best)

	assert.ErrorIs(t, p.AddFitness(5, 1), ErrGenomeIndex)

	p.ResetFitness()
	for i := 0; i < p.Size(); i++ {
		g, _ := p.Genome(i)
		assert.Zero(t, g.Fitness)
	}
}

func TestAdvanceGenerationElitism(t *testing.T) {
	p := newTestPopulation(t, testConfig(4, 2, 1))
	champion, _ := p.Genome(0)
	want := champion.Record()
	want.Fitness = 0
	require.NoError(t, p.AddFitness(0, 10))

	stats, err := p.AdvanceGeneration()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Generation)
	assert.Equal(t, 10.0, stats.MaxFitness)
	assert.Equal(t, 4, stats.PopulationSize)

	require.Equal(t, 4, p.Size())
	assert.Equal(t, 1, p.Generation())
	found := false
	for i := 0; i < p.Size(); i++ {
		g, _ := p.Genome(i)
		assert.Zero(t, g.Fitness)
		got := g.Record()
		if assert.ObjectsAreEqual(want.Nodes, got.Nodes) && assert.ObjectsAreEqual(want.Connections, got.Connections) {
			found = true
		}
	}
	assert.True(t, found, "the fittest genome survives unchanged")
}

func TestBestGenomeAcrossGenerations(t *testing.T) {
	p := newTestPopulation(t, testConfig(6, 2, 1))
	first, _ := p.Genome(3)
	require.NoError(t, p.AddFitness(3, 8))
	assert.Same(t, first, p.BestGenome(), "the current generation counts before advancing")

	_, err := p.AdvanceGeneration()
	require.NoError(t, err)
	best := p.BestGenome()
	require.NotNil(t, best)
	assert.NotSame(t, first, best)
	assert.Equal(t, 8.0, best.Fitness)
	assert.Equal(t, first.Record().Connections, best.Record().Connections)

	// A weaker generation leaves the all-time best in place.
	require.NoError(t, p.AddFitness(0, 2))
	_, err = p.AdvanceGeneration()
	require.NoError(t, err)
	assert.Same(t, best, p.BestGenome())

	require.NoError(t, p.AddFitness(1, 9))
	current, _ := p.Genome(1)
	assert.Same(t, current, p.BestGenome())
	_, err = p.AdvanceGeneration()
	require.NoError(t, err)
	assert.Equal(t, 9.0, p.BestGenome().Fitness)

	restored, err := RestorePopulation(p.Config, p.Snapshot(), WithLogger(discardLogger()))
	require.NoError(t, err)
	assert.Equal(t, p.BestGenome().Record(), restored.BestGenome().Record())
}

func TestAdvanceGenerationConservesSize(t *testing.T) {
	scorers := map[string]func(rng *rand.Rand) float64{
		"random":   func(rng *rand.Rand) float64 { return rng.Float64() * 10 },
		"zero":     func(*rand.Rand) float64 { return 0 },
		"negative": func(rng *rand.Rand) float64 { return -rng.Float64() },
	}
	for name, score := range scorers {
		t.Run(name, func(t *testing.T) {
			p := newTestPopulation(t, testConfig(30, 3, 2))
			rng := rand.New(rand.NewSource(2))
			for gen := 0; gen < 15; gen++ {
				for i := 0; i < p.Size(); i++ {
					require.NoError(t, p.AddFitness(i, score(rng)))
				}
				_, err := p.AdvanceGeneration()
				require.NoError(t, err)
				require.Equal(t, 30, p.Size())
				requireValidPopulation(t, p)
			}
		})
	}
}

func TestAdvanceGenerationPersistedSpecies(t *testing.T) {
	config := testConfig(20, 2, 1)
	config.Neat.PersistSpecies = true
	config.Stagnation.MaxStagnation = 2
	p := newTestPopulation(t, config)

	keys := make(map[int]bool)
	for gen := 0; gen < 10; gen++ {
		for i := 0; i < p.Size(); i++ {
			require.NoError(t, p.AddFitness(i, float64(i%3)))
		}
		_, err := p.AdvanceGeneration()
		require.NoError(t, err)
		require.Equal(t, 20, p.Size())
		requireValidPopulation(t, p)
		for _, s := range p.Species() {
			keys[s.Key] = true
			assert.NotEmpty(t, s.Members)
			assert.LessOrEqual(t, s.Created, gen)
		}
	}
	assert.Less(t, len(keys), 10*20, "species are reused across generations")
}

func TestAdvanceGenerationResetInnovations(t *testing.T) {
	for _, persist := range []bool{false, true} {
		config := testConfig(20, 2, 2)
		config.Neat.ResetInnovations = true
		config.Neat.PersistSpecies = persist
		config.Genome.NodeAddProb = 0.3
		p := newTestPopulation(t, config)

		for gen := 0; gen < 10; gen++ {
			for i := 0; i < p.Size(); i++ {
				require.NoError(t, p.AddFitness(i, float64(i)))
			}
			_, err := p.AdvanceGeneration()
			require.NoError(t, err)
			requireValidPopulation(t, p)

			distinct := make(map[InnovationPair]bool)
			for i := 0; i < p.Size(); i++ {
				g, _ := p.Genome(i)
				for _, c := range g.Connections {
					distinct[InnovationPair{c.In, c.Out}] = true
				}
			}
			if persist {
				for _, champion := range p.SpeciesSet.Champions() {
					for _, c := range champion.Connections {
						assert.Equal(t, p.Innovations().RecordOrLookup(c.In, c.Out), c.Innovation)
						distinct[InnovationPair{c.In, c.Out}] = true
					}
				}
			}
			assert.Equal(t, len(distinct), p.Innovations().Len(), "the registry holds only live pairs")
		}
	}
}

func TestAdvanceGenerationEmptyPopulation(t *testing.T) {
	p := newTestPopulation(t, testConfig(2, 1, 1))
	p.genomes = nil

	_, err := p.AdvanceGeneration()
	assert.ErrorIs(t, err, ErrEmptyPopulation)
	assert.True(t, math.IsInf(p.MaxFitness(), -1))
	assert.Nil(t, p.Best())
}

func TestAdvanceGenerationIsDeterministic(t *testing.T) {
	run := func() *PopulationSnapshot {
		config := testConfig(15, 2, 1)
		config.Genome.NodeAddProb = 0.3
		p := newTestPopulation(t, config)
		for gen := 0; gen < 5; gen++ {
			for i := 0; i < p.Size(); i++ {
				out, err := p.Evaluate(i, []float64{1, 0})
				require.NoError(t, err)
				require.NoError(t, p.AddFitness(i, out[0]))
			}
			_, err := p.AdvanceGeneration()
			require.NoError(t, err)
		}
		return p.Snapshot()
	}
	assert.Equal(t, run(), run())
}

func TestReportersAreNotified(t *testing.T) {
	var calls []GenerationStats
	p := newTestPopulation(t, testConfig(8, 2, 1),
		WithReporter(ReporterFunc(func(s GenerationStats) { calls = append(calls, s) })),
		WithReporter(LogReporter{Logger: discardLogger()}),
	)

	for gen := 0; gen < 3; gen++ {
		require.NoError(t, p.AddFitness(gen, 1))
		_, err := p.AdvanceGeneration()
		require.NoError(t, err)
	}
	require.Len(t, calls, 3)
	for i, s := range calls {
		assert.Equal(t, i, s.Generation)
		assert.Equal(t, 8, s.PopulationSize)
		assert.Positive(t, s.SpeciesCount)
		assert.Equal(t, 1.0, s.MaxFitness)
		require.NotNil(t, s.Champion)
		assert.Equal(t, 1.0, s.Champion.Fitness)
	}
	assert.Equal(t, p.Innovations().Len(), calls[2].Innovations)
}

func TestEvaluateAll(t *testing.T) {
	p := newTestPopulation(t, testConfig(25, 2, 1), WithWorkers(4))

	var calls atomic.Int32
	err := p.EvaluateAll(context.Background(), func(ctx context.Context, i int, net Network) (float64, error) {
		calls.Add(1)
		out, err := net.Activate([]float64{1, 1})
		if err != nil {
			return 0, err
		}
		return float64(i) + out[0], nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(25), calls.Load())

	for i := 0; i < p.Size(); i++ {
		g, _ := p.Genome(i)
		assert.GreaterOrEqual(t, g.Fitness, float64(i))
		assert.LessOrEqual(t, g.Fitness, float64(i)+1)
	}
}

func TestEvaluateAllReturnsFirstError(t *testing.T) {
	p := newTestPopulation(t, testConfig(10, 2, 1))
	boom := errors.New("boom")

	err := p.EvaluateAll(context.Background(), func(ctx context.Context, i int, net Network) (float64, error) {
		if i == 3 {
			return 0, boom
		}
		_, err := net.Activate([]float64{0, 1})
		return 1, err
	})
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "genome 3")

	err = p.EvaluateAll(context.Background(), func(ctx context.Context, i int, net Network) (float64, error) {
		_, err := net.Activate([]float64{0})
		return 0, err
	})
	assert.ErrorIs(t, err, ErrInputLength)
}
