package neat

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Network is anything that maps an input vector to an output vector. Genomes
// seen through a Population, and compiled networks from package nn, are
// Networks.
type Network interface {
	Activate(inputs []float64) ([]float64, error)
}

// FitnessFunc scores one genome and returns the fitness delta to credit to it.
// It is handed a Network that applies the population's bias handling.
type FitnessFunc func(ctx context.Context, index int, net Network) (float64, error)

// Population holds the state of the NEAT evolutionary process: the current
// generation of genomes, the innovation registry they share, and the species
// built from them at each generation boundary.
//
// A Population is not safe for concurrent use, except that EvaluateAll scores
// genomes concurrently on the caller's behalf.
type Population struct {
	Config       *Config
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction

	genomes     []*Genome
	best        *Genome // Fittest genome seen at any generation boundary
	innovations *InnovationRegistry
	rng         *rand.Rand
	generation  int

	logger    *slog.Logger
	reporters []Reporter
	workers   int
}

// Option configures a Population.
type Option func(*Population)

// WithLogger sets the logger used for debug and warning records.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) { p.logger = logger }
}

// WithReporter registers a reporter notified after every generation.
func WithReporter(r Reporter) Option {
	return func(p *Population) { p.reporters = append(p.reporters, r) }
}

// WithRand replaces the random source, overriding the configured seed.
func WithRand(rng *rand.Rand) Option {
	return func(p *Population) { p.rng = rng }
}

// WithWorkers bounds the goroutines EvaluateAll uses. 0 means unbounded.
func WithWorkers(n int) Option {
	return func(p *Population) { p.workers = n }
}

// CreatePopulation creates a population of populationSize genomes with the
// default configuration for the given interface. With useBias, every
// evaluation appends a constant 1.0 input.
func CreatePopulation(inputCount, outputCount, populationSize int, useBias bool) (*Population, error) {
	config := DefaultConfig()
	config.Neat.NumInputs = inputCount
	config.Neat.NumOutputs = outputCount
	config.Neat.PopSize = populationSize
	config.Neat.UseBias = useBias
	return NewPopulation(config)
}

// NewPopulation creates a new Population instance.
// It initializes the first generation of genomes based on the config.
func NewPopulation(config *Config, opts ...Option) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := newPopulation(config, opts...)
	p.genomes = make([]*Genome, 0, config.Neat.PopSize)
	for i := 0; i < config.Neat.PopSize; i++ {
		p.genomes = append(p.genomes, p.newGenome())
	}
	return p, nil
}

// newPopulation wires a Population without creating any genome.
func newPopulation(config *Config, opts ...Option) *Population {
	p := &Population{
		Config:      config,
		innovations: NewInnovationRegistry(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.rng == nil {
		seed := config.Neat.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		p.rng = rand.New(rand.NewSource(seed))
	}
	p.SpeciesSet = NewSpeciesSet(&config.SpeciesSet)
	p.Reproduction = NewReproduction(&config.Reproduction, NewStagnation(&config.Stagnation), p.logger)
	return p
}

// newGenome creates a base genome for this population.
func (p *Population) newGenome() *Genome {
	return NewGenome(p.Config.genomeInputs(), p.Config.Neat.NumOutputs, &p.Config.Genome, p.innovations, p.rng)
}

// --------------------------- Accessors ---------------------------

// Generation returns the number of generation boundaries crossed so far.
func (p *Population) Generation() int { return p.generation }

// Size returns the number of genomes in the current generation.
func (p *Population) Size() int { return len(p.genomes) }

// Innovations returns the registry shared by this population's genomes.
func (p *Population) Innovations() *InnovationRegistry { return p.innovations }

// Species returns the species built at the last generation boundary.
func (p *Population) Species() []*Species { return p.SpeciesSet.Species }

// Genome returns genome i of the current generation.
func (p *Population) Genome(i int) (*Genome, error) {
	if i < 0 || i >= len(p.genomes) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrGenomeIndex, i, len(p.genomes))
	}
	return p.genomes[i], nil
}

// Best returns the fittest genome of the current generation; the lowest
// index wins ties. It returns nil for an empty population.
func (p *Population) Best() *Genome {
	var best *Genome
	for _, g := range p.genomes {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// BestGenome returns the fittest genome seen so far: the best of every
// generation already advanced past, or of the current one if it scores
// higher. Ties keep the earlier genome. It returns nil before any genome
// exists.
func (p *Population) BestGenome() *Genome {
	current := p.Best()
	if p.best == nil || (current != nil && current.Fitness > p.best.Fitness) {
		return current
	}
	return p.best
}

// MaxFitness returns the highest fitness in the current generation, or
// negative infinity for an empty population.
func (p *Population) MaxFitness() float64 {
	if best := p.Best(); best != nil {
		return best.Fitness
	}
	return math.Inf(-1)
}

// --------------------------- Scoring ---------------------------

// populationNetwork exposes a genome under the population's input contract.
type populationNetwork struct {
	genome    *Genome
	numInputs int
	useBias   bool
}

func (n populationNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != n.numInputs {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInputLength, len(inputs), n.numInputs)
	}
	if n.useBias {
		biased := make([]float64, len(inputs)+1)
		copy(biased, inputs)
		biased[len(inputs)] = 1.0
		inputs = biased
	}
	return n.genome.Evaluate(inputs)
}

// Network returns genome i as a Network that checks the input length against
// NumInputs and appends the bias input when enabled.
func (p *Population) Network(i int) (Network, error) {
	g, err := p.Genome(i)
	if err != nil {
		return nil, err
	}
	return p.network(g), nil
}

func (p *Population) network(g *Genome) Network {
	return populationNetwork{genome: g, numInputs: p.Config.Neat.NumInputs, useBias: p.Config.Neat.UseBias}
}

// Evaluate runs genome i forward on inputs.
func (p *Population) Evaluate(i int, inputs []float64) ([]float64, error) {
	net, err := p.Network(i)
	if err != nil {
		return nil, err
	}
	return net.Activate(inputs)
}

// AddFitness adds delta to the fitness of genome i.
func (p *Population) AddFitness(i int, delta float64) error {
	g, err := p.Genome(i)
	if err != nil {
		return err
	}
	g.Fitness += delta
	return nil
}

// ResetFitness sets every genome's fitness back to zero.
func (p *Population) ResetFitness() {
	for _, g := range p.genomes {
		g.Fitness = 0
	}
}

// EvaluateAll scores every genome of the current generation concurrently and
// credits each returned delta to its genome. The first error cancels the
// context passed to the remaining calls and is returned.
func (p *Population) EvaluateAll(ctx context.Context, fn FitnessFunc) error {
	pl := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	if p.workers > 0 {
		pl = pl.WithMaxGoroutines(p.workers)
	}
	for i, g := range p.genomes {
		i, g := i, g
		net := p.network(g)
		pl.Go(func(ctx context.Context) error {
			delta, err := fn(ctx, i, net)
			if err != nil {
				return fmt.Errorf("genome %d: %w", i, err)
			}
			g.Fitness += delta
			return nil
		})
	}
	return pl.Wait()
}

// --------------------------- Advancing ---------------------------

// AdvanceGeneration speciates the scored generation, allocates offspring,
// reproduces and replaces the population with exactly PopSize new genomes,
// all with zero fitness. It returns statistics about the replaced generation.
func (p *Population) AdvanceGeneration() (GenerationStats, error) {
	start := time.Now()
	if len(p.genomes) == 0 {
		return GenerationStats{}, ErrEmptyPopulation
	}

	fitnesses := make([]float64, len(p.genomes))
	for i, g := range p.genomes {
		fitnesses[i] = g.Fitness
	}
	stats := GenerationStats{
		Generation:   p.generation,
		MaxFitness:   MaxFloat(fitnesses),
		MeanFitness:  Mean(fitnesses),
		FitnessStdev: Stdev(fitnesses),
		Champion:     p.Best().Record(),
	}

	if best := p.BestGenome(); best != p.best {
		p.best = best.Copy()
		p.logger.Debug("new best genome", "generation", p.generation, "fitness", p.best.Fitness)
	}

	persist := p.Config.Neat.PersistSpecies
	p.SpeciesSet.Speciate(p.genomes, p.generation, persist)
	p.logger.Debug("speciated",
		"generation", p.generation, "genomes", len(p.genomes), "species", len(p.SpeciesSet.Species))

	next := p.Reproduction.Reproduce(p.SpeciesSet.Species, p.Config.Neat.PopSize, p.generation, p.newGenome)
	if p.Config.Neat.ResetInnovations {
		p.renumberInnovations(next)
	}

	p.genomes = next
	p.generation++

	stats.PopulationSize = len(p.genomes)
	stats.SpeciesCount = len(p.SpeciesSet.Species)
	stats.Innovations = p.innovations.Len()
	stats.Duration = time.Since(start)
	for _, r := range p.reporters {
		r.GenerationAdvanced(stats)
	}
	return stats, nil
}

// renumberInnovations clears the registry and renumbers every gene of the
// new generation, plus any persisted champion, from scratch. Numbers remain
// a function of the endpoint pair, so genes stay aligned across genomes.
func (p *Population) renumberInnovations(genomes []*Genome) {
	p.innovations.Reset()
	renumber := func(g *Genome) {
		for _, c := range g.Connections {
			c.Innovation = p.innovations.RecordOrLookup(c.In, c.Out)
		}
	}
	for _, g := range genomes {
		renumber(g)
	}
	if p.Config.Neat.PersistSpecies {
		for _, champion := range p.SpeciesSet.Champions() {
			renumber(champion)
		}
	}
}
