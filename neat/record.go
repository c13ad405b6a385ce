package neat

import (
	"fmt"
	"math/rand"
)

// NodeRecord is the serialisable form of a NodeGene.
type NodeRecord struct {
	ID    int      `json:"id"`
	Kind  NodeKind `json:"kind"`
	Layer float64  `json:"layer"`
}

// ConnectionRecord is the serialisable form of a ConnectionGene.
type ConnectionRecord struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Innovation int     `json:"innovation"`
}

// GenomeRecord is a self-contained, serialisable copy of a genome. Candidate
// lists are not stored; they are derived from the topology on load.
type GenomeRecord struct {
	NumInputs   int                `json:"num_inputs"`
	NumOutputs  int                `json:"num_outputs"`
	Fitness     float64            `json:"fitness"`
	Nodes       []NodeRecord       `json:"nodes"`
	Connections []ConnectionRecord `json:"connections"`
}

// Record returns a serialisable copy of g, or nil for a nil genome.
func (g *Genome) Record() *GenomeRecord {
	if g == nil {
		return nil
	}
	r := &GenomeRecord{
		NumInputs:   g.numInputs,
		NumOutputs:  g.numOutputs,
		Fitness:     g.Fitness,
		Nodes:       make([]NodeRecord, len(g.Nodes)),
		Connections: make([]ConnectionRecord, len(g.Connections)),
	}
	for i, n := range g.Nodes {
		r.Nodes[i] = NodeRecord{ID: n.ID, Kind: n.Kind, Layer: n.Layer}
	}
	for i, c := range g.Connections {
		r.Connections[i] = ConnectionRecord{
			In:         c.In,
			Out:        c.Out,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Innovation: c.Innovation,
		}
	}
	return r
}

// GenomeFromRecord rebuilds a genome bound to the given configuration,
// registry and random source. Innovation numbers are taken from the record
// as-is. The result is validated before it is returned.
func GenomeFromRecord(r *GenomeRecord, config *GenomeConfig, innovations *InnovationRegistry, rng *rand.Rand) (*Genome, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidGenome)
	}
	if r.NumInputs <= 0 || r.NumOutputs <= 0 {
		return nil, fmt.Errorf("%w: record has %d inputs and %d outputs", ErrInvalidGenome, r.NumInputs, r.NumOutputs)
	}
	g := &Genome{
		Nodes:       make([]*NodeGene, len(r.Nodes)),
		Connections: make([]*ConnectionGene, len(r.Connections)),
		Fitness:     r.Fitness,
		numInputs:   r.NumInputs,
		numOutputs:  r.NumOutputs,
		config:      config,
		innovations: innovations,
		rng:         rng,
	}
	for i, n := range r.Nodes {
		g.Nodes[i] = newNodeGene(n.ID, n.Kind, n.Layer)
	}
	for i, c := range r.Connections {
		g.Connections[i] = &ConnectionGene{
			In:         c.In,
			Out:        c.Out,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Innovation: c.Innovation,
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.rebuildCandidates()
	return g, nil
}

// --------------------------- Snapshots ---------------------------

// PopulationSnapshot captures everything needed to resume a population
// except its configuration and random source.
type PopulationSnapshot struct {
	Generation  int              `json:"generation"`
	Genomes     []*GenomeRecord  `json:"genomes"`
	Innovations []InnovationPair `json:"innovations"`
	Species     []*SpeciesRecord `json:"species,omitempty"`
	SpeciesNext int              `json:"species_next"`
	Best        *GenomeRecord    `json:"best,omitempty"`
}

// SpeciesRecord is the persisted part of a species: its identity, champion
// and stagnation bookkeeping. Members are rebuilt at the next boundary.
type SpeciesRecord struct {
	Key          int           `json:"key"`
	Created      int           `json:"created"`
	Champion     *GenomeRecord `json:"champion"`
	BestFitness  float64       `json:"best_fitness"`
	LastImproved int           `json:"last_improved"`
}

// Snapshot captures the population state.
func (p *Population) Snapshot() *PopulationSnapshot {
	snap := &PopulationSnapshot{
		Generation:  p.generation,
		Genomes:     make([]*GenomeRecord, len(p.genomes)),
		Innovations: p.innovations.Pairs(),
		SpeciesNext: p.SpeciesSet.Indexer,
		Best:        p.best.Record(),
	}
	for i, g := range p.genomes {
		snap.Genomes[i] = g.Record()
	}
	if p.Config.Neat.PersistSpecies {
		for _, s := range p.SpeciesSet.Species {
			snap.Species = append(snap.Species, &SpeciesRecord{
				Key:          s.Key,
				Created:      s.Created,
				Champion:     s.Champion.Record(),
				BestFitness:  s.BestFitness,
				LastImproved: s.LastImproved,
			})
		}
	}
	return snap
}

// RestorePopulation rebuilds a population from a snapshot. Genomes must
// match the configured interface.
func RestorePopulation(config *Config, snap *PopulationSnapshot, opts ...Option) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := newPopulation(config, opts...)
	p.generation = snap.Generation
	p.innovations.restore(snap.Innovations)
	if snap.SpeciesNext > 0 {
		p.SpeciesSet.Indexer = snap.SpeciesNext
	}

	load := func(r *GenomeRecord) (*Genome, error) {
		g, err := GenomeFromRecord(r, &config.Genome, p.innovations, p.rng)
		if err != nil {
			return nil, err
		}
		if g.numInputs != config.genomeInputs() || g.numOutputs != config.Neat.NumOutputs {
			return nil, fmt.Errorf("%w: genome has %d/%d inputs/outputs, config wants %d/%d", ErrInvalidGenome,
				g.numInputs, g.numOutputs, config.genomeInputs(), config.Neat.NumOutputs)
		}
		return g, nil
	}

	p.genomes = make([]*Genome, 0, len(snap.Genomes))
	for i, r := range snap.Genomes {
		g, err := load(r)
		if err != nil {
			return nil, fmt.Errorf("restoring genome %d: %w", i, err)
		}
		p.genomes = append(p.genomes, g)
	}
	if snap.Best != nil {
		best, err := load(snap.Best)
		if err != nil {
			return nil, fmt.Errorf("restoring best genome: %w", err)
		}
		p.best = best
	}
	for _, sr := range snap.Species {
		champion, err := load(sr.Champion)
		if err != nil {
			return nil, fmt.Errorf("restoring species %d: %w", sr.Key, err)
		}
		p.SpeciesSet.Species = append(p.SpeciesSet.Species, &Species{
			Key:          sr.Key,
			Created:      sr.Created,
			Champion:     champion,
			BestFitness:  sr.BestFitness,
			LastImproved: sr.LastImproved,
		})
	}
	return p, nil
}
