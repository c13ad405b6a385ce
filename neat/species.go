package neat

import (
	"math"
	"sort"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	Key          int       // Unique identifier for the species.
	Created      int       // Generation number when the species was created.
	Champion     *Genome   // Deep copy used to test newcomers for compatibility.
	Members      []*Genome // Members in assignment order, i.e. fittest first.
	MeanFitness  float64   // Mean member fitness of the current generation.
	Quota        int       // Offspring allotted at the last reproduction.
	BestFitness  float64   // Best member fitness ever seen, for stagnation.
	LastImproved int       // Last generation where BestFitness improved.
}

// NewSpecies creates a species founded by g, whose deep copy becomes the champion.
func NewSpecies(key, generation int, founder *Genome) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		Champion:     founder.Copy(),
		Members:      []*Genome{founder},
		BestFitness:  math.Inf(-1),
		LastImproved: generation,
	}
}

// Best returns the fittest member, or nil for an empty species.
func (s *Species) Best() *Genome {
	if len(s.Members) == 0 {
		return nil
	}
	return s.Members[0]
}

// GetFitnesses returns a slice containing the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species []*Species        // Live species in creation order
	Indexer int               // Counter for assigning new species keys (start at 1)
	Config  *SpeciesSetConfig // Reference to speciation config
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Indexer: 1,
		Config:  config,
	}
}

// sortByFitness returns the genomes ordered by descending fitness, keeping
// the prior order among equals.
func sortByFitness(genomes []*Genome) []*Genome {
	sorted := make([]*Genome, len(genomes))
	copy(sorted, genomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Fitness > sorted[j].Fitness
	})
	return sorted
}

// Speciate partitions the genomes into species. Genomes are visited fittest
// first and join the first species whose champion lies within the
// compatibility threshold; otherwise they found a new species.
//
// With persist set, existing species keep their champions and only lose
// their members; species left empty are dropped and the survivors' champions
// are refreshed from their best member. Without it, species are rebuilt from
// scratch and each champion is a copy of the founding member.
func (ss *SpeciesSet) Speciate(genomes []*Genome, generation int, persist bool) {
	if persist {
		for _, s := range ss.Species {
			s.Members = s.Members[:0]
		}
	} else {
		ss.Species = nil
	}

	for _, g := range sortByFitness(genomes) {
		placed := false
		for _, s := range ss.Species {
			if s.Champion.Distance(g, ss.Config) < ss.Config.CompatibilityThreshold {
				s.Members = append(s.Members, g)
				placed = true
				break
			}
		}
		if !placed {
			ss.Species = append(ss.Species, NewSpecies(ss.Indexer, generation, g))
			ss.Indexer++
		}
	}

	live := ss.Species[:0]
	for _, s := range ss.Species {
		if len(s.Members) == 0 {
			continue
		}
		if persist && s.Created != generation {
			s.Champion = s.Members[0].Copy()
		}
		s.MeanFitness = Mean(s.GetFitnesses())
		live = append(live, s)
	}
	ss.Species = live
}

// Champions returns the champion genome of every species.
func (ss *SpeciesSet) Champions() []*Genome {
	out := make([]*Genome, 0, len(ss.Species))
	for _, s := range ss.Species {
		out = append(out, s.Champion)
	}
	return out
}
