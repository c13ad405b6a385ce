package neat

import (
	"log/slog"
	"math"
)

// Reproduction handles the creation of the next generation from the current
// species: offspring allocation, elitism, crossover and mutation.
type Reproduction struct {
	Config     *ReproductionConfig
	Stagnation *Stagnation // Reference to stagnation info for filtering
	logger     *slog.Logger
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation, logger *slog.Logger) *Reproduction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reproduction{
		Config:     config,
		Stagnation: stagnation,
		logger:     logger,
	}
}

// freshCopy clones g for the next generation with its fitness cleared.
func freshCopy(g *Genome) *Genome {
	c := g.Copy()
	c.Fitness = 0
	return c
}

// bestOf returns the fittest genome over all species members; the first one
// encountered wins ties.
func bestOf(species []*Species) *Genome {
	var best *Genome
	for _, s := range species {
		if top := s.Best(); top != nil && (best == nil || top.Fitness > best.Fitness) {
			best = top
		}
	}
	return best
}

// Reproduce creates exactly popSize genomes for the next generation.
// Species members must be sorted fittest first, as Speciate leaves them.
// spawn creates a brand-new base genome and is only used to backfill.
func (r *Reproduction) Reproduce(species []*Species, popSize, generation int, spawn func() *Genome) []*Genome {
	next := make([]*Genome, 0, popSize)

	best := bestOf(species)
	if best != nil {
		next = append(next, freshCopy(best))
	}

	info := r.Stagnation.Update(species, best, generation)
	means := make([]float64, len(species))
	stagnant := make([]bool, len(species))
	for i, s := range species {
		means[i] = s.MeanFitness
		stagnant[i] = info[i].IsStagnant
		if stagnant[i] {
			r.logger.Debug("species stagnant",
				"species", s.Key, "stagnant_for", info[i].StagnantTime, "best_fitness", s.BestFitness)
		}
	}

	quotas := allocateQuotas(means, stagnant, popSize-len(next))
	for i, s := range species {
		s.Quota = quotas[i]
		next = append(next, r.reproduceSpecies(s, quotas[i])...)
	}
	r.logger.Debug("offspring allocated", "generation", generation, "species", len(species), "quotas", quotas)

	if missing := popSize - len(next); missing > 0 {
		r.logger.Warn("backfilling population with new genomes", "generation", generation, "missing", missing)
		for len(next) < popSize {
			next = append(next, spawn())
		}
	}
	if extra := len(next) - popSize; extra > 0 {
		r.logger.Warn("trimming surplus offspring", "generation", generation, "extra", extra)
		next = next[:popSize]
	}
	return next
}

// allocateQuotas splits total offspring between species in proportion to
// their mean fitness. Negative means are shifted so the lowest is zero and
// stagnant species get no share. When no species has a positive share the
// live species share equally. Quotas are rounded left to right against the
// share still unassigned, so they always sum to total.
func allocateQuotas(means []float64, stagnant []bool, total int) []int {
	quotas := make([]int, len(means))
	if len(means) == 0 || total <= 0 {
		return quotas
	}

	shares := make([]float64, len(means))
	lowest := MinFloat(means)
	for i, m := range means {
		if lowest < 0 {
			m -= lowest
		}
		if stagnant[i] || math.IsNaN(m) || math.IsInf(m, 0) {
			m = 0
		}
		shares[i] = m
	}
	if Sum(shares) <= 0 {
		live := 0
		for i := range shares {
			if !stagnant[i] {
				shares[i] = 1
				live++
			}
		}
		if live == 0 {
			for i := range shares {
				shares[i] = 1
			}
		}
	}

	remainingShare := Sum(shares)
	remaining := total
	for i, share := range shares {
		if i == len(shares)-1 {
			quotas[i] = remaining
			break
		}
		q := 0
		if remainingShare > 0 {
			q = int(math.Round(share / remainingShare * float64(remaining)))
		}
		q = min(max(q, 0), remaining)
		quotas[i] = q
		remaining -= q
		remainingShare -= share
	}
	return quotas
}

// reproduceSpecies fills one species' quota. A species at least
// ChampionMinSize strong first keeps an unmutated copy of its best member.
func (r *Reproduction) reproduceSpecies(s *Species, quota int) []*Genome {
	if quota <= 0 || len(s.Members) == 0 {
		return nil
	}
	out := make([]*Genome, 0, quota)
	if len(s.Members) >= r.Config.ChampionMinSize {
		out = append(out, freshCopy(s.Members[0]))
		quota--
	}
	switch quota {
	case 0:
		return out
	case 1:
		child := freshCopy(s.Members[0])
		child.Mutate()
		return append(out, child)
	}

	parents := r.survivors(s.Members)
	mates := 0
	if len(parents) > 1 {
		mates = int(math.Round(float64(quota) * r.Config.CrossoverFraction))
	}

	pairs := unorderedPairs(len(parents))
	for k := 0; k < mates; k++ {
		p := pairs[k%len(pairs)]
		child := Mate(parents[p[0]], parents[p[1]])
		child.Mutate()
		out = append(out, child)
	}
	for k := 0; k < quota-mates; k++ {
		child := freshCopy(parents[k%len(parents)])
		child.Mutate()
		out = append(out, child)
	}
	return out
}

// survivors returns the top SurvivalThreshold share of members (at least
// one) eligible as parents.
func (r *Reproduction) survivors(members []*Genome) []*Genome {
	cutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(members))))
	cutoff = min(max(cutoff, 1), len(members))
	return members[:cutoff]
}

// unorderedPairs lists every index pair {i, j} with i < j < n.
func unorderedPairs(n int) [][2]int {
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}
