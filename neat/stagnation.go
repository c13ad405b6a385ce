package neat

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config *StagnationConfig
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) *Stagnation {
	return &Stagnation{Config: config}
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	Species      *Species
	StagnantTime int
	IsStagnant   bool
	HoldsPopBest bool
}

// Update records each species' best member fitness and reports which species
// have not improved for MaxStagnation generations. The species holding the
// population's best genome is never stagnant. The result is index-aligned
// with species.
func (s *Stagnation) Update(species []*Species, best *Genome, generation int) []StagnationInfo {
	result := make([]StagnationInfo, len(species))
	for i, sp := range species {
		info := StagnationInfo{Species: sp}
		if top := sp.Best(); top != nil {
			if top.Fitness > sp.BestFitness {
				sp.BestFitness = top.Fitness
				sp.LastImproved = generation
			}
			info.HoldsPopBest = top == best
		}
		info.StagnantTime = generation - sp.LastImproved
		info.IsStagnant = s.Config.MaxStagnation > 0 &&
			info.StagnantTime >= s.Config.MaxStagnation &&
			!info.HoldsPopBest
		result[i] = info
	}
	return result
}
