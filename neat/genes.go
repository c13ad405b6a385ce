package neat

import (
	"fmt"
	"math"
	"math/rand"
)

// NodeKind classifies a node gene.
type NodeKind int

const (
	InputNode NodeKind = iota
	HiddenNode
	OutputNode
)

func (k NodeKind) String() string {
	switch k {
	case InputNode:
		return "input"
	case HiddenNode:
		return "hidden"
	case OutputNode:
		return "output"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Layer sentinels. They are finite so that the midpoint of an Input and an
// Output layer is well defined.
const (
	InputLayer  = -math.MaxFloat64
	OutputLayer = math.MaxFloat64
)

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the genome. Its ID is also its index
// in the owning genome's node list.
type NodeGene struct {
	ID    int
	Kind  NodeKind
	Layer float64 // Ordering key used for evaluation and edge orientation

	// candidates lists the node ids this node may still be connected to.
	candidates []int

	// Transient evaluation state.
	value     float64
	activated bool
}

func newNodeGene(id int, kind NodeKind, layer float64) *NodeGene {
	return &NodeGene{ID: id, Kind: kind, Layer: layer}
}

// String returns a string representation of the NodeGene.
func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(ID: %d, Kind: %s, Layer: %g)", ng.ID, ng.Kind, ng.Layer)
}

// Candidates returns a copy of the ids this node could still connect to.
func (ng *NodeGene) Candidates() []int {
	out := make([]int, len(ng.candidates))
	copy(out, ng.candidates)
	return out
}

// Copy creates a deep copy of the NodeGene, candidates included.
// Candidates are ids, so they stay valid in the copy's genome.
func (ng *NodeGene) Copy() *NodeGene {
	c := newNodeGene(ng.ID, ng.Kind, ng.Layer)
	c.candidates = append([]int(nil), ng.candidates...)
	return c
}

func (ng *NodeGene) addCandidate(id int) {
	for _, c := range ng.candidates {
		if c == id {
			return
		}
	}
	ng.candidates = append(ng.candidates, id)
}

func (ng *NodeGene) removeCandidate(id int) {
	for i, c := range ng.candidates {
		if c == id {
			ng.candidates = append(ng.candidates[:i], ng.candidates[i+1:]...)
			return
		}
	}
}

func (ng *NodeGene) pickCandidate(rng *rand.Rand) (int, bool) {
	if len(ng.candidates) == 0 {
		return 0, false
	}
	return ng.candidates[rng.Intn(len(ng.candidates))], true
}

// midLayer returns the midpoint of two layers without overflowing.
func midLayer(a, b float64) float64 {
	return a*0.5 + b*0.5
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionGene represents a connection between two nodes of the same genome.
// The endpoints are node ids, never references into another genome.
type ConnectionGene struct {
	In         int
	Out        int
	Weight     float64
	Enabled    bool
	Innovation int // Assigned once from the InnovationRegistry
}

// String returns a string representation of the ConnectionGene.
func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(%d->%d, Weight: %.3f, Enabled: %t, Innovation: %d)",
		cg.In, cg.Out, cg.Weight, cg.Enabled, cg.Innovation)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// --------------------------- Weight Helpers ---------------------------

// initWeight draws a fresh weight uniformly from [-r, r].
func initWeight(rng *rand.Rand, r float64) float64 {
	return (rng.Float64()*2 - 1) * r
}

// mutateWeight either adds the shared perturbation or replaces the weight.
func mutateWeight(rng *rand.Rand, weight, perturbation float64, config *GenomeConfig) float64 {
	if rng.Float64() < config.WeightPerturbProb {
		return weight + perturbation
	}
	return initWeight(rng, config.WeightInitRange)
}
