package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Genome represents an individual organism in the population: an ordered list
// of node genes addressed by id and a list of connection genes that refer to
// those ids.
//
// Nodes and Connections are exported for inspection; callers must not modify
// them directly. A genome is not safe for concurrent use, but distinct genomes
// may be used from different goroutines.
type Genome struct {
	Nodes       []*NodeGene       // Nodes[i].ID == i
	Connections []*ConnectionGene // Creation order
	Fitness     float64

	numInputs  int
	numOutputs int

	config      *GenomeConfig
	innovations *InnovationRegistry
	rng         *rand.Rand

	// order caches every connection sorted by source layer; nil when stale.
	order []*ConnectionGene
}

// NewGenome creates a genome with numInputs Input nodes (ids 0..numInputs-1)
// and numOutputs Output nodes (the following ids), every input a candidate of
// every output and vice versa, then mutates it once so that it starts with a
// connection.
func NewGenome(numInputs, numOutputs int, config *GenomeConfig, innovations *InnovationRegistry, rng *rand.Rand) *Genome {
	g := newBaseGenome(numInputs, numOutputs, config, innovations, rng)
	g.Mutate()
	return g
}

// newBaseGenome creates the unconnected genome NewGenome starts from.
func newBaseGenome(numInputs, numOutputs int, config *GenomeConfig, innovations *InnovationRegistry, rng *rand.Rand) *Genome {
	if numInputs <= 0 || numOutputs <= 0 {
		panic(fmt.Sprintf("neat: genome needs inputs and outputs, got %d/%d", numInputs, numOutputs))
	}
	g := &Genome{
		Nodes:       make([]*NodeGene, 0, numInputs+numOutputs),
		numInputs:   numInputs,
		numOutputs:  numOutputs,
		config:      config,
		innovations: innovations,
		rng:         rng,
	}
	for i := 0; i < numInputs; i++ {
		g.Nodes = append(g.Nodes, newNodeGene(i, InputNode, InputLayer))
	}
	for i := 0; i < numOutputs; i++ {
		g.Nodes = append(g.Nodes, newNodeGene(numInputs+i, OutputNode, OutputLayer))
	}
	for _, in := range g.Nodes[:numInputs] {
		for _, out := range g.Nodes[numInputs:] {
			in.addCandidate(out.ID)
			out.addCandidate(in.ID)
		}
	}
	return g
}

// NumInputs returns the number of Input nodes, bias included.
func (g *Genome) NumInputs() int { return g.numInputs }

// NumOutputs returns the number of Output nodes.
func (g *Genome) NumOutputs() int { return g.numOutputs }

// Steepness returns the sigmoid steepness used by Evaluate.
func (g *Genome) Steepness() float64 { return g.config.SigmoidSteepness }

// String returns a short summary of the genome.
func (g *Genome) String() string {
	enabled := 0
	for _, c := range g.Connections {
		if c.Enabled {
			enabled++
		}
	}
	return fmt.Sprintf("Genome(Nodes: %d, Connections: %d/%d enabled, Fitness: %.4f)",
		len(g.Nodes), enabled, len(g.Connections), g.Fitness)
}

// Copy creates a deep copy of the genome. The copy shares configuration,
// innovation registry and random source with the original, nothing else.
func (g *Genome) Copy() *Genome {
	c := &Genome{
		Nodes:       make([]*NodeGene, len(g.Nodes)),
		Connections: make([]*ConnectionGene, len(g.Connections)),
		Fitness:     g.Fitness,
		numInputs:   g.numInputs,
		numOutputs:  g.numOutputs,
		config:      g.config,
		innovations: g.innovations,
		rng:         g.rng,
	}
	for i, n := range g.Nodes {
		c.Nodes[i] = n.Copy()
	}
	for i, conn := range g.Connections {
		c.Connections[i] = conn.Copy()
	}
	return c
}

// --------------------------- Mutation ---------------------------

// Mutate applies mutations to the genome. Each operator is gated by its own
// probability, so a call may apply none, one or several of them. A genome
// without connections instead receives exactly one new connection followed by
// a full weight randomisation.
func (g *Genome) Mutate() {
	if len(g.Connections) == 0 {
		g.mutateAddConnection()
		g.randomizeWeights()
		return
	}

	if g.rng.Float64() < g.config.WeightMutateProb {
		g.mutateWeights()
	}
	if g.rng.Float64() < g.config.ConnAddProb {
		g.mutateAddConnection()
	}
	if g.rng.Float64() < g.config.NodeAddProb {
		g.mutateAddNode()
	}
	if g.rng.Float64() < g.config.ToggleEnableProb {
		g.mutateToggleEnable()
	}
}

// mutateWeights perturbs every connection by one shared perturbation or
// replaces its weight outright.
func (g *Genome) mutateWeights() {
	perturbation := initWeight(g.rng, g.config.WeightPerturbPower)
	for _, c := range g.Connections {
		c.Weight = mutateWeight(g.rng, c.Weight, perturbation, g.config)
	}
}

func (g *Genome) randomizeWeights() {
	for _, c := range g.Connections {
		c.Weight = initWeight(g.rng, g.config.WeightInitRange)
	}
}

// mutateAddConnection connects a random node to one of its candidates.
// It reports false when the chosen node has no candidate left.
func (g *Genome) mutateAddConnection() bool {
	n1 := g.Nodes[g.rng.Intn(len(g.Nodes))]
	id, ok := n1.pickCandidate(g.rng)
	if !ok {
		return false
	}
	n2 := g.Nodes[id]

	// Edges run from the lower layer to the higher one.
	src, dst := n1, n2
	if n1.Kind == OutputNode || n2.Kind == InputNode || n2.Layer < n1.Layer {
		src, dst = n2, n1
	}
	g.addConnection(src.ID, dst.ID, initWeight(g.rng, g.config.WeightInitRange), true)
	return true
}

// mutateAddNode splits a random connection with a new hidden node.
func (g *Genome) mutateAddNode() {
	if len(g.Connections) == 0 {
		return
	}
	split := g.Connections[g.rng.Intn(len(g.Connections))]
	split.Enabled = false

	src, dst := g.Nodes[split.In], g.Nodes[split.Out]
	hidden := newNodeGene(len(g.Nodes), HiddenNode, midLayer(src.Layer, dst.Layer))
	for _, n := range g.Nodes {
		if n.Kind == HiddenNode || n.ID == src.ID || n.ID == dst.ID {
			continue
		}
		hidden.addCandidate(n.ID)
		n.addCandidate(hidden.ID)
	}
	g.Nodes = append(g.Nodes, hidden)

	g.addConnection(src.ID, hidden.ID, initWeight(g.rng, g.config.WeightInitRange), true)
	g.addConnection(hidden.ID, dst.ID, 1.0, true)
}

func (g *Genome) mutateToggleEnable() {
	if len(g.Connections) == 0 {
		return
	}
	c := g.Connections[g.rng.Intn(len(g.Connections))]
	c.Enabled = !c.Enabled
}

// addConnection appends a new connection gene and retires the pair from both
// endpoints' candidate lists. Illegal edges are programming errors.
func (g *Genome) addConnection(in, out int, weight float64, enabled bool) *ConnectionGene {
	src, dst := g.Nodes[in], g.Nodes[out]
	switch {
	case in == out:
		panic(fmt.Sprintf("neat: self loop on node %d", in))
	case src.Kind == OutputNode:
		panic(fmt.Sprintf("neat: connection out of output node %d", in))
	case dst.Kind == InputNode:
		panic(fmt.Sprintf("neat: connection into input node %d", out))
	}
	for _, c := range g.Connections {
		if c.In == in && c.Out == out {
			panic(fmt.Sprintf("neat: duplicate connection %d->%d", in, out))
		}
	}

	src.removeCandidate(out)
	dst.removeCandidate(in)

	c := &ConnectionGene{
		In:         in,
		Out:        out,
		Weight:     weight,
		Enabled:    enabled,
		Innovation: g.innovations.RecordOrLookup(in, out),
	}
	g.Connections = append(g.Connections, c)
	g.order = nil
	return c
}

// rebuildCandidates recomputes every candidate list from scratch: two nodes of
// different kinds are mutual candidates unless a connection already joins them.
func (g *Genome) rebuildCandidates() {
	joined := make(map[InnovationPair]bool, 2*len(g.Connections))
	for _, c := range g.Connections {
		joined[InnovationPair{c.In, c.Out}] = true
		joined[InnovationPair{c.Out, c.In}] = true
	}
	for _, n := range g.Nodes {
		n.candidates = n.candidates[:0]
		for _, m := range g.Nodes {
			if n.Kind == m.Kind || joined[InnovationPair{n.ID, m.ID}] {
				continue
			}
			n.candidates = append(n.candidates, m.ID)
		}
	}
	g.order = nil
}

// --------------------------- Compatibility ---------------------------

// sortedByInnovation returns the connections ordered by ascending innovation
// number. The input slice is left untouched.
func sortedByInnovation(conns []*ConnectionGene) []*ConnectionGene {
	out := make([]*ConnectionGene, len(conns))
	copy(out, conns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Innovation < out[j].Innovation
	})
	return out
}

// Compatibility computes the NEAT distance c1*E/N + c2*D/N + c3*W between two
// genomes, where E and D count excess and disjoint genes, N is the size of
// the larger connection list (1 if both are empty) and W the mean absolute
// weight difference of matching genes (0 if none match).
func Compatibility(a, b *Genome, c1, c2, c3 float64) float64 {
	ca := sortedByInnovation(a.Connections)
	cb := sortedByInnovation(b.Connections)

	disjoint, matching := 0, 0
	weightDiff := 0.0
	i, j := 0, 0
	for i < len(ca) && j < len(cb) {
		switch {
		case ca[i].Innovation == cb[j].Innovation:
			matching++
			weightDiff += math.Abs(ca[i].Weight - cb[j].Weight)
			i++
			j++
		case ca[i].Innovation < cb[j].Innovation:
			disjoint++
			i++
		default:
			disjoint++
			j++
		}
	}
	// Whatever remains lies beyond the other genome's highest innovation.
	excess := (len(ca) - i) + (len(cb) - j)

	n := float64(max(len(ca), len(cb)))
	if n == 0 {
		n = 1
	}
	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}
	return c1*float64(excess)/n + c2*float64(disjoint)/n + c3*avgWeightDiff
}

// Distance is Compatibility with the coefficients from a species-set config.
func (g *Genome) Distance(other *Genome, config *SpeciesSetConfig) float64 {
	return Compatibility(g, other, config.ExcessCoefficient, config.DisjointCoefficient, config.WeightCoefficient)
}

// --------------------------- Crossover ---------------------------

// Mate creates an offspring of a and b. The fitter parent (a on ties) fixes
// the offspring's nodes and gene set; matching genes are taken from the other
// parent with probability proportional to its share of the combined fitness.
// The offspring owns fresh copies of everything and starts with zero fitness.
func Mate(a, b *Genome) *Genome {
	better, worse := a, b
	if b.Fitness > a.Fitness {
		better, worse = b, a
	}
	rng, config := better.rng, better.config
	keepDisabled := func() bool { return rng.Float64() < config.KeepDisabledProb }

	genes := sortedByInnovation(better.Connections)
	inherited := make([]ConnectionGene, len(genes))
	decided := make([]bool, len(genes))
	position := make(map[int]int, len(genes))
	for i, c := range genes {
		inherited[i] = *c
		position[c.Innovation] = i
		if !c.Enabled {
			inherited[i].Enabled = !keepDisabled()
			decided[i] = true
		}
	}

	bias := crossoverBias(better.Fitness, worse.Fitness)
	for _, c := range sortedByInnovation(worse.Connections) {
		i, ok := position[c.Innovation]
		// A stale number from a reset registry may name a different pair.
		if !ok || inherited[i].In != c.In || inherited[i].Out != c.Out {
			continue
		}
		if rng.Float64() >= bias {
			continue
		}
		inherited[i].Weight = c.Weight
		inherited[i].Enabled = c.Enabled
		if !c.Enabled && !decided[i] {
			inherited[i].Enabled = !keepDisabled()
			decided[i] = true
		}
	}

	child := &Genome{
		Nodes:       make([]*NodeGene, len(better.Nodes)),
		Connections: make([]*ConnectionGene, len(inherited)),
		numInputs:   better.numInputs,
		numOutputs:  better.numOutputs,
		config:      config,
		innovations: better.innovations,
		rng:         rng,
	}
	for i, n := range better.Nodes {
		child.Nodes[i] = newNodeGene(n.ID, n.Kind, n.Layer)
	}
	for i := range inherited {
		gene := inherited[i]
		child.Connections[i] = &gene
	}
	child.rebuildCandidates()
	return child
}

// crossoverBias is the chance a matching gene comes from the worse parent.
func crossoverBias(better, worse float64) float64 {
	total := better + worse
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0.5
	}
	return clamp(worse/total, 0, 1)
}

// --------------------------- Evaluation ---------------------------

// evaluationOrder returns all connections sorted by the layer of their source
// node. The layer is an approximate topological key: hidden nodes sit at the
// midpoint of the connection they split and new edges always point upward.
func (g *Genome) evaluationOrder() []*ConnectionGene {
	if g.order != nil && len(g.order) == len(g.Connections) {
		return g.order
	}
	order := make([]*ConnectionGene, len(g.Connections))
	copy(order, g.Connections)
	sort.SliceStable(order, func(i, j int) bool {
		return g.Nodes[order[i].In].Layer < g.Nodes[order[j].In].Layer
	})
	g.order = order
	return order
}

// Evaluate feeds inputs (one value per Input node, indexed by node id) through
// the network and returns one value per Output node.
func (g *Genome) Evaluate(inputs []float64) ([]float64, error) {
	if len(inputs) != g.numInputs {
		return nil, fmt.Errorf("%w: got %d values, genome has %d inputs", ErrInputLength, len(inputs), g.numInputs)
	}
	k := g.config.SigmoidSteepness

	for _, n := range g.Nodes {
		if n.Kind == InputNode {
			n.value = inputs[n.ID]
			n.activated = true
			continue
		}
		n.value = 0
		n.activated = false
	}

	for _, c := range g.evaluationOrder() {
		if !c.Enabled {
			continue
		}
		src, dst := g.Nodes[c.In], g.Nodes[c.Out]
		if !src.activated {
			src.value = Sigmoid(src.value, k)
			src.activated = true
		}
		dst.value += src.value * c.Weight
	}

	outputs := make([]float64, g.numOutputs)
	for _, n := range g.Nodes[g.numInputs : g.numInputs+g.numOutputs] {
		if !n.activated {
			n.value = Sigmoid(n.value, k)
			n.activated = true
		}
		outputs[n.ID-g.numInputs] = n.value
	}
	return outputs, nil
}

// --------------------------- Validation ---------------------------

// Validate checks the structural invariants of the genome: node ids match
// their positions, inputs come first and outputs next, and every connection
// runs from a non-output to a different non-input node of this genome with a
// unique ordered pair and a unique innovation number. Connections between
// hidden nodes must point to a strictly higher layer, which keeps the graph
// acyclic.
func (g *Genome) Validate() error {
	if len(g.Nodes) < g.numInputs+g.numOutputs {
		return fmt.Errorf("%w: %d nodes for %d inputs and %d outputs", ErrInvalidGenome, len(g.Nodes), g.numInputs, g.numOutputs)
	}
	for i, n := range g.Nodes {
		want := HiddenNode
		switch {
		case i < g.numInputs:
			want = InputNode
		case i < g.numInputs+g.numOutputs:
			want = OutputNode
		}
		if n.ID != i {
			return fmt.Errorf("%w: node at index %d has id %d", ErrInvalidGenome, i, n.ID)
		}
		if n.Kind != want {
			return fmt.Errorf("%w: node %d is %s, expected %s", ErrInvalidGenome, i, n.Kind, want)
		}
	}

	pairs := make(map[InnovationPair]bool, len(g.Connections))
	innovations := make(map[int]bool, len(g.Connections))
	for _, c := range g.Connections {
		if c.In < 0 || c.In >= len(g.Nodes) || c.Out < 0 || c.Out >= len(g.Nodes) {
			return fmt.Errorf("%w: %s references a foreign node", ErrInvalidGenome, c)
		}
		switch {
		case c.In == c.Out:
			return fmt.Errorf("%w: %s is a self loop", ErrInvalidGenome, c)
		case g.Nodes[c.In].Kind == OutputNode:
			return fmt.Errorf("%w: %s leaves an output node", ErrInvalidGenome, c)
		case g.Nodes[c.Out].Kind == InputNode:
			return fmt.Errorf("%w: %s enters an input node", ErrInvalidGenome, c)
		case g.Nodes[c.In].Kind == HiddenNode && g.Nodes[c.Out].Kind == HiddenNode &&
			g.Nodes[c.In].Layer >= g.Nodes[c.Out].Layer:
			return fmt.Errorf("%w: %s does not point to a higher layer", ErrInvalidGenome, c)
		}
		pair := InnovationPair{c.In, c.Out}
		if pairs[pair] {
			return fmt.Errorf("%w: duplicate connection %d->%d", ErrInvalidGenome, c.In, c.Out)
		}
		pairs[pair] = true
		if innovations[c.Innovation] {
			return fmt.Errorf("%w: duplicate innovation %d", ErrInvalidGenome, c.Innovation)
		}
		innovations[c.Innovation] = true
	}
	return nil
}
