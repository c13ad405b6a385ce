// Package nn compiles genomes into immutable feed-forward networks.
package nn

import (
	"fmt"

	"github.com/baldhumanity/neat-evolve/neat"
)

// link is an enabled incoming connection of a node.
type link struct {
	from   int
	weight float64
}

// FeedForwardNetwork represents a phenotype network that can be activated.
// It is built from a snapshot of a genome's enabled connections and never
// changes afterwards, so it is safe for concurrent use.
type FeedForwardNetwork struct {
	NumInputs     int
	NumOutputs    int
	NodeEvalOrder []int // Topologically sorted non-input node ids

	incoming  [][]link // incoming[id] lists the enabled links into node id
	steepness float64
	numNodes  int
}

// CreateFeedForwardNetwork builds a runnable feed-forward network from a genome.
// It performs a topological sort of the enabled connections to determine the
// activation order, and fails if they contain a cycle.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	numNodes := len(g.Nodes)
	incoming := make([][]link, numNodes)
	graph := make([][]int, numNodes) // node id -> outgoing node ids
	inDegree := make([]int, numNodes)
	for _, c := range g.Connections {
		if !c.Enabled {
			continue
		}
		incoming[c.Out] = append(incoming[c.Out], link{from: c.In, weight: c.Weight})
		graph[c.In] = append(graph[c.In], c.Out)
		inDegree[c.Out]++
	}

	// Kahn's algorithm, lowest id first for a deterministic order.
	queue := make([]int, 0, numNodes)
	for id := 0; id < numNodes; id++ {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	evalOrder := make([]int, 0, numNodes)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if g.Nodes[u].Kind != neat.InputNode {
			evalOrder = append(evalOrder, u)
		}
		for _, v := range graph[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	if sorted := len(evalOrder) + g.NumInputs(); sorted != numNodes {
		return nil, fmt.Errorf("failed topological sort: cycle detected (expected %d nodes, got %d)", numNodes, sorted)
	}

	return &FeedForwardNetwork{
		NumInputs:     g.NumInputs(),
		NumOutputs:    g.NumOutputs(),
		NodeEvalOrder: evalOrder,
		incoming:      incoming,
		steepness:     g.Steepness(),
		numNodes:      numNodes,
	}, nil
}

// Activate computes the network's output for a given slice of input values,
// one per input node, bias included. Every other node outputs the sigmoid of
// its weighted input sum.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.NumInputs {
		return nil, fmt.Errorf("%w: got %d values, network has %d inputs", neat.ErrInputLength, len(inputs), net.NumInputs)
	}

	values := make([]float64, net.numNodes)
	copy(values, inputs)
	for _, id := range net.NodeEvalOrder {
		sum := 0.0
		for _, l := range net.incoming[id] {
			sum += values[l.from] * l.weight
		}
		values[id] = neat.Sigmoid(sum, net.steepness)
	}

	outputs := make([]float64, net.NumOutputs)
	copy(outputs, values[net.NumInputs:net.NumInputs+net.NumOutputs])
	return outputs, nil
}
