package neat

import "sync"

// InnovationPair is the structural identity of a connection gene: the ordered
// pair of node ids it joins.
type InnovationPair struct {
	InNodeID  int
	OutNodeID int
}

// InnovationRegistry maps structural pairs to innovation numbers so that the
// same structural mutation arising in different genomes receives the same
// number. The Nth distinct pair ever recorded gets number N (starting at 1).
//
// A registry is owned by one Population and is safe for concurrent use.
type InnovationRegistry struct {
	mu      sync.Mutex
	pairs   []InnovationPair
	numbers map[InnovationPair]int
}

// NewInnovationRegistry creates an empty registry.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{numbers: make(map[InnovationPair]int)}
}

// RecordOrLookup returns the innovation number of the (inID, outID) pair,
// minting the next number if the pair has never been seen.
func (r *InnovationRegistry) RecordOrLookup(inID, outID int) int {
	key := InnovationPair{InNodeID: inID, OutNodeID: outID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.numbers[key]; ok {
		return n
	}
	r.pairs = append(r.pairs, key)
	n := len(r.pairs)
	r.numbers[key] = n
	return n
}

// Len returns the number of distinct pairs recorded so far.
func (r *InnovationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pairs)
}

// Reset forgets every recorded pair.
func (r *InnovationRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = nil
	r.numbers = make(map[InnovationPair]int)
}

// Pairs returns the recorded pairs in creation order.
func (r *InnovationRegistry) Pairs() []InnovationPair {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]InnovationPair, len(r.pairs))
	copy(out, r.pairs)
	return out
}

// restore replaces the ledger with pairs, numbering them in order.
func (r *InnovationRegistry) restore(pairs []InnovationPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs = make([]InnovationPair, 0, len(pairs))
	r.numbers = make(map[InnovationPair]int, len(pairs))
	for _, p := range pairs {
		if _, dup := r.numbers[p]; dup {
			continue
		}
		r.pairs = append(r.pairs, p)
		r.numbers[p] = len(r.pairs)
	}
}
