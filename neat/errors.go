package neat

import "errors"

var (
	// ErrInputLength is returned when an input vector does not match the input count.
	ErrInputLength = errors.New("input length mismatch")
	// ErrGenomeIndex is returned for a genome index outside the population.
	ErrGenomeIndex = errors.New("genome index out of range")
	// ErrEmptyPopulation is returned when an operation needs at least one genome.
	ErrEmptyPopulation = errors.New("population is empty")
	// ErrInvalidGenome reports a broken structural invariant.
	ErrInvalidGenome = errors.New("invalid genome")
)
