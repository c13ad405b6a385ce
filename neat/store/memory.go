package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genomes     map[string]GenomeEntry
	generations map[string][]GenerationEntry
	snapshots   map[string]SnapshotEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genomes = make(map[string]GenomeEntry)
	s.generations = make(map[string][]GenerationEntry)
	s.snapshots = make(map[string]SnapshotEntry)
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, entry GenomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	entry.VersionedRecord = currentVersion()
	s.genomes[entry.ID] = entry
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (GenomeEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.genomes[id]
	return entry, ok, nil
}

// SaveGeneration stores entry, replacing any earlier entry for the same run
// and generation.
func (s *MemoryStore) SaveGeneration(_ context.Context, entry GenerationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	entry.VersionedRecord = currentVersion()
	entries := s.generations[entry.RunID]
	for i := range entries {
		if entries[i].Generation == entry.Generation {
			entries[i] = entry
			return nil
		}
	}
	entries = append(entries, entry)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Generation < entries[j].Generation })
	s.generations[entry.RunID] = entries
	return nil
}

// ListGenerations returns the run's entries ordered by generation.
func (s *MemoryStore) ListGenerations(_ context.Context, runID string) ([]GenerationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.generations[runID]
	copied := make([]GenerationEntry, len(entries))
	copy(copied, entries)
	return copied, nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, entry SnapshotEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	entry.VersionedRecord = currentVersion()
	s.snapshots[entry.RunID] = entry
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string) (SnapshotEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.snapshots[runID]
	return entry, ok, nil
}
