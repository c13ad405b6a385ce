package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
)

// SaveCheckpoint saves the current state of the Population to a file.
// Uses gzip compression for smaller file size. The configuration is not
// saved; it is reloaded from its own file by LoadCheckpoint.
func (p *Population) SaveCheckpoint(filePath string) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close checkpoint file '%s': %w", filePath, cerr)
		}
	}()

	gzWriter := gzip.NewWriter(file)
	if err := gob.NewEncoder(gzWriter).Encode(p.Snapshot()); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode population data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint '%s': %w", filePath, err)
	}

	p.logger.Info("checkpoint saved", "path", filePath, "generation", p.generation)
	return nil
}

// ReadCheckpoint decodes the snapshot stored in a checkpoint file.
func ReadCheckpoint(checkpointPath string) (*PopulationSnapshot, error) {
	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	snap := &PopulationSnapshot{}
	if err := gob.NewDecoder(gzReader).Decode(snap); err != nil {
		return nil, fmt.Errorf("failed to decode population data from checkpoint: %w", err)
	}
	return snap, nil
}

// LoadCheckpoint loads a Population state from a checkpoint file.
// It requires the original configuration file path to reconstruct the Config object.
func LoadCheckpoint(checkpointPath, configPath string, opts ...Option) (*Population, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s' for checkpoint: %w", configPath, err)
	}
	snap, err := ReadCheckpoint(checkpointPath)
	if err != nil {
		return nil, err
	}
	p, err := RestorePopulation(config, snap, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore checkpoint '%s': %w", checkpointPath, err)
	}
	p.logger.Info("checkpoint loaded", "path", checkpointPath, "generation", p.generation)
	return p, nil
}
