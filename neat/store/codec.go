package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// VersionedRecord tags every stored payload with its schema and codec.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

func currentVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// NewID returns a fresh random record id.
func NewID() string {
	return uuid.NewString()
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func EncodeGenome(e GenomeEntry) ([]byte, error) { return encode(e) }

func DecodeGenome(data []byte) (GenomeEntry, error) {
	var e GenomeEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return GenomeEntry{}, err
	}
	if err := checkVersion(e.VersionedRecord); err != nil {
		return GenomeEntry{}, err
	}
	return e, nil
}

func EncodeGeneration(e GenerationEntry) ([]byte, error) { return encode(e) }

func DecodeGeneration(data []byte) (GenerationEntry, error) {
	var e GenerationEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return GenerationEntry{}, err
	}
	if err := checkVersion(e.VersionedRecord); err != nil {
		return GenerationEntry{}, err
	}
	return e, nil
}

func EncodeSnapshot(e SnapshotEntry) ([]byte, error) { return encode(e) }

func DecodeSnapshot(data []byte) (SnapshotEntry, error) {
	var e SnapshotEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return SnapshotEntry{}, err
	}
	if err := checkVersion(e.VersionedRecord); err != nil {
		return SnapshotEntry{}, err
	}
	return e, nil
}
