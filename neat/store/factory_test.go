package store

import (
	"path/filepath"
	"testing"
)

func TestNewStore(t *testing.T) {
	for _, kind := range []string{"", "memory"} {
		s, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("new %q store: %v", kind, err)
		}
		if _, ok := s.(*MemoryStore); !ok {
			t.Fatalf("expected memory store for %q, got %T", kind, s)
		}
		if err := CloseIfSupported(s); err != nil {
			t.Fatalf("close memory store: %v", err)
		}
	}

	s, err := NewStore("sqlite", filepath.Join(t.TempDir(), "neat.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", s)
	}
	if err := CloseIfSupported(s); err != nil {
		t.Fatalf("close sqlite store: %v", err)
	}

	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatal("expected unsupported backend error")
	}
}
