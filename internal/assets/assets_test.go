package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestLoadPriority(t *testing.T) {
	m := NewManager()
	m.AddFS("embedded", fstest.MapFS{
		"Default.vert": {Data: []byte("embedded vert")},
		"Default.frag": {Data: []byte("embedded frag")},
	})
	m.AddFS("override", fstest.MapFS{
		"Default.frag": {Data: []byte("override frag")},
	})

	tests := []struct {
		name string
		want string
	}{
		{"Default.vert", "embedded vert"},
		{"Default.frag", "override frag"},
		{"/Default.frag", "override frag"},
	}
	for _, tt := range tests {
		got, err := m.Load(tt.name)
		if err != nil {
			t.Fatalf("Load(%q): %v", tt.name, err)
		}
		if string(got) != tt.want {
			t.Errorf("Load(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if names := m.Sources(); len(names) != 2 || names[0] != "override" {
		t.Errorf("unexpected search order %v", names)
	}
}

func TestLoadNotFound(t *testing.T) {
	m := NewManager()
	m.AddFS("empty", fstest.MapFS{})

	_, err := m.Load("Missing.frag")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if m.Exists("Missing.frag") {
		t.Error("Exists reported a missing file")
	}
}

func TestCacheAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Box.frag")
	if err := os.WriteFile(file, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.AddDir(dir); err != nil {
		t.Fatalf("AddDir: %v", err)
	}

	if data, _ := m.Load("Box.frag"); string(data) != "v1" {
		t.Fatalf("got %q, want v1", data)
	}
	if err := os.WriteFile(file, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if data, _ := m.Load("Box.frag"); string(data) != "v1" {
		t.Errorf("expected cached v1, got %q", data)
	}

	hits, misses := m.Cache().Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses, want 1/1", hits, misses)
	}

	m.Invalidate("Box.frag")
	if data, _ := m.Load("Box.frag"); string(data) != "v2" {
		t.Errorf("expected v2 after invalidate, got %q", data)
	}

	m.Invalidate()
	if m.Cache().Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", m.Cache().Len())
	}
}

func TestAddDirRejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager()
	if err := m.AddDir(file); err == nil {
		t.Error("expected error for a regular file")
	}
	if err := m.AddDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for a missing dir")
	}
}
