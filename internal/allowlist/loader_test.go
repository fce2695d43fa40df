package allowlist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "allowlist.yaml")

	content := `---
devices:
  - Bob
  - "  carols-ipad "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write allow-list: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Load() len = %d, want 2", set.Len())
	}
	for _, name := range []string{"bob", "carols-ipad"} {
		if !set.Contains(name) {
			t.Errorf("Load() missing %q", name)
		}
	}
	if set.Contains("joe") {
		t.Error("Load() should not include defaults unless asked")
	}
}

func TestLoadIncludeDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.yaml")
	content := "include_defaults: true\ndevices: [bob]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write allow-list: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !set.Contains("bob") || !set.Contains("joe") {
		t.Errorf("Load() = %v, want defaults plus bob", set.Names())
	}
	if set.Len() != Default().Len()+1 {
		t.Errorf("Load() len = %d, want %d", set.Len(), Default().Len()+1)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/allowlist.yaml"); err == nil {
		t.Error("Load() with missing file should return error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("devices: [unterminated"), 0o644); err != nil {
		t.Fatalf("Failed to write allow-list: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with invalid yaml should return error")
	}
}

func TestContainsIsExact(t *testing.T) {
	set := New("Joe")
	tests := []struct {
		name string
		want bool
	}{
		{"joe", true},
		{"Joe", false},
		{"jo", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := set.Contains(tt.name); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
