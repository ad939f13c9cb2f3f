package addressbook

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/smileynet/addressbook/internal/config"
)

func TestEmbeddedConfigTemplate(t *testing.T) {
	// Given: the embedded config template
	data, err := fs.ReadFile(Templates, ConfigTemplate)
	if err != nil {
		t.Fatalf("reading embedded %s: %v", ConfigTemplate, err)
	}

	// When: it is loaded as a config layer
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("template does not parse as config: %v", err)
	}

	// Then: it matches the built-in defaults and validates
	if *cfg != config.DefaultConfig() {
		t.Errorf("template config = %+v, want defaults %+v", *cfg, config.DefaultConfig())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("template config invalid: %v", err)
	}
}

func TestOverlayFS_EmbeddedOnly(t *testing.T) {
	// Given: an embedded FS with a file and a local dir without it
	embedded := fstest.MapFS{
		"hello.txt": &fstest.MapFile{Data: []byte("from embedded")},
	}

	// When: opening the file via overlay
	data, err := fs.ReadFile(OverlayFS(t.TempDir(), embedded), "hello.txt")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// Then: embedded content is returned
	if string(data) != "from embedded" {
		t.Errorf("got %q, want %q", string(data), "from embedded")
	}
}

func TestOverlayFS_LocalOverride(t *testing.T) {
	// Given: both local and embedded have the config template
	localDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(localDir, ConfigTemplate), []byte("storage:\n  format: csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// When: opening the template via overlay
	data, err := fs.ReadFile(OverlayFS(localDir, Templates), ConfigTemplate)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// Then: the local file takes precedence
	if !bytes.Contains(data, []byte("format: csv")) {
		t.Errorf("got %q, want local override", string(data))
	}
}

func TestOverlayFS_NotFound(t *testing.T) {
	ofs := OverlayFS(t.TempDir(), fstest.MapFS{})

	if _, err := fs.ReadFile(ofs, "missing.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOverlayFS_RejectsInvalidPath(t *testing.T) {
	ofs := OverlayFS(t.TempDir(), fstest.MapFS{})

	for _, name := range []string{"../escape", "/absolute", "bad\\slash"} {
		if _, err := ofs.Open(name); err == nil {
			t.Errorf("Open(%q) should return error", name)
		}
	}
}
