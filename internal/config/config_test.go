package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TargetDir != "~/.graphsnap" {
		t.Errorf("expected default target dir '~/.graphsnap', got %s", cfg.TargetDir)
	}
	if cfg.BaseName != "snapshot" {
		t.Errorf("expected default base name 'snapshot', got %s", cfg.BaseName)
	}
	if cfg.NodeName != "/snapshot" {
		t.Errorf("expected default node name '/snapshot', got %s", cfg.NodeName)
	}
	if cfg.SpecInputDir != filepath.Join("~/.graphsnap", "yaml") {
		t.Errorf("expected spec input dir under the target dir, got %s", cfg.SpecInputDir)
	}
	if cfg.ParamTimeout.Duration() != 2*time.Second {
		t.Errorf("expected 2s parameter timeout, got %s", cfg.ParamTimeout.Duration())
	}
	if cfg.IncludeDebug {
		t.Error("expected debug entities to be filtered by default")
	}
	if cfg.DropTransforms {
		t.Error("expected transform topics to be kept by default")
	}
	if cfg.NoGuess {
		t.Error("expected the guess tie-break to be allowed by default")
	}
}

func TestValidate(t *testing.T) {
	t.Run("rejects a run with no output format", func(t *testing.T) {
		cfg := DefaultConfig()
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error with no format selected")
		}
	})

	t.Run("accepts any single format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Formats.YAML = true
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected yaml-only config to validate, got %v", err)
		}
	})

	t.Run("enable all turns every format on", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Formats.EnableAll()
		if !cfg.Formats.JSON || !cfg.Formats.Graph || !cfg.Formats.Archive {
			t.Errorf("expected all formats enabled, got %+v", cfg.Formats)
		}
	})
}

func TestLoadFromPath(t *testing.T) {
	t.Run("round trips through a file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")

		cfg := DefaultConfig()
		cfg.BaseName = "lab"
		cfg.Formats.JSON = true
		cfg.ParamTimeout = Duration(5 * time.Second)
		if err := cfg.Save(path); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, from, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if from != path {
			t.Errorf("expected path %s, got %s", path, from)
		}
		if loaded.BaseName != "lab" {
			t.Errorf("expected base name 'lab', got %s", loaded.BaseName)
		}
		if !loaded.Formats.JSON {
			t.Error("expected json format to survive the round trip")
		}
		if loaded.ParamTimeout.Duration() != 5*time.Second {
			t.Errorf("expected 5s timeout, got %s", loaded.ParamTimeout.Duration())
		}
	})

	t.Run("missing values fall back to defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(path, []byte("base_name: partial\n"), 0644); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		loaded, _, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded.BaseName != "partial" {
			t.Errorf("expected base name 'partial', got %s", loaded.BaseName)
		}
		if loaded.NodeName != "/snapshot" {
			t.Errorf("expected default node name, got %s", loaded.NodeName)
		}
	})

	t.Run("unreadable path reports an error", func(t *testing.T) {
		_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory in test environment")
	}

	if got := ExpandHome("~/.graphsnap"); got != filepath.Join(home, ".graphsnap") {
		t.Errorf("expected home expansion, got %s", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expected absolute path unchanged, got %s", got)
	}
	if got := ExpandHome("relative"); got != "relative" {
		t.Errorf("expected relative path unchanged, got %s", got)
	}
}
