package lmanage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/latchkey/latchkey"
	"github.com/latchkey/latchkey/lmanage"
)

func TestLoadConfigDefaultsWhenAbsent(t *testing.T) {
	cfg, err := lmanage.LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StorePath == "" {
		t.Error("empty default store path")
	}
	if cfg.DefaultScheme != latchkey.DefaultScheme {
		t.Errorf("scheme = %q", cfg.DefaultScheme)
	}
	if cfg.Verbose {
		t.Error("verbose defaults on")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "store_path = \"/tmp/test-latchkey.db\"\nverbose = true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := lmanage.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StorePath != "/tmp/test-latchkey.db" {
		t.Errorf("store path = %q", cfg.StorePath)
	}
	if !cfg.Verbose {
		t.Error("verbose not read")
	}
	// Unset fields keep their defaults.
	if cfg.DefaultScheme != latchkey.DefaultScheme {
		t.Errorf("scheme = %q", cfg.DefaultScheme)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("store_pth = \"oops\"\n"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := lmanage.LoadConfig(path); !errors.Is(err, latchkey.ErrValidation) {
		t.Errorf("LoadConfig = %v, want ErrValidation", err)
	}
}
