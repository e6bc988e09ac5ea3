package lstore_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/latchkey/latchkey/lstore"
)

func TestBoltHolderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", "latchkey.db")
	holder, err := lstore.OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer holder.Close()

	if err := holder.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := holder.Get("k1")
	if err != nil || !ok {
		t.Fatalf("Get: %v %v", ok, err)
	}
	if got != "v1" {
		t.Errorf("Get = %q", got)
	}

	if _, ok, _ := holder.Get("absent"); ok {
		t.Error("Get(absent) reported presence")
	}

	if err := holder.Delete("k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := holder.Get("k1"); ok {
		t.Error("key survived Delete")
	}
	// Deleting an absent key is a no-op.
	if err := holder.Delete("k1"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestBoltHolderPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latchkey.db")

	holder, err := lstore.OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if err := holder.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := holder.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	holder, err = lstore.OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer holder.Close()

	got, ok, err := holder.Get("k1")
	if err != nil || !ok || got != "v1" {
		t.Errorf("after reopen: %q %v %v", got, ok, err)
	}
	// The version sentinel was written on first open and must still match.
	version, ok, err := holder.Get(lstore.VersionKey)
	if err != nil || !ok {
		t.Fatalf("version sentinel missing: %v %v", ok, err)
	}
	if version != lstore.FormatVersion {
		t.Errorf("version = %q, want %q", version, lstore.FormatVersion)
	}
}

func TestBoltHolderRejectsFormatMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latchkey.db")

	holder, err := lstore.OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if err := holder.Set(lstore.VersionKey, "999"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := holder.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := lstore.OpenBolt(path); !errors.Is(err, lstore.ErrFormatVersion) {
		t.Errorf("reopen = %v, want ErrFormatVersion", err)
	}
}

func TestBoltHolderKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latchkey.db")
	holder, err := lstore.OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer holder.Close()

	for _, k := range []string{"$!alpha", "A!alpha"} {
		if err := holder.Set(k, "v"); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}
	keys, err := holder.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	// Two data keys plus the version sentinel.
	if len(keys) != 3 {
		t.Errorf("Keys = %v", keys)
	}
}
