package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Missing(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if !lf.IsChanged("fr", "k", "text") {
		t.Error("unknown key should count as changed")
	}
}

func TestUpdateAndIsChanged(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	lf.Update("fr", "k", "Hello")
	if lf.IsChanged("fr", "k", "Hello") {
		t.Error("unchanged text reported as changed")
	}
	if !lf.IsChanged("fr", "k", "Hello!") {
		t.Error("edited text not reported as changed")
	}
	// Checksums are per target language.
	if !lf.IsChanged("de", "k", "Hello") {
		t.Error("other target should not share checksums")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lf, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	lf.Update("fr", "k1", "one")
	lf.Update("fr", "k2", "two")
	if err := lf.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Fatalf("lock file not written: %v", err)
	}

	back, err := Load(dir)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if back.IsChanged("fr", "k1", "one") || back.IsChanged("fr", "k2", "two") {
		t.Error("checksums lost across save/load")
	}
}

func TestPrune(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lf.Update("fr", "keep", "a")
	lf.Update("fr", "drop", "b")
	lf.Update("de", "drop", "b")

	lf.Prune("fr", map[string]bool{"keep": true})
	if lf.IsChanged("fr", "keep", "a") {
		t.Error("kept key was pruned")
	}
	if !lf.IsChanged("fr", "drop", "b") {
		t.Error("dropped key still recorded")
	}
	if lf.IsChanged("de", "drop", "b") {
		t.Error("prune leaked into another target")
	}
}

func TestChecksum(t *testing.T) {
	if Checksum("a") == Checksum("b") {
		t.Error("different texts share a checksum")
	}
	if len(Checksum("x")) != 32 {
		t.Errorf("checksum length = %d, want 32 hex chars", len(Checksum("x")))
	}
}
