package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	p, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if p.ConsoleName() != Default().Name {
		t.Fatalf("ConsoleName() = %q", p.ConsoleName())
	}
	if len(p.Drives()) == 0 {
		t.Fatal("expected default drives")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	p, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	p.Name = "DEVKIT01"
	p.DriveList = []string{"HDD"}
	if err := p.Save(path); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.ConsoleName() != "DEVKIT01" {
		t.Fatalf("ConsoleName() = %q", reloaded.ConsoleName())
	}
	if len(reloaded.Drives()) != 1 || reloaded.Drives()[0] != "HDD" {
		t.Fatalf("Drives() = %v", reloaded.Drives())
	}
}
