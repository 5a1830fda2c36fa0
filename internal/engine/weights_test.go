package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWeights_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := []byte("smallPass:\n  interestOverlap: 0.5\nlargePass:\n  reliability: 0.05\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := LoadWeights(path)
	if err != nil {
		t.Fatalf("LoadWeights failed: %v", err)
	}
	if w.SmallPass.InterestOverlap != 0.5 {
		t.Errorf("Expected overlay value 0.5, got %v", w.SmallPass.InterestOverlap)
	}
	if w.LargePass.Reliability != 0.05 {
		t.Errorf("Expected overlay value 0.05, got %v", w.LargePass.Reliability)
	}
	// Untouched fields keep their defaults.
	if w.SmallPass.CityMatch != DefaultWeights().SmallPass.CityMatch {
		t.Errorf("Expected default city weight, got %v", w.SmallPass.CityMatch)
	}
}

func TestLoadWeights_MissingFileKeepsDefaults(t *testing.T) {
	w, err := LoadWeights(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if w != DefaultWeights() {
		t.Error("Missing file must still return the defaults")
	}
}

func TestSequentialIDFactory(t *testing.T) {
	f := SequentialIDFactory("m")
	if got := f(); got != "m-000001" {
		t.Errorf("Expected m-000001, got %s", got)
	}
	if got := f(); got != "m-000002" {
		t.Errorf("Expected m-000002, got %s", got)
	}
}
