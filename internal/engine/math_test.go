package engine

import (
	"math"
	"testing"
)

func TestJaccard(t *testing.T) {
	cases := []struct {
		name     string
		a, b     []string
		expected float64
	}{
		{"identical", []string{"hiking", "chess"}, []string{"chess", "hiking"}, 1.0},
		{"disjoint", []string{"hiking"}, []string{"chess"}, 0.0},
		{"partial", []string{"hiking", "chess"}, []string{"chess", "jazz"}, 1.0 / 3.0},
		{"case insensitive", []string{"Hiking"}, []string{"hiking"}, 1.0},
		{"both empty", nil, nil, 0.0},
		{"one empty", []string{"hiking"}, nil, 0.0},
	}

	for _, tc := range cases {
		if got := Jaccard(tc.a, tc.b); math.Abs(got-tc.expected) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestSharedCount(t *testing.T) {
	if got := SharedCount([]string{"CTO", "cto", "CEO"}, []string{"cto"}); got != 1 {
		t.Errorf("Expected duplicates to collapse, got %d", got)
	}
	if got := SharedCount([]string{"a", "b"}, []string{"b", "a"}); got != 2 {
		t.Errorf("Expected 2 shared, got %d", got)
	}
	if got := SharedCount(nil, []string{"a"}); got != 0 {
		t.Errorf("Expected 0 shared with nil, got %d", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(1.5, 0, 1); got != 1 {
		t.Errorf("Expected clamp to 1, got %v", got)
	}
	if got := Clamp(-0.2, 0, 1); got != 0 {
		t.Errorf("Expected clamp to 0, got %v", got)
	}
	if got := Clamp(0.4, 0, 1); got != 0.4 {
		t.Errorf("Expected passthrough, got %v", got)
	}
}

func TestAgeRangeContains(t *testing.T) {
	r := AgeRange{Min: 25, Max: 35}
	if !r.Contains(25) || !r.Contains(35) {
		t.Error("Range bounds should be inclusive")
	}
	if r.Contains(24) || r.Contains(36) {
		t.Error("Out-of-range ages should be rejected")
	}

	open := AgeRange{Min: 18}
	if !open.Contains(90) {
		t.Error("Zero Max should be open-ended")
	}
	if open.Contains(17) {
		t.Error("Min bound should still apply to open-ended range")
	}
}
