package engine

import (
	"strings"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Jaccard computes |A∩B| / |A∪B| over case-insensitive string sets.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := foldSet(a)
	setB := foldSet(b)

	inter := 0
	for k := range setA {
		if setB[k] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SharedCount returns the number of case-insensitive common elements.
func SharedCount(a, b []string) int {
	setA := foldSet(a)
	n := 0
	seen := make(map[string]bool)
	for _, s := range b {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if setA[k] {
			n++
		}
	}
	return n
}

func foldSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		k := strings.ToLower(strings.TrimSpace(s))
		if k != "" {
			set[k] = true
		}
	}
	return set
}

// containsFold reports whether any element equals s, case-insensitively.
func containsFold(items []string, s string) bool {
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(it), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// containsID reports whether id appears in the list.
func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// appendUniqueFold merges items into dst, skipping case-insensitive duplicates.
func appendUniqueFold(dst []string, items ...string) []string {
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" || containsFold(dst, s) {
			continue
		}
		dst = append(dst, s)
	}
	return dst
}
