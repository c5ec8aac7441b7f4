package typoutil

import (
	"testing"
)

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"both empty", "", "", 0},
		{"a empty", "", "hello", 5},
		{"b empty", "hello", "", 5},
		{"identical", "hello", "hello", 0},
		{"simple substitution", "kitten", "sitten", 1},
		{"simple insertion", "apple", "applye", 1},
		{"simple deletion", "banana", "banna", 1},
		{"transposition", "kinase", "knase", 1},
		{"adjacent swap", "protein", "portein", 1},
		{"multiple edits", "saturday", "sunday", 3},
		{"unicode chars (same len)", "cliché", "cliche", 1},
		{"unicode chars (diff len)", "résumé", "resume", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DamerauLevenshteinDistance(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDamerauLevenshteinDistanceWithLimit(t *testing.T) {
	tests := []struct {
		a, b  string
		limit int
		want  int
	}{
		{"search", "serch", 1, 1},
		{"search", "seach", 2, 1},
		{"saturday", "sunday", 2, 3},
		{"saturday", "sunday", 3, 3},
		{"abc", "abcdef", 2, 3},
		{"abc", "", 5, 3},
	}

	for _, tt := range tests {
		got := DamerauLevenshteinDistanceWithLimit(tt.a, tt.b, tt.limit)
		if got != tt.want {
			t.Errorf("DamerauLevenshteinDistanceWithLimit(%q, %q, %d) = %d, want %d", tt.a, tt.b, tt.limit, got, tt.want)
		}
	}
}
