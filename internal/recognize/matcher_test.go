package recognize

import (
	"math"
	"testing"

	"github.com/kozaktomas/faceid/internal/facedb"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 0},
		{"identical direction different scale", []float32{1, 0, 0}, []float32{3, 0, 0}, 0},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 1},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, 2},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 2},
		{"empty", nil, nil, 2},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func gallery() []facedb.Record {
	return []facedb.Record{
		{UID: "u1", Name: "Alice", Embedding: []float32{1, 0, 0, 0}},
		{UID: "u2", Name: "Bob", Embedding: []float32{0, 1, 0, 0}},
		{UID: "u3", Name: "Carol", Embedding: []float32{0, 0, 1, 0}},
	}
}

func TestMatcherBest(t *testing.T) {
	m := NewMatcher(gallery(), 0.36)

	// A probe slightly off Alice's axis still matches her.
	probe := []float32{0.95, 0.05, 0, 0}
	match, ok := m.Best(probe)
	if !ok {
		t.Fatal("probe near Alice did not match")
	}
	if match.Record.Name != "Alice" {
		t.Errorf("matched %s, want Alice", match.Record.Name)
	}
	if match.Distance > 0.36 {
		t.Errorf("distance = %v, above threshold", match.Distance)
	}

	// An equidistant-from-everything probe is out of threshold but still
	// reports its nearest record.
	far := []float32{0.5, 0.5, 0.5, 0.5}
	match, ok = m.Best(far)
	if ok {
		t.Errorf("distant probe matched %s at %v", match.Record.Name, match.Distance)
	}
	if match.Record.Name == "" {
		t.Error("nearest record not reported for an out-of-threshold probe")
	}
}

func TestMatcherBestEmptyGallery(t *testing.T) {
	m := NewMatcher(nil, 0.36)
	if _, ok := m.Best([]float32{1, 0, 0, 0}); ok {
		t.Error("empty gallery produced a match")
	}
}

func TestMatcherRank(t *testing.T) {
	m := NewMatcher(gallery(), 0.36)

	probe := []float32{0.9, 0.4, 0.1, 0}
	matches := m.Rank(probe, 2)
	if len(matches) != 2 {
		t.Fatalf("Rank returned %d matches, want 2", len(matches))
	}
	if matches[0].Record.Name != "Alice" || matches[1].Record.Name != "Bob" {
		t.Errorf("ranking = [%s, %s], want [Alice, Bob]",
			matches[0].Record.Name, matches[1].Record.Name)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("matches not ordered by distance: %v then %v",
			matches[0].Distance, matches[1].Distance)
	}

	if got := m.Rank(probe, 0); got != nil {
		t.Errorf("Rank with k=0 = %v, want nil", got)
	}
}

func TestMatcherNonUnitGalleryEmbeddings(t *testing.T) {
	// Enrollment means are generally shorter than unit; distance must not
	// depend on the stored magnitude.
	records := []facedb.Record{
		{UID: "u1", Name: "Alice", Embedding: []float32{0.33, 0.33, 0, 0}},
	}
	m := NewMatcher(records, 0.36)

	match, ok := m.Best([]float32{0.7071, 0.7071, 0, 0})
	if !ok {
		t.Fatalf("scaled-down gallery vector did not match, distance = %v", match.Distance)
	}
	if match.Distance > 1e-6 {
		t.Errorf("distance = %v, want ~0 for the same direction", match.Distance)
	}
}
