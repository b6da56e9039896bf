// Package recognize matches probe embeddings against the enrolled gallery.
package recognize

import (
	"math"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/faceid/internal/facedb"
)

// maxNeighbors (M) is the maximum number of neighbors per HNSW node.
const maxNeighbors = 16

// Match is one gallery candidate with its cosine distance to the probe.
type Match struct {
	Record   facedb.Record
	Distance float64
}

// Matcher holds the enrolled gallery behind an HNSW index. Stored enrollment
// embeddings are means and may not be unit-norm, so cosine distance is used
// rather than a raw dot product.
type Matcher struct {
	threshold float64
	records   []facedb.Record
	graph     *hnsw.Graph[int]
}

// NewMatcher builds an index over the given records. threshold is the
// maximum cosine distance still considered the same identity.
func NewMatcher(records []facedb.Record, threshold float64) *Matcher {
	m := &Matcher{
		threshold: threshold,
		records:   records,
	}

	if len(records) == 0 {
		return m
	}

	g := hnsw.NewGraph[int]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.CosineDistance

	for i, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, r.Embedding))
	}

	m.graph = g
	return m
}

// Best returns the closest enrolled identity and whether it is within the
// match threshold. An empty gallery matches nothing.
func (m *Matcher) Best(probe []float32) (Match, bool) {
	if m.graph == nil || len(probe) == 0 {
		return Match{}, false
	}

	neighbors := m.graph.Search(probe, 1)
	if len(neighbors) == 0 {
		return Match{}, false
	}

	n := neighbors[0]
	match := Match{
		Record:   m.records[n.Key],
		Distance: CosineDistance(probe, n.Value),
	}
	return match, match.Distance <= m.threshold
}

// Rank returns up to k nearest enrolled identities, closest first.
func (m *Matcher) Rank(probe []float32, k int) []Match {
	if m.graph == nil || len(probe) == 0 || k < 1 {
		return nil
	}

	neighbors := m.graph.Search(probe, k)
	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		matches = append(matches, Match{
			Record:   m.records[n.Key],
			Distance: CosineDistance(probe, n.Value),
		})
	}
	return matches
}

// CosineDistance computes the cosine distance between two vectors. Returns a
// value between 0 (identical direction) and 2 (opposite); invalid input is
// maximum distance.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors.
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}
