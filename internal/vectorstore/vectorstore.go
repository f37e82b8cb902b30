package vectorstore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned by Query when the collection has never
// been populated. Ingestion creates the collection; querying first is an
// ordering mistake, not an empty result.
var ErrCollectionNotFound = errors.New("vectorstore: collection not found")

// Document is one stored entry: a whole CV with its provenance metadata.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Match pairs a document with its distance from the query vector.
// Lower distance means more similar.
type Match struct {
	Document Document
	Distance float64
}

// UpsertItem represents a single embedded document to store.
type UpsertItem struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// VectorStore persists embedded documents and answers nearest-neighbor
// queries. Upsert is insert-or-replace keyed by ID. Query returns up to k
// matches ordered by ascending distance.
type VectorStore interface {
	Upsert(ctx context.Context, items []UpsertItem) error
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// squaredDistance is the squared Euclidean distance between two vectors of
// equal length. The confidence thresholds are calibrated against this metric.
func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// selectNearest partially sorts matches so the first k entries are the
// nearest, in ascending distance order.
func selectNearest(a []Match, k int) []Match {
	if k <= 0 {
		return nil
	}
	if k > len(a) {
		k = len(a)
	}
	// insertion-style partial sort; collections here are small
	for i := 0; i < k; i++ {
		min := i
		for j := i + 1; j < len(a); j++ {
			if a[j].Distance < a[min].Distance {
				min = j
			}
		}
		a[i], a[min] = a[min], a[i]
	}
	return a[:k]
}
