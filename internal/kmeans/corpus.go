package kmeans

import (
	"errors"
	"fmt"

	"github.com/muesli/clusters"
)

var (
	// ErrDimensionMismatch is returned when a vector does not have the corpus feature count.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidDimension is returned for a corpus declared with fewer than one feature.
	ErrInvalidDimension = errors.New("invalid dimension")
)

// Document is a named word-count vector. It is never modified once part of a Corpus.
type Document struct {
	Name     string
	Features clusters.Coordinates
}

// Coordinates implements clusters.Observation.
func (d Document) Coordinates() clusters.Coordinates {
	return d.Features
}

// Distance implements clusters.Observation using Dissimilarity.
func (d Document) Distance(point clusters.Coordinates) float64 {
	return Dissimilarity(d.Features, point)
}

// Range is the closed interval a single feature spans across a corpus.
type Range struct {
	Min float64
	Max float64
}

// Corpus is the fixed document collection a process clusters.
// It is safe for concurrent reads once built.
type Corpus struct {
	dim    int
	docs   []Document
	ranges []Range
}

// NewCorpus validates docs against dim and computes the per-feature ranges.
// The docs slice is copied; the feature vectors are not.
func NewCorpus(dim int, docs []Document) (*Corpus, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	for i, doc := range docs {
		if len(doc.Features) != dim {
			return nil, fmt.Errorf("%w: document %d (%q) has %d features, want %d",
				ErrDimensionMismatch, i, doc.Name, len(doc.Features), dim)
		}
	}

	c := &Corpus{
		dim:    dim,
		docs:   append([]Document(nil), docs...),
		ranges: make([]Range, dim),
	}
	if len(docs) == 0 {
		return c, nil
	}
	for i := range c.ranges {
		c.ranges[i] = Range{Min: docs[0].Features[i], Max: docs[0].Features[i]}
	}
	for _, doc := range docs[1:] {
		for i, v := range doc.Features {
			c.ranges[i].Min = min(c.ranges[i].Min, v)
			c.ranges[i].Max = max(c.ranges[i].Max, v)
		}
	}
	return c, nil
}

// Dim returns the number of features per document.
func (c *Corpus) Dim() int {
	return c.dim
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Document returns the document at index i.
func (c *Corpus) Document(i int) Document {
	return c.docs[i]
}

// Documents returns the documents in load order. Callers must not modify the result.
func (c *Corpus) Documents() []Document {
	return c.docs
}

// Ranges returns the per-feature [min, max] over all documents.
// For an empty corpus every range is [0, 0].
func (c *Corpus) Ranges() []Range {
	return c.ranges
}
