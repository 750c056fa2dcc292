package kmeans

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/floats"
)

type Trainer struct {
	k          int
	iterations int
	rnd        *rand.Rand
	distanceFn DistanceFunc
}

type TrainerOption func(*Trainer)

type Model struct {
	corpus    *Corpus
	centroids []*Centroid
	iter      int
}

// NewTrainer create new Trainer for k clusters.
// k is expected to be validated by the caller: 1 <= k <= corpus size.
func NewTrainer(k int, options ...TrainerOption) Trainer {
	t := Trainer{
		k:          k,
		iterations: 10,
		distanceFn: Dissimilarity,
	}
	for i := range options {
		options[i](&t)
	}
	if t.rnd == nil {
		t.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return t
}

// WithIterations sets the exact number of assign/recenter rounds.
func WithIterations(i int) TrainerOption {
	return func(t *Trainer) {
		t.iterations = i
	}
}

// WithRand sets the random source used to seed centroids.
// A *rand.Rand is not safe for concurrent use, so do not share it between trainers.
func WithRand(r *rand.Rand) TrainerOption {
	return func(t *Trainer) {
		t.rnd = r
	}
}

func WithSeed(seed int64) TrainerOption {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// Fit seeds k random centroids inside the corpus bounding box and runs
// the configured number of rounds.
func (t Trainer) Fit(corpus *Corpus) *Model {
	model := Model{corpus: corpus}
	model.initializeRandom(t.k, t.rnd)
	t.train(&model)
	return &model
}

// FitFrom runs the configured number of rounds starting from the given centroid features
// instead of random ones. The number of centroids, not k, decides the cluster count.
func (t Trainer) FitFrom(corpus *Corpus, initial [][]float64) (*Model, error) {
	model := Model{corpus: corpus, centroids: make([]*Centroid, len(initial))}
	for i, features := range initial {
		if len(features) != corpus.Dim() {
			return nil, fmt.Errorf("%w: centroid %d has %d features, want %d",
				ErrDimensionMismatch, i, len(features), corpus.Dim())
		}
		model.centroids[i] = &Centroid{Features: append(clusters.Coordinates(nil), features...)}
	}
	t.train(&model)
	return &model, nil
}

func (t Trainer) train(model *Model) {
	if len(model.centroids) == 0 {
		return
	}
	for ; model.iter < t.iterations; model.iter++ {
		for _, c := range model.centroids {
			c.Reset()
		}
		model.assign(t.distanceFn)
		model.recenter()
	}
}

// initializeRandom draws every feature of every centroid from the feature's
// corpus-wide range. For integer counts the draw is uniform over [min, max];
// other ranges are clamped so centroids stay inside the bounding box.
func (m *Model) initializeRandom(k int, rnd *rand.Rand) {
	ranges := m.corpus.Ranges()
	m.centroids = make([]*Centroid, k)
	for c := range m.centroids {
		features := make(clusters.Coordinates, len(ranges))
		for i, r := range ranges {
			v := math.Floor(rnd.Float64()*(r.Max-r.Min+1) + r.Min)
			features[i] = min(max(v, r.Min), r.Max)
		}
		m.centroids[c] = &Centroid{Features: features}
	}
}

// assign puts every document on the centroid with the strictly smallest distance.
// Ties go to the earliest centroid.
func (m *Model) assign(distanceFn DistanceFunc) {
	for i, doc := range m.corpus.Documents() {
		best := distanceFn(doc.Features, m.centroids[0].Features)
		n := 0
		for j := 1; j < len(m.centroids); j++ {
			if d := distanceFn(doc.Features, m.centroids[j].Features); d < best {
				best = d
				n = j
			}
		}
		m.centroids[n].Assign(i)
	}
}

// recenter moves every centroid to the mean of its documents.
// A centroid without documents keeps its previous features.
func (m *Model) recenter() {
	sum := make([]float64, m.corpus.Dim())
	for _, c := range m.centroids {
		if len(c.Assignments) == 0 {
			continue
		}
		for i := range sum {
			sum[i] = 0
		}
		for _, i := range c.Assignments {
			floats.Add(sum, m.corpus.Document(i).Features)
		}
		floats.Scale(1/float64(len(c.Assignments)), sum)
		copy(c.Features, sum)
	}
}

// Predict returns the index of the centroid the observation would be assigned to.
func (m *Model) Predict(o clusters.Observation) int {
	l := 0
	n := o.Distance(m.centroids[0].Features)
	for i := 1; i < len(m.centroids); i++ {
		if d := o.Distance(m.centroids[i].Features); d < n {
			n = d
			l = i
		}
	}
	return l
}

// Centroids returns the centroids in creation order.
func (m *Model) Centroids() []*Centroid {
	return m.centroids
}

// Iter returns the number of completed rounds.
func (m *Model) Iter() int {
	return m.iter
}

// Groups returns, per centroid in creation order, the names of its documents in
// assignment order. A centroid without documents yields an empty, non-nil slice.
func (m *Model) Groups() [][]string {
	groups := make([][]string, len(m.centroids))
	for c, centroid := range m.centroids {
		names := make([]string, 0, len(centroid.Assignments))
		for _, i := range centroid.Assignments {
			names = append(names, m.corpus.Document(i).Name)
		}
		groups[c] = names
	}
	return groups
}

// Sizes returns the number of documents per centroid.
func (m *Model) Sizes() []int {
	sizes := make([]int, len(m.centroids))
	for c, centroid := range m.centroids {
		sizes[c] = len(centroid.Assignments)
	}
	return sizes
}
