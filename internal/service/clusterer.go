// Package service implements the clustering request contract on top of a
// process-wide, read-only corpus.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mawngo/kcluster/internal/kmeans"
	"github.com/mawngo/kcluster/internal/metrics"
)

var (
	// ErrInvalidInput marks a request the caller must fix.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal marks a run that failed for reasons outside the caller's control.
	ErrInternal = errors.New("internal error")
)

// Result is the formatted outcome of one run: one group of document names per cluster.
type Result struct {
	Groups     [][]string
	Iterations int
}

// Sizes returns the number of documents in every group.
func (r Result) Sizes() []int {
	sizes := make([]int, len(r.Groups))
	for i, g := range r.Groups {
		sizes[i] = len(g)
	}
	return sizes
}

type Option func(*Clusterer)

// WithSeed makes every run start from the same random stream. 0 seeds from the clock.
func WithSeed(seed int64) Option {
	return func(c *Clusterer) {
		c.seed = seed
	}
}

// WithMaxIterations bounds the iterations a single request may ask for. 0 disables the bound.
func WithMaxIterations(n int) Option {
	return func(c *Clusterer) {
		c.maxIterations = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Clusterer) {
		c.metrics = m
	}
}

// Clusterer runs k-means requests against one corpus. It is safe for concurrent use:
// every call owns its trainer, random source and centroids.
type Clusterer struct {
	corpus        *kmeans.Corpus
	seed          int64
	maxIterations int
	metrics       *metrics.Metrics
	fit           func(corpus *kmeans.Corpus, k, iterations int, rnd *rand.Rand) *kmeans.Model
}

func NewClusterer(corpus *kmeans.Corpus, options ...Option) *Clusterer {
	c := &Clusterer{corpus: corpus, fit: fit}
	for i := range options {
		options[i](c)
	}
	return c
}

// Corpus returns the corpus requests are served from.
func (c *Clusterer) Corpus() *kmeans.Corpus {
	return c.corpus
}

// ParseRequest converts the raw cluster and iteration parameters.
// Missing and non-numeric values are rejected with ErrInvalidInput.
func ParseRequest(clusters, iterations string) (int, int, error) {
	k, err := parseParam("clusters", clusters)
	if err != nil {
		return 0, 0, err
	}
	it, err := parseParam("iterations", iterations)
	if err != nil {
		return 0, 0, err
	}
	return k, it, nil
}

func parseParam(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidInput, name, raw)
	}
	return n, nil
}

// Validate checks k and iterations against the corpus and the configured bound.
func (c *Clusterer) Validate(k, iterations int) error {
	switch {
	case k < 1:
		return fmt.Errorf("%w: clusters must be at least 1, got %d", ErrInvalidInput, k)
	case k > c.corpus.Len():
		return fmt.Errorf("%w: clusters must not exceed the %d documents, got %d", ErrInvalidInput, c.corpus.Len(), k)
	case iterations < 0:
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalidInput, iterations)
	case c.maxIterations > 0 && iterations > c.maxIterations:
		return fmt.Errorf("%w: iterations must not exceed %d, got %d", ErrInvalidInput, c.maxIterations, iterations)
	}
	return nil
}

// Cluster validates the request and runs k-means for exactly iterations rounds.
// On failure no partial result is returned. The run itself is not interruptible;
// ctx is only checked before it starts.
func (c *Clusterer) Cluster(ctx context.Context, k, iterations int) (Result, error) {
	if err := c.Validate(k, iterations); err != nil {
		c.metrics.Observe(metrics.OutcomeRejected, 0, nil)
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		c.metrics.Observe(metrics.OutcomeFailed, 0, nil)
		return Result{}, err
	}

	runID := uuid.NewString()
	now := time.Now()
	slog.Debug("Start clustering",
		slog.String("run", runID),
		slog.Int("k", k),
		slog.Int("iterations", iterations),
		slog.Int("documents", c.corpus.Len()))

	res, err := c.run(k, iterations)
	if err != nil {
		c.metrics.Observe(metrics.OutcomeFailed, 0, nil)
		slog.Error("Clustering failed", slog.String("run", runID), slog.Any("err", err))
		return Result{}, err
	}

	took := time.Since(now)
	sizes := res.Sizes()
	c.metrics.Observe(metrics.OutcomeOK, took, sizes)
	slog.Info("Clustering completed",
		slog.String("run", runID),
		slog.Int("k", k),
		slog.Int("iterations", res.Iterations),
		slog.Any("sizes", sizes),
		slog.Duration("took", took))
	return res, nil
}

func (c *Clusterer) run(k, iterations int) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	m := c.fit(c.corpus, k, iterations, c.newRand())
	return Result{Groups: m.Groups(), Iterations: m.Iter()}, nil
}

func fit(corpus *kmeans.Corpus, k, iterations int, rnd *rand.Rand) *kmeans.Model {
	return kmeans.NewTrainer(k,
		kmeans.WithIterations(iterations),
		kmeans.WithRand(rnd)).
		Fit(corpus)
}

func (c *Clusterer) newRand() *rand.Rand {
	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
