// Package corpus reads a delimited word-count table into a kmeans.Corpus.
//
// The first row is a header. One column holds the document name, every other
// column is a word whose per-document count is a base-10 integer.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/clusters"

	"github.com/mawngo/kcluster/internal/kmeans"
)

var (
	// ErrMalformed is returned for a numeric cell that is not an integer.
	ErrMalformed = errors.New("malformed count")

	// ErrNoNameColumn is returned when the header lacks the name column.
	ErrNoNameColumn = errors.New("name column not found")

	// ErrNoFeatures is returned when the header has no column besides the name.
	ErrNoFeatures = errors.New("no feature columns")
)

type Options struct {
	Separator  rune
	NameColumn string
}

// DefaultOptions matches the blog word-count dataset.
func DefaultOptions() Options {
	return Options{Separator: ';', NameColumn: "Blog"}
}

// Load opens path and reads it with Read.
func Load(path string, opts Options) (*kmeans.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("Corpus loaded",
		slog.String("path", path),
		slog.Int("documents", c.Len()),
		slog.Int("features", c.Dim()))
	return c, nil
}

// Read parses a header row followed by one row per document.
// The feature count is taken from the header, not the data.
func Read(r io.Reader, opts Options) (*kmeans.Corpus, error) {
	if opts.Separator == 0 {
		opts.Separator = DefaultOptions().Separator
	}
	if opts.NameColumn == "" {
		opts.NameColumn = DefaultOptions().NameColumn
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Separator
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, err
	}
	nameAt := -1
	for i, col := range header {
		if strings.TrimSpace(col) == opts.NameColumn {
			nameAt = i
			break
		}
	}
	if nameAt < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoNameColumn, opts.NameColumn)
	}
	dim := len(header) - 1
	if dim < 1 {
		return nil, ErrNoFeatures
	}
	columns := make([]string, len(header))
	copy(columns, header)

	var docs []kmeans.Document
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Field count mismatches surface here as *csv.ParseError.
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		doc := kmeans.Document{
			Name:     record[nameAt],
			Features: make(clusters.Coordinates, 0, dim),
		}
		for i, cell := range record {
			if i == nameAt {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, column %q: %q", ErrMalformed, line, columns[i], cell)
			}
			doc.Features = append(doc.Features, float64(n))
		}
		docs = append(docs, doc)
	}

	return kmeans.NewCorpus(dim, docs)
}
