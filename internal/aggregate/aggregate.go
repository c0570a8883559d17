// Package aggregate joins results with their chunks, files and ratings into
// the records shown by the results table and the summary page.
package aggregate

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sourcegraph/conc/iter"

	"github.com/joescharf/scout/internal/client"
	"github.com/joescharf/scout/internal/models"
)

// Source placeholders.
const (
	UnknownID         = "Unknown ID"
	UnknownFilename   = "Unknown filename"
	FileNameFetchFail = "Error fetching file name"
)

// DefaultConcurrency bounds chunk lookups per result.
const DefaultConcurrency = 8

// ItemFetcher is the part of the gateway client used for aggregation.
type ItemFetcher interface {
	FetchItems(ctx context.Context, model models.Model) ([]models.Item, error)
	FetchItem(ctx context.Context, model models.Model, id string) (models.Item, error)
	FetchReadItemsByAttribute(ctx context.Context, f client.Filters) ([]models.Item, error)
	FetchRelatedItems(ctx context.Context, id string, modelA, modelB models.Model, limitToUser bool) ([]models.Item, error)
}

// Source is a citation chip: the chunk to open and the file it came from.
type Source struct {
	ChunkID  string `json:"chunk_id"`
	FileName string `json:"file_name"`
}

// DisplayRecord is one row of the results table.
type DisplayRecord struct {
	ID            string           `json:"id"`
	Criterion     models.Criterion `json:"criterion"`
	Evidence      string           `json:"evidence"`
	Category      string           `json:"category"`
	Gate          models.Gate      `json:"gate"`
	Status        models.Answer    `json:"status"`
	Justification string           `json:"justification"`
	Sources       []Source         `json:"sources"`
	Chunks        []models.Ref     `json:"chunks"`
	Project       *models.Project  `json:"project,omitempty"`
	Ratings       []models.Rating  `json:"ratings,omitempty"`
}

// Aggregator builds display records from gateway data.
type Aggregator struct {
	Items       ItemFetcher
	Log         *slog.Logger
	Concurrency int
}

// New returns an Aggregator over items.
func New(items ItemFetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{Items: items, Log: logger, Concurrency: DefaultConcurrency}
}

// LoadResults fetches every result and aggregates it.
func (a *Aggregator) LoadResults(ctx context.Context) ([]DisplayRecord, error) {
	items, err := a.Items.FetchItems(ctx, models.ModelResult)
	if err != nil {
		return nil, err
	}
	results, err := models.DecodeResults(items)
	if err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return a.Aggregate(ctx, results), nil
}

// Aggregate resolves every result's chunk references concurrently and
// returns one record per result, Negative records first.
// A failed chunk lookup only affects its own source entry.
func (a *Aggregator) Aggregate(ctx context.Context, results []models.Result) []DisplayRecord {
	records := iter.Map(results, func(r *models.Result) DisplayRecord {
		return a.project(*r, a.sources(ctx, r.Chunks))
	})
	PartitionNegative(records)
	return records
}

func (a *Aggregator) sources(ctx context.Context, refs []models.Ref) []Source {
	if len(refs) == 0 {
		return []Source{}
	}
	m := iter.Mapper[models.Ref, Source]{MaxGoroutines: a.concurrency()}
	return m.Map(refs, func(ref *models.Ref) Source {
		return a.source(ctx, *ref)
	})
}

func (a *Aggregator) source(ctx context.Context, ref models.Ref) Source {
	failed := Source{ChunkID: cmp.Or(ref.ID, UnknownID), FileName: FileNameFetchFail}

	item, err := a.Items.FetchItem(ctx, models.ModelChunk, ref.ID)
	if err != nil {
		a.logger().Warn("chunk lookup failed", "chunk_id", ref.ID, "error", err)
		return failed
	}
	chunk, err := models.Decode[models.Chunk](item)
	if err != nil {
		a.logger().Warn("chunk decode failed", "chunk_id", ref.ID, "error", err)
		return failed
	}

	src := Source{ChunkID: cmp.Or(chunk.ID, UnknownID), FileName: UnknownFilename}
	if chunk.File != nil && chunk.File.Name != "" {
		src.FileName = chunk.File.Name
	}
	return src
}

func (a *Aggregator) project(r models.Result, sources []Source) DisplayRecord {
	rec := DisplayRecord{
		ID:            r.ID,
		Status:        r.Answer,
		Justification: r.FullText,
		Sources:       sources,
		Chunks:        r.Chunks,
		Project:       r.Project,
		Ratings:       r.Ratings,
	}
	if r.Criterion != nil {
		rec.Criterion = *r.Criterion
		rec.Evidence = r.Criterion.Evidence
		rec.Category = r.Criterion.Category
		rec.Gate = r.Criterion.Gate
	}
	return rec
}

// PartitionNegative moves Negative records ahead of all others, keeping the
// relative order within each group.
func PartitionNegative(records []DisplayRecord) {
	slices.SortStableFunc(records, func(x, y DisplayRecord) int {
		return rank(x.Status) - rank(y.Status)
	})
}

func rank(s models.Answer) int {
	if s == models.AnswerNegative {
		return 0
	}
	return 1
}

func (a *Aggregator) concurrency() int {
	if a.Concurrency > 0 {
		return a.Concurrency
	}
	return DefaultConcurrency
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}
