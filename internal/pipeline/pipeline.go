package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/solar-collector-etl/internal/catalog"
	"github.com/couchcryptid/solar-collector-etl/internal/deck"
	"github.com/couchcryptid/solar-collector-etl/internal/domain"
	"github.com/couchcryptid/solar-collector-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// RowSource yields catalog rows in file order and io.EOF at the end.
type RowSource interface {
	Next() (catalog.Row, error)
}

// DocumentBuilder accumulates performance objects and writes them out.
type DocumentBuilder interface {
	AddVersionMarker() error
	Append(rec domain.CollectorPerformance, class string) error
	Persist() error
	Len() int
}

// BatchLoader publishes the written records to a downstream sink.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.CollectorPerformance) error
}

// Summary describes a finished run. Accepted is the number of performance
// objects written; the other counts cover every row read.
type Summary struct {
	Rows        int
	Headers     int
	Unsupported int
	Accepted    int
	Published   int
	Duration    time.Duration
}

// Pipeline converts catalog rows into flat plate performance objects.
type Pipeline struct {
	source  RowSource
	builder DocumentBuilder
	loader  BatchLoader
	class   string
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoader publishes every written record once the document is persisted.
func WithLoader(l BatchLoader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithClock sets the clock used to time runs.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithClass overrides the object class records are appended as.
func WithClass(class string) Option {
	return func(p *Pipeline) { p.class = class }
}

// New creates a Pipeline reading from source and writing to builder.
func New(source RowSource, builder DocumentBuilder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		builder: builder,
		class:   deck.FlatPlateClass,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes one conversion: the version marker is added and persisted,
// every row is classified and eligible rows are appended, then the document is
// persisted again and the records are handed to the loader if one is set.
// The first error stops the run; the summary reflects the rows seen so far.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := p.clock.Now()
	var sum Summary

	err := p.run(ctx, &sum)
	sum.Duration = p.clock.Since(start)
	p.metrics.RunDuration.Set(sum.Duration.Seconds())

	if err != nil {
		p.metrics.RunFailures.Inc()
		return sum, err
	}
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.logger.Info("pipeline finished",
		"rows", sum.Rows,
		"headers", sum.Headers,
		"unsupported", sum.Unsupported,
		"accepted", sum.Accepted,
		"duration", sum.Duration,
	)
	return sum, nil
}

func (p *Pipeline) run(ctx context.Context, sum *Summary) error {
	p.logger.Info("pipeline started", "class", p.class)

	if err := p.builder.AddVersionMarker(); err != nil {
		return err
	}
	if err := p.persist(); err != nil {
		return err
	}

	var written []domain.CollectorPerformance
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled after %d rows: %w", sum.Rows, err)
		}

		row, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		sum.Rows++
		p.metrics.RowsRead.Inc()

		rec, class, err := transformRow(row)
		if err != nil {
			return err
		}
		p.metrics.Rows.WithLabelValues(class.String()).Inc()

		switch class {
		case domain.ClassHeader:
			sum.Headers++
			continue
		case domain.ClassUnsupported:
			sum.Unsupported++
			p.logger.Debug("skipping unsupported collector", "position", row.Position, "name", row.Fields[domain.ColName])
			continue
		}

		if err := p.builder.Append(rec, p.class); err != nil {
			return err
		}
		sum.Accepted++
		p.metrics.RecordsWritten.Inc()
		written = append(written, rec)
		p.logger.Debug("record appended", "position", row.Position, "name", rec.Name)
	}

	if err := p.persist(); err != nil {
		return err
	}

	if p.loader == nil || len(written) == 0 {
		return nil
	}
	if err := p.loader.LoadBatch(ctx, written); err != nil {
		return fmt.Errorf("publish %d records: %w", len(written), err)
	}
	sum.Published = len(written)
	p.metrics.RecordsPublished.Add(float64(len(written)))
	return nil
}

func (p *Pipeline) persist() error {
	if err := p.builder.Persist(); err != nil {
		return err
	}
	p.metrics.Persists.Inc()
	return nil
}
