package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/solar-collector-etl/internal/catalog"
	"github.com/couchcryptid/solar-collector-etl/internal/deck"
	"github.com/couchcryptid/solar-collector-etl/internal/domain"
	"github.com/couchcryptid/solar-collector-etl/internal/idd"
	"github.com/couchcryptid/solar-collector-etl/internal/idf"
	"github.com/couchcryptid/solar-collector-etl/internal/observability"
	"github.com/couchcryptid/solar-collector-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type sliceSource struct {
	rows   [][]string
	err    error // returned once rows are exhausted, instead of io.EOF
	next   int
	onNext func()
}

func (s *sliceSource) Next() (catalog.Row, error) {
	if s.onNext != nil {
		s.onNext()
	}
	if s.next >= len(s.rows) {
		if s.err != nil {
			return catalog.Row{}, s.err
		}
		return catalog.Row{}, io.EOF
	}
	i := s.next
	s.next++
	return catalog.Row{Position: i, Line: i + 1, Fields: s.rows[i]}, nil
}

type mockBuilder struct {
	calls      []string
	appended   []domain.CollectorPerformance
	versionErr error
	appendErr  error
	persistErr error
}

func (m *mockBuilder) AddVersionMarker() error {
	m.calls = append(m.calls, "version")
	return m.versionErr
}

func (m *mockBuilder) Append(rec domain.CollectorPerformance, class string) error {
	m.calls = append(m.calls, "append:"+rec.Name)
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, rec)
	return nil
}

func (m *mockBuilder) Persist() error {
	m.calls = append(m.calls, "persist")
	return m.persistErr
}

func (m *mockBuilder) Len() int { return len(m.appended) }

type mockLoader struct {
	loaded []domain.CollectorPerformance
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, records []domain.CollectorPerformance) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, records...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fixtures ---

func headerRows() [][]string {
	return [][]string{
		{"SRCC OG-100 Certified Solar Collector Ratings"},
		{"Collector Name", "SRCC Certification", "Collector Type", "Manufacturer", "Test Flow Rate", "Gross Area", "FR(tau alpha)", "FR UL", "IAM b0"},
		{"", "", "", "", "L/s", "m2", "-", "W/m2-K", "-"},
	}
}

func dataRow(name, collectorType, flow string) []string {
	return []string{name, "2017001A", collectorType, "Acme Solar", flow, "2.0", "0.7", "3.5", "0.1"}
}

func catalogRows(rows ...[]string) [][]string {
	return append(headerRows(), rows...)
}

func openDeck(t *testing.T) (*deck.Builder, *idd.Dictionary, string) {
	t.Helper()
	dict, err := idd.Load(filepath.Join("..", "idd", "testdata"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "SolarCollectors2017.idf")
	b, err := deck.Open(dict, path)
	require.NoError(t, err)
	return b, dict, path
}

func readDeck(t *testing.T, dict *idd.Dictionary, path string) *idf.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := idf.New(dict)
	require.NoError(t, doc.Parse(strings.NewReader(string(data))))
	return doc
}

// --- tests ---

func TestPipeline_Run_WritesEligibleRows(t *testing.T) {
	builder, dict, path := openDeck(t)
	src := &sliceSource{rows: catalogRows(
		dataRow("C1", "Glazed Flat-Plate", "500"),
		dataRow("T1", "Tubular", "500"),
	)}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(src, builder, discardLogger(), metrics)
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Accepted)
	assert.Equal(t, 3, sum.Headers)
	assert.Equal(t, 1, sum.Unsupported)
	assert.Equal(t, 5, sum.Rows)
	assert.Zero(t, sum.Published)

	doc := readDeck(t, dict, path)
	objs := doc.Objects()
	require.Len(t, objs, 2)
	assert.Equal(t, deck.VersionClass, objs[0].Class())
	assert.Equal(t, deck.FlatPlateClass, objs[1].Class())

	name, _ := objs[1].Get("Name")
	assert.Equal(t, "C1", name.String())
	rate, _ := objs[1].Get("Test Flow Rate")
	v, err := rate.Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)

	assert.InDelta(t, 5, testutil.ToFloat64(metrics.RowsRead), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.Rows.WithLabelValues("header")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Rows.WithLabelValues("unsupported")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Rows.WithLabelValues("eligible")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RecordsWritten), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Persists), 0)
}

func TestPipeline_Run_FiveRowCatalog(t *testing.T) {
	builder, dict, path := openDeck(t)
	src := &sliceSource{rows: [][]string{
		{"SRCC OG-100"},
		{"SRCC#", "Model", "FlatPlate", "...", "x", "x", "x", "x", "x"},
		{"units"},
		{"T1", "x", "Tubular", "x", "1000", "2.0", "0.7", "3.5", "0.1"},
		{"C1", "x", "FlatPlate", "x", "1000", "2.0", "0.7", "3.5", "0.1"},
	}}

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Accepted)

	doc := readDeck(t, dict, path)
	require.Len(t, doc.ObjectsOf(deck.VersionClass), 1)
	objs := doc.ObjectsOf(deck.FlatPlateClass)
	require.Len(t, objs, 1)

	name, _ := objs[0].Get("Name")
	assert.Equal(t, "C1", name.String())
	rate, _ := objs[0].Get("Test Flow Rate")
	assert.Equal(t, "1", rate.String())
}

func TestPipeline_Run_CallOrder(t *testing.T) {
	builder := &mockBuilder{}
	src := &sliceSource{rows: catalogRows(
		dataRow("C1", "Glazed Flat-Plate", "500"),
		dataRow("T1", "Tubular", "500"),
		dataRow("C2", "Unglazed Flat-Plate", "1000"),
	)}

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"version", "persist", "append:C1", "append:C2", "persist"}, builder.calls)
	assert.Equal(t, 2, sum.Accepted)
	assert.Equal(t, sum.Accepted, builder.Len())
}

func TestPipeline_Run_HeadersOnly(t *testing.T) {
	builder, dict, path := openDeck(t)
	src := &sliceSource{rows: headerRows()}

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Accepted)
	assert.Equal(t, 3, sum.Headers)

	doc := readDeck(t, dict, path)
	require.Equal(t, 1, doc.Len())
	assert.Equal(t, deck.VersionClass, doc.Objects()[0].Class())
}

func TestPipeline_Run_EmptyCatalog(t *testing.T) {
	builder := &mockBuilder{}
	sum, err := pipeline.New(&sliceSource{}, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Rows)
	assert.Zero(t, sum.Accepted)
	assert.Equal(t, []string{"version", "persist", "persist"}, builder.calls)
}

func TestPipeline_Run_ShapeErrorAborts(t *testing.T) {
	builder, dict, path := openDeck(t)
	src := &sliceSource{rows: catalogRows(
		dataRow("C1", "Glazed Flat-Plate", "500"),
		[]string{"short", "row"},
		dataRow("C3", "Glazed Flat-Plate", "500"),
	)}
	metrics := observability.NewMetricsForTesting()

	sum, err := pipeline.New(src, builder, discardLogger(), metrics).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRowShape))
	assert.Contains(t, err.Error(), "catalog line 5")

	assert.Equal(t, 1, sum.Accepted)
	assert.Equal(t, 5, src.next, "no row after the failing one is read")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RunFailures), 0)

	// only the mid-run persist happened: the file holds the version object
	doc := readDeck(t, dict, path)
	assert.Equal(t, 1, doc.Len())
}

func TestPipeline_Run_BlankLineInHeaderBlock(t *testing.T) {
	builder, dict, path := openDeck(t)
	src := catalog.NewReader(strings.NewReader("title\n\ncols\nC1,x,FlatPlate,y,1000,2.0,0.7,3.5,0.1\n"))

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Rows)
	assert.Equal(t, 3, sum.Headers)
	assert.Equal(t, 1, sum.Accepted)

	objs := readDeck(t, dict, path).ObjectsOf(deck.FlatPlateClass)
	require.Len(t, objs, 1)
	name, _ := objs[0].Get("Name")
	assert.Equal(t, "C1", name.String())
}

func TestPipeline_Run_BlankDataLineAborts(t *testing.T) {
	builder, dict, path := openDeck(t)
	src := catalog.NewReader(strings.NewReader("title\nunits\ncols\n" +
		"C1,x,FlatPlate,y,1000,2.0,0.7,3.5,0.1\n" +
		"\n" +
		"C2,x,FlatPlate,y,1000,2.0,0.7,3.5,0.1\n"))

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRowShape))
	assert.Contains(t, err.Error(), "catalog line 5")
	assert.Equal(t, 1, sum.Accepted)

	doc := readDeck(t, dict, path)
	assert.Empty(t, doc.ObjectsOf(deck.FlatPlateClass), "only the mid-run persist reached the file")
}

func TestPipeline_Run_ShortEligibleRowAborts(t *testing.T) {
	builder := &mockBuilder{}
	src := &sliceSource{rows: catalogRows([]string{"C1", "x", "Glazed Flat-Plate", "Acme"})}

	_, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	var rse *domain.RowShapeError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, domain.RowWidth, rse.Want)
	assert.Empty(t, builder.appended)
}

func TestPipeline_Run_ShortTubularRowIsSkipped(t *testing.T) {
	builder := &mockBuilder{}
	src := &sliceSource{rows: catalogRows([]string{"T1", "x", "Tubular"})}

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Unsupported)
}

func TestPipeline_Run_ParseErrorAborts(t *testing.T) {
	builder := &mockBuilder{}
	src := &sliceSource{rows: catalogRows(
		dataRow("C1", "Glazed Flat-Plate", "n/a"),
		dataRow("C2", "Glazed Flat-Plate", "500"),
	)}

	_, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrParse))

	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Position)
	assert.Equal(t, "n/a", pe.Value)
	assert.Equal(t, []string{"version", "persist"}, builder.calls)
}

func TestPipeline_Run_SchemaMismatchAborts(t *testing.T) {
	builder, _, _ := openDeck(t)
	src := &sliceSource{rows: catalogRows(
		dataRow("Enerpanel, Mk II", "Glazed Flat-Plate", "500"),
	)}

	_, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	var fe *idf.FieldTypeError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Name", fe.Field)
	assert.Equal(t, 0, builder.Len())
}

func TestPipeline_Run_UnknownClassAborts(t *testing.T) {
	builder, _, _ := openDeck(t)
	src := &sliceSource{rows: catalogRows(dataRow("C1", "Glazed Flat-Plate", "500"))}

	p := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting(),
		pipeline.WithClass("SolarCollectorPerformance:PhotovoltaicThermal"))
	_, err := p.Run(context.Background())
	var uc *idf.UnknownClassError
	require.ErrorAs(t, err, &uc)
}

func TestPipeline_Run_SourceError(t *testing.T) {
	readErr := errors.New("disk on fire")
	builder := &mockBuilder{}
	src := &sliceSource{rows: headerRows(), err: readErr}

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.ErrorIs(t, err, readErr)
	assert.Equal(t, 3, sum.Rows)
	assert.Equal(t, []string{"version", "persist"}, builder.calls)
}

func TestPipeline_Run_BuilderFailures(t *testing.T) {
	boom := errors.New("boom")
	rows := catalogRows(dataRow("C1", "Glazed Flat-Plate", "500"))

	tests := []struct {
		name    string
		builder *mockBuilder
		calls   []string
	}{
		{name: "version marker", builder: &mockBuilder{versionErr: boom}, calls: []string{"version"}},
		{name: "persist", builder: &mockBuilder{persistErr: boom}, calls: []string{"version", "persist"}},
		{name: "append", builder: &mockBuilder{appendErr: boom}, calls: []string{"version", "persist", "append:C1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &sliceSource{rows: rows}
			_, err := pipeline.New(src, tt.builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
			require.ErrorIs(t, err, boom)
			assert.Equal(t, tt.calls, tt.builder.calls)
		})
	}
}

func TestPipeline_Run_PublishesAfterPersist(t *testing.T) {
	builder := &mockBuilder{}
	loader := &mockLoader{}
	src := &sliceSource{rows: catalogRows(
		dataRow("C1", "Glazed Flat-Plate", "500"),
		dataRow("T1", "Tubular", "500"),
		dataRow("C2", "Glazed Flat-Plate", "250"),
	)}
	metrics := observability.NewMetricsForTesting()

	sum, err := pipeline.New(src, builder, discardLogger(), metrics, pipeline.WithLoader(loader)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, loader.loaded, 2)
	assert.Equal(t, "C1", loader.loaded[0].Name)
	assert.Equal(t, "C2", loader.loaded[1].Name)
	assert.Equal(t, 2, sum.Published)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RecordsPublished), 0)
}

func TestPipeline_Run_PublishFailure(t *testing.T) {
	builder := &mockBuilder{}
	loader := &mockLoader{err: errors.New("broker unavailable")}
	src := &sliceSource{rows: catalogRows(dataRow("C1", "Glazed Flat-Plate", "500"))}

	sum, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting(), pipeline.WithLoader(loader)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish 1 records")
	assert.Equal(t, 1, sum.Accepted)
	assert.Zero(t, sum.Published)
	assert.Equal(t, "persist", builder.calls[len(builder.calls)-1], "document is written before publishing")
}

func TestPipeline_Run_NothingToPublish(t *testing.T) {
	loader := &mockLoader{err: errors.New("must not be called")}
	src := &sliceSource{rows: headerRows()}

	_, err := pipeline.New(src, &mockBuilder{}, discardLogger(), observability.NewMetricsForTesting(), pipeline.WithLoader(loader)).Run(context.Background())
	require.NoError(t, err)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	builder := &mockBuilder{}
	src := &sliceSource{rows: catalogRows(dataRow("C1", "Glazed Flat-Plate", "500"))}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.next)
}

func TestPipeline_Run_Duration(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2017, time.June, 1, 12, 0, 0, 0, time.UTC))
	src := &sliceSource{
		rows:   catalogRows(dataRow("C1", "Glazed Flat-Plate", "500")),
		onNext: func() { clock.Advance(250 * time.Millisecond) },
	}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(src, &mockBuilder{}, discardLogger(), metrics, pipeline.WithClock(clock))
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	// four rows plus the final io.EOF
	assert.Equal(t, 1250*time.Millisecond, sum.Duration)
	assert.InDelta(t, 1.25, testutil.ToFloat64(metrics.RunDuration), 1e-9)
	assert.InDelta(t, float64(clock.Now().Unix()), testutil.ToFloat64(metrics.LastSuccess), 0)
}

func TestPipeline_Run_IdempotentPersist(t *testing.T) {
	builder, _, path := openDeck(t)
	src := &sliceSource{rows: catalogRows(dataRow("C1", "Glazed Flat-Plate", "500"))}

	_, err := pipeline.New(src, builder, discardLogger(), observability.NewMetricsForTesting()).Run(context.Background())
	require.NoError(t, err)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, builder.Persist())
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
