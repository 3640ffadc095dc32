// Command validate cross-checks a generated IDF against the catalog it was
// built from. It re-derives the expected performance records from the
// catalog, parses the IDF with the same schema dictionary, and verifies
// document structure, record counts, and field values.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -catalog data/mock/srcc_catalog_2017.csv \
//	  -idf data/mock/SolarCollectors2017.idf \
//	  -idd-dir internal/idd/testdata
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/solar-collector-etl/internal/catalog"
	"github.com/couchcryptid/solar-collector-etl/internal/deck"
	"github.com/couchcryptid/solar-collector-etl/internal/domain"
	"github.com/couchcryptid/solar-collector-etl/internal/idd"
	"github.com/couchcryptid/solar-collector-etl/internal/idf"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	catalogPath := flag.String("catalog", "", "SRCC catalog CSV the IDF was generated from")
	idfPath := flag.String("idf", "", "generated IDF file")
	iddDir := flag.String("idd-dir", "", "directory containing Energy+.idd")
	flag.Parse()

	if *catalogPath == "" || *idfPath == "" || *iddDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*catalogPath, *idfPath, *iddDir, os.Stdout, os.Stderr))
}

func run(catalogPath, idfPath, iddDir string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "=== Solar Collector IDF Validation ===")
	fmt.Fprintln(stdout)

	// ── Load inputs ──
	dict, err := idd.Load(iddDir)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load schema dictionary: %v\n", err)
		return 1
	}

	rows, err := catalog.ReadAll(catalogPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	f, err := os.Open(idfPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: open IDF: %v\n", err)
		return 1
	}
	doc := idf.New(dict)
	err = doc.Parse(f)
	_ = f.Close()
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: parse IDF: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	classify, expected := validateCatalog(stdout, rows)
	phases := []*phase{
		classify,
		validateStructure(doc),
		validateRecords(doc, expected),
	}

	// ── Report results ──
	fmt.Fprintln(stdout)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Records: %d catalog rows, %d expected objects, %d IDF objects\n",
		len(rows), len(expected), len(doc.ObjectsOf(deck.FlatPlateClass)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: catalog ──

// validateCatalog classifies every row and maps the eligible ones. Rows that
// would abort a conversion are reported rather than stopping validation.
func validateCatalog(w io.Writer, rows []catalog.Row) (*phase, []domain.CollectorPerformance) {
	p := &phase{name: "Catalog rows classify and map"}
	var expected []domain.CollectorPerformance
	counts := map[domain.Class]int{}

	for _, row := range rows {
		rec, class, err := domain.Transform(row.Position, row.Fields)
		if err != nil {
			p.errorf("line %d: %v", row.Line, err)
			continue
		}
		counts[class]++
		if class == domain.ClassEligible {
			expected = append(expected, rec)
		}
	}

	fmt.Fprintf(w, "  catalog: %d header, %d unsupported, %d eligible\n",
		counts[domain.ClassHeader], counts[domain.ClassUnsupported], counts[domain.ClassEligible])
	return p, expected
}

// ── Phase 2: document structure ──

func validateStructure(doc *idf.Document) *phase {
	p := &phase{name: "IDF structure (Version first, flat plate only)"}
	objs := doc.Objects()
	if len(objs) == 0 {
		p.errorf("document is empty")
		return p
	}
	if !strings.EqualFold(objs[0].Class(), deck.VersionClass) {
		p.errorf("first object is %s, want %s", objs[0].Class(), deck.VersionClass)
	}
	if n := len(doc.ObjectsOf(deck.VersionClass)); n != 1 {
		p.errorf("found %d %s objects, want 1", n, deck.VersionClass)
	}
	for i, o := range objs[1:] {
		if !strings.EqualFold(o.Class(), deck.FlatPlateClass) {
			p.errorf("object %d is %s", i+2, o.Class())
		}
	}
	return p
}

// ── Phase 3: record parity ──

func validateRecords(doc *idf.Document, expected []domain.CollectorPerformance) *phase {
	p := &phase{name: "Record parity with catalog"}
	objs := doc.ObjectsOf(deck.FlatPlateClass)
	if len(objs) != len(expected) {
		p.errorf("IDF has %d %s objects, catalog yields %d", len(objs), deck.FlatPlateClass, len(expected))
	}

	for i := 0; i < min(len(objs), len(expected)); i++ {
		want := expected[i]
		for _, f := range deck.Fields(want) {
			got, ok := objs[i].Get(f.Name)
			if !ok {
				p.errorf("%s: field %q not declared", want.Name, f.Name)
				continue
			}
			if !sameValue(got, f.Value) {
				p.errorf("%s (catalog row %d): %s = %q, want %q", want.Name, want.Position, f.Name, got.String(), f.Value.String())
			}
		}
	}
	return p
}

// sameValue compares numerically when both sides parse as numbers, so that
// equivalent renderings ("0.5" and "5e-01") match.
func sameValue(got, want idf.Value) bool {
	a, errA := got.Float()
	b, errB := want.Float()
	if errA == nil && errB == nil {
		return a == b || math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
	}
	return strings.TrimSpace(got.String()) == strings.TrimSpace(want.String())
}
