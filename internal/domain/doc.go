// Package domain models SRCC solar collector catalog rows and the flat plate
// performance records derived from them.
//
// # Data Source
//
// The Solar Rating & Certification Corporation (SRCC) publishes its OG-100
// collector directory as a spreadsheet export. Saved as CSV, the file starts
// with catalog metadata and column titles, then holds one product per row.
//
// # Catalog Conventions
//
// Header rows:
//
//	Rows 0, 1 and 2 are always metadata or column titles and are never data,
//	whatever they contain.
//
// Columns (0-based, position addressed):
//
//	0  product name            e.g. "AE-21"
//	2  collector type tag      "FlatPlate", "Tubular", "ICS", ...
//	4  rated test flow rate    catalog units; divided by 1000 for the IDF
//	5  gross area              m2
//	6  FR(tau alpha)           efficiency equation intercept
//	7  FR UL                   efficiency equation slope, W/m2-K
//	8  incident angle modifier first-order coefficient
//
// Only the first nine columns are addressed; anything after column 8 is
// ignored.
//
// Collector types:
//
//	"Tubular" (exact, case-sensitive) marks evacuated-tube collectors. The
//	flat plate performance model does not describe them, so those rows are
//	excluded. Every other tag is treated as flat plate.
//
// # Performance Records
//
// Each eligible row becomes one SolarCollectorPerformance:FlatPlate object.
// Test fluid is always water, the correlation is inlet-temperature based, and
// the second-order coefficients the catalog does not publish are written as 0.
// Gross area and the coefficients pass through as text so the document keeps
// the catalog's own precision; only the flow rate is converted.
package domain
