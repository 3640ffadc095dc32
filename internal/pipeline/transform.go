package pipeline

import (
	"fmt"

	"github.com/couchcryptid/solar-collector-etl/internal/catalog"
	"github.com/couchcryptid/solar-collector-etl/internal/domain"
)

// transformRow classifies a catalog row and, for eligible rows, maps it to a
// performance record. Errors carry the source line of the row.
func transformRow(row catalog.Row) (domain.CollectorPerformance, domain.Class, error) {
	rec, class, err := domain.Transform(row.Position, row.Fields)
	if err != nil {
		return domain.CollectorPerformance{}, class, fmt.Errorf("catalog line %d: %w", row.Line, err)
	}
	return rec, class, nil
}
