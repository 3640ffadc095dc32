package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	errNotFinite = errors.New("value is not finite")
	errHex       = errors.New("hexadecimal notation is not accepted")
)

// ParseCatalogRow names the positional fields of an eligible row.
func ParseCatalogRow(position int, fields []string) (CatalogRow, error) {
	if len(fields) < RowWidth {
		return CatalogRow{}, &RowShapeError{Position: position, Got: len(fields), Want: RowWidth}
	}
	return CatalogRow{
		Position:      position,
		Name:          fields[ColName],
		CollectorType: fields[ColCollectorType],
		TestFlow:      fields[ColTestFlow],
		GrossArea:     fields[ColGrossArea],
		FRTauAlpha:    fields[ColFRTauAlpha],
		FRUL:          fields[ColFRUL],
		IAM:           fields[ColIAM],
	}, nil
}

// MapPerformance converts a catalog row into its performance record. Only the
// test flow rate is parsed; the remaining columns pass through unchanged.
func MapPerformance(row CatalogRow) (CollectorPerformance, error) {
	flow, err := parseTestFlow(row.TestFlow)
	if err != nil {
		return CollectorPerformance{}, &ParseError{
			Position: row.Position,
			Field:    "test flow rate",
			Value:    row.TestFlow,
			Err:      err,
		}
	}

	return CollectorPerformance{
		Name:                      row.Name,
		GrossArea:                 row.GrossArea,
		TestFluid:                 TestFluid,
		TestFlowRate:              flow / FlowRateDivisor,
		TestCorrelationType:       TestCorrelationType,
		EfficiencyCoefficient1:    row.FRTauAlpha,
		EfficiencyCoefficient2:    row.FRUL,
		EfficiencyCoefficient3:    0,
		IncidentAngleCoefficient2: row.IAM,
		IncidentAngleCoefficient3: 0,
		Position:                  row.Position,
	}, nil
}

// Transform classifies a raw row and maps it when eligible. The record is
// only set when the returned class is ClassEligible.
func Transform(position int, fields []string) (CollectorPerformance, Class, error) {
	class, err := Classify(position, fields)
	if err != nil || class != ClassEligible {
		return CollectorPerformance{}, class, err
	}
	row, err := ParseCatalogRow(position, fields)
	if err != nil {
		return CollectorPerformance{}, class, err
	}
	rec, err := MapPerformance(row)
	return rec, class, err
}

func parseTestFlow(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, errHex
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
