package domain

// Column positions in a catalog row.
const (
	ColName          = 0
	ColCollectorType = 2
	ColTestFlow      = 4
	ColGrossArea     = 5
	ColFRTauAlpha    = 6
	ColFRUL          = 7
	ColIAM           = 8

	// RowWidth is the minimum field count of a row that can be transformed.
	RowWidth = ColIAM + 1
)

// HeaderRows is the number of leading metadata rows in every catalog.
const HeaderRows = 3

// TubularType is the collector type tag excluded from conversion.
const TubularType = "Tubular"

// Fixed values written to every performance record.
const (
	TestFluid           = "Water"
	TestCorrelationType = "Inlet"

	// FlowRateDivisor converts the catalog test flow rate to m3/s.
	FlowRateDivisor = 1000.0
)

// CatalogRow is an eligible catalog row addressed by name instead of position.
type CatalogRow struct {
	Position      int
	Name          string
	CollectorType string
	TestFlow      string
	GrossArea     string
	FRTauAlpha    string
	FRUL          string
	IAM           string
}

// CollectorPerformance is the flat plate performance record for one product.
// Pass-through coefficients keep the catalog text; computed values are numbers.
type CollectorPerformance struct {
	Name                string  `json:"name"`
	GrossArea           string  `json:"gross_area"`
	TestFluid           string  `json:"test_fluid"`
	TestFlowRate        float64 `json:"test_flow_rate"`
	TestCorrelationType string  `json:"test_correlation_type"`

	EfficiencyCoefficient1 string  `json:"efficiency_coefficient_1"`
	EfficiencyCoefficient2 string  `json:"efficiency_coefficient_2"`
	EfficiencyCoefficient3 float64 `json:"efficiency_coefficient_3"`

	IncidentAngleCoefficient2 string  `json:"incident_angle_coefficient_2"`
	IncidentAngleCoefficient3 float64 `json:"incident_angle_coefficient_3"`

	// Position is the catalog row the record came from.
	Position int `json:"catalog_row"`
}
