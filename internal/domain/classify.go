package domain

// Class is the outcome of classifying a catalog row.
type Class int

const (
	ClassHeader Class = iota
	ClassUnsupported
	ClassEligible
)

func (c Class) String() string {
	switch c {
	case ClassHeader:
		return "header"
	case ClassUnsupported:
		return "unsupported"
	case ClassEligible:
		return "eligible"
	default:
		return "unknown"
	}
}

// Classify decides what to do with the row at the given 0-based position.
// Header rows are recognised by position alone; later rows need at least the
// collector type column.
func Classify(position int, fields []string) (Class, error) {
	if position < HeaderRows {
		return ClassHeader, nil
	}
	if len(fields) <= ColCollectorType {
		return 0, &RowShapeError{Position: position, Got: len(fields), Want: ColCollectorType + 1}
	}
	if fields[ColCollectorType] == TubularType {
		return ClassUnsupported, nil
	}
	return ClassEligible, nil
}
