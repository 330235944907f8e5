package ingest

import (
	"errors"
	"math"
	"strconv"

	"github.com/vortexdb/colexec/vector"
)

var errNotABool = errors.New("ingest: not a bool")

// isNull treats an empty field as NULL, the same rule smda's loader uses -
// no custom null sentinels (NA, N/A, ...) are recognized here.
func isNull(s string) bool {
	return len(s) == 0
}

func parseBool(s string) (bool, error) {
	switch s {
	case "t", "T", "true", "TRUE":
		return true, nil
	case "f", "F", "false", "FALSE":
		return false, nil
	default:
		return false, errNotABool
	}
}

// typeGuesser accumulates one column's worth of raw field values and
// settles on a single dtype for it, the same two-phase (guess-per-value,
// then settle) shape as smda's typeGuesser: bool beats int beats float
// beats string, and a column that mixes only Int/Float settles on Float.
type typeGuesser struct {
	nullable    bool
	sawBool     int
	sawInt      int
	sawFloat    int
	sawString   int
	nrows       int
	fitsInInt32 bool
}

func newTypeGuesser() *typeGuesser {
	return &typeGuesser{fitsInInt32: true}
}

func (tg *typeGuesser) addValue(s string) {
	tg.nrows++
	if isNull(s) {
		tg.nullable = true
		return
	}
	if _, err := parseBool(s); err == nil {
		tg.sawBool++
		return
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		tg.sawInt++
		if n < math.MinInt32 || n > math.MaxInt32 {
			tg.fitsInInt32 = false
		}
		return
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		tg.sawFloat++
		return
	}
	tg.sawString++
}

// inferredDtype settles the column's dtype: a single guessed kind wins
// outright; a mix of Int and Float (and nothing else) settles on Float64,
// since a downcast wouldn't be safe; any String or mixed-with-Bool
// observation settles on String, the same "give up and keep it as text"
// fallback smda's typeGuesser applies.
func (tg *typeGuesser) inferredDtype() vector.Dtype {
	switch {
	case tg.sawString > 0:
		return vector.DtypeString
	case tg.sawBool > 0 && (tg.sawInt > 0 || tg.sawFloat > 0):
		return vector.DtypeString
	case tg.sawBool > 0:
		return vector.DtypeBool
	case tg.sawFloat > 0:
		return vector.DtypeFloat64
	case tg.sawInt > 0:
		if tg.fitsInInt32 {
			return vector.DtypeInt32
		}
		return vector.DtypeInt64
	default:
		// every value in the column was NULL; default to a nullable string
		// rather than fail the whole load over an empty column.
		return vector.DtypeString
	}
}
