package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseViewCount converts a human readable view count such as "1.1K viewers",
// "2,3M" or "950 spectators" into an integer. Only the first token is
// considered, ',' is treated as a decimal separator.
func ParseViewCount(views string) (int64, error) {
	fields := strings.Fields(views)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrMalformedViews)
	}
	token := strings.ToUpper(fields[0])
	token = strings.ReplaceAll(token, ",", ".")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(token, "K"):
		multiplier = 1_000
		token = strings.TrimSuffix(token, "K")
	case strings.HasSuffix(token, "M"):
		multiplier = 1_000_000
		token = strings.TrimSuffix(token, "M")
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil || value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("%w '%s'", ErrMalformedViews, views)
	}
	if multiplier == 1 && value != math.Trunc(value) {
		return 0, fmt.Errorf("%w '%s'", ErrMalformedViews, views)
	}
	scaled := math.Round(value * multiplier)
	if scaled >= math.MaxInt64 {
		return 0, fmt.Errorf("%w '%s': out of range", ErrMalformedViews, views)
	}
	return int64(scaled), nil
}
