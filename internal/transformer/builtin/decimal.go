package builtin

import (
	"math"
	"strconv"
	"strings"
)

var numberSpaces = strings.NewReplacer("\u00a0", "", "\u202f", "", " ", "", "\t", "")

// ParseDecimal parses a number written with either decimal convention.
// Spaces and NBSP are removed. When both '.' and ',' occur the last one is
// the decimal separator and the other groups thousands; a lone ',' is a
// decimal comma; repeated identical separators group thousands. NaN and
// infinities are rejected.
func ParseDecimal(s string) (float64, bool) {
	s = numberSpaces.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseCount parses a non-negative count. Fractional values are truncated
// ("2.0" and "2,7" are 2); negative or out-of-range values are rejected.
func ParseCount(s string) (int, bool) {
	f, ok := ParseDecimal(s)
	if !ok || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
