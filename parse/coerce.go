package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// =========================
// Scalar Coercion
// =========================

var (
	intToken   = regexp.MustCompile(`^-?\d+$`)
	floatToken = regexp.MustCompile(`^-?\d*\.\d+$`)
)

// Coerce maps a raw unquoted token to a typed scalar. It is total:
// anything that is not a boolean literal or a number falls through to a
// string, trimmed of surrounding whitespace only.
//
// Precedence, in order: case-insensitive true/false, integer, fraction
// (a leading bare ".5" is accepted), string. Downstream consumers rely on
// booleans short-circuiting before the numeric checks.
func Coerce(token string) Node {
	t := strings.TrimSpace(token)
	if strings.EqualFold(t, "true") {
		return Bool(true)
	}
	if strings.EqualFold(t, "false") {
		return Bool(false)
	}
	if intToken.MatchString(t) {
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return Number(float64(i))
		}
		f, _ := strconv.ParseFloat(t, 64)
		return Number(f)
	}
	if floatToken.MatchString(t) {
		f, _ := strconv.ParseFloat(t, 64)
		return Number(f)
	}
	return String(t)
}

// FormatNumber renders a number the way both serializers print it:
// integral values without a decimal point, other finite values as plain
// decimals. Exponent notation is never used for finite values because
// Coerce would read it back as a string.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
