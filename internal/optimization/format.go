package optimization

import (
	"math"
	"strconv"
	"strings"
)

// FormatPoint renders x as a bracketed, comma separated list with six
// significant digits, e.g. [1.23457, -4.5, 0, 9.99, -10]. Non-finite
// coordinates print as nan, inf and -inf.
func FormatPoint(x []float64) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range x {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch {
		case math.IsNaN(v):
			sb.WriteString("nan")
		case math.IsInf(v, 1):
			sb.WriteString("inf")
		case math.IsInf(v, -1):
			sb.WriteString("-inf")
		default:
			sb.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
