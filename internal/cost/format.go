package cost

import (
	"strconv"
	"strings"
)

// FormatCost renders an amount with precision chosen by magnitude.
func FormatCost(amount float64) string {
	switch {
	case amount >= 1000:
		return Currency + groupThousands(strconv.FormatFloat(amount, 'f', 2, 64))
	case amount >= 1:
		return Currency + strconv.FormatFloat(amount, 'f', 2, 64)
	case amount >= 0.01:
		return Currency + strconv.FormatFloat(amount, 'f', 4, 64)
	default:
		return Currency + strconv.FormatFloat(amount, 'f', 6, 64)
	}
}

func groupThousands(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
