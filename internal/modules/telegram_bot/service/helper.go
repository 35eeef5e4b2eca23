package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

func onOff(v bool) string {
	if v {
		return "Paused"
	}
	return "Running"
}

// money 1234567.891 → "1,234,567.89"
func money(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func qty(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func pct(part, base float64) float64 {
	if base == 0 {
		return 0
	}
	return part / base * 100
}
