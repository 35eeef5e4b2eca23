package helper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatDecimal число для REST-тела без экспоненты и хвостовых нулей.
func FormatDecimal(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

// FormatQty количество целыми лотами.
func FormatQty(q float64) string {
	return decimal.NewFromFloat(q).Truncate(0).String()
}

// RoundToTick округляет цену к ближайшему шагу цены.
func RoundToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	t := decimal.NewFromFloat(tick)
	steps := decimal.NewFromFloat(px).Div(t).Round(0)
	f, _ := steps.Mul(t).Float64()
	return f
}

// ClientOrderID uuid без дефисов: OKX принимает только буквы и цифры до 32 символов.
func ClientOrderID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}
