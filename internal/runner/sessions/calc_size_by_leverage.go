package sessions

import (
	"math"

	"failover_trader/internal/models"
)

// CalcSizeByLeverage floor(cash*leverage/price). Вырожденные входы дают 0.
func CalcSizeByLeverage(cash, price, leverage float64) float64 {
	if price <= 0 || cash <= 0 || leverage <= 0 {
		return 0
	}
	return math.Floor(cash * leverage / price)
}

// BracketLevels тейк и стоп от цены входа.
func BracketLevels(dir models.Direction, entry float64, p models.StrategyParams) (takeProfit, stopLoss float64) {
	if dir == models.Short {
		return entry * (1 - p.TakeProfitPct), entry * (1 + p.StopLossPct)
	}
	return entry * (1 + p.TakeProfitPct), entry * (1 - p.StopLossPct)
}

// NetProfit прибыль после комиссии с обеих сторон: gross − rate*(entry+current)*qty.
func NetProfit(dir models.Direction, entry, current, qty, rate float64) (gross, commission, net float64) {
	if dir == models.Short {
		gross = (entry - current) * qty
	} else {
		gross = (current - entry) * qty
	}
	commission = rate * (entry + current) * qty
	return gross, commission, gross - commission
}

// ExitAllowed шлюз комиссии для выхода по развороту тренда.
func ExitAllowed(dir models.Direction, entry, current, qty, rate float64) bool {
	_, _, net := NetProfit(dir, entry, current, qty, rate)
	return net > 0
}
