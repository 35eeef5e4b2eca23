package models

import "time"

// Position открытая позиция по инструменту. Принадлежит сессии инструмента.
type Position struct {
	Instrument string    `json:"instrument"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	Quantity   float64   `json:"quantity"`
	TakeProfit float64   `json:"take_profit"`
	StopLoss   float64   `json:"stop_loss"`
	OrderID    string    `json:"order_id"`
	Broker     string    `json:"broker"`
}

// UnrealizedPnL оценка по последней цене без комиссий.
func (p Position) UnrealizedPnL(last float64) float64 {
	return float64(p.Direction) * (last - p.EntryPrice) * p.Quantity
}
