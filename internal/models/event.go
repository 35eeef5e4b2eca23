package models

import "time"

type EventType string

const (
	EventEntryPlaced    EventType = "entry_placed"
	EventEntryFilled    EventType = "entry_filled"
	EventEntryAborted   EventType = "entry_aborted"
	EventEntryCancelled EventType = "entry_cancelled"
	EventExitPlaced     EventType = "exit_placed"
	EventExitFilled     EventType = "exit_filled"
	EventExitRejected   EventType = "exit_rejected"
)

// Причины выхода и отказов
const (
	ReasonStopLoss       = "stop_loss"
	ReasonTakeProfit     = "take_profit"
	ReasonTrendReversal  = "trend_reversal"
	ReasonManual         = "manual"
	ReasonCommissionGate = "commission_gate"
	ReasonDispatchFailed = "dispatch_failed"
)

// TradeEvent структурированное событие сделки для алертов.
type TradeEvent struct {
	Type       EventType `json:"type"`
	Instrument string    `json:"instrument"`
	Direction  Direction `json:"direction"`
	OrderID    string    `json:"order_id,omitempty"`
	Broker     string    `json:"broker,omitempty"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	ExitPrice  float64   `json:"exit_price,omitempty"`
	Quantity   float64   `json:"quantity,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	GrossPnL   float64   `json:"gross_pnl,omitempty"`
	NetPnL     float64   `json:"net_pnl,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Time       time.Time `json:"time"`
}
