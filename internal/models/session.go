package models

import "time"

type PositionState string

const (
	StateFlat     PositionState = "FLAT"
	StateEntering PositionState = "ENTERING"
	StateOpen     PositionState = "OPEN"
	StateExiting  PositionState = "EXITING"
)

// SessionStatus снимок сессии инструмента для статуса и дашборда.
type SessionStatus struct {
	Instrument  string        `json:"instrument"`
	State       PositionState `json:"state"`
	Halted      bool          `json:"halted"`
	Position    *Position     `json:"position,omitempty"`
	PendingID   string        `json:"pending_order_id,omitempty"`
	Cash        float64       `json:"cash"`
	RealizedPnL float64       `json:"realized_pnl"`
	Trades      int           `json:"trades"`
	Wins        int           `json:"wins"`
	LastPrice   float64       `json:"last_price"`
	Bars        int           `json:"bars"`
	Updated     time.Time     `json:"updated"`
}
