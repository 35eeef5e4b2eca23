package models

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// EntrySide сторона ордера, открывающего позицию направления d.
func EntrySide(d Direction) Side {
	if d == Short {
		return SideSell
	}
	return SideBuy
}

// ExitSide сторона ордера, закрывающего позицию направления d.
func ExitSide(d Direction) Side {
	if d == Short {
		return SideBuy
	}
	return SideSell
}

// OrderRequest неизменяемый запрос, счётчик попыток в нём не хранится.
type OrderRequest struct {
	ClientID    string
	Instrument  string
	Side        Side
	Quantity    float64
	TargetPrice float64
	StopPrice   float64
	RefPrice    float64
	ReduceOnly  bool
	// непустой Broker: ордер только этому брокеру, без failover (выходы из позиции)
	Broker      string
}

// OrderAck ответ адаптера на принятый ордер.
type OrderAck struct {
	OrderID string
	Broker  string
}

// OrderResult итог диспетчеризации через failover.
type OrderResult struct {
	OrderID  string
	Broker   string
	Role     BrokerRole
	Attempts int
}

// Fill подтверждение исполнения ордера.
type Fill struct {
	OrderID    string    `json:"order_id"`
	Instrument string    `json:"instrument"`
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	Time       time.Time `json:"time"`
}
