package service

import (
	"context"
	"errors"

	"failover_trader/internal/models"
)

var (
	ErrUnknownOrder      = errors.New("unknown order")
	ErrAlreadyFilled     = errors.New("order already filled")
	ErrUnknownBrokerKind = errors.New("unknown broker kind")
	ErrUnknownBroker     = errors.New("broker not in pair")
)

// Adapter бэкенд исполнения. Реализации не делят код, ретраев внутри нет:
// ретраи и переключение делает Failover.
type Adapter interface {
	Name() string
	PlaceBracketOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// FillSource адаптеры, которые сами сообщают об исполнениях.
type FillSource interface {
	Fills() <-chan models.Fill
}
