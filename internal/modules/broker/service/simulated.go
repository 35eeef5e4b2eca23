package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"failover_trader/internal/models"
)

// Simulated детерминированный адаптер для бэктеста: ордер исполняется
// по RefPrice, исполнения копятся до DrainFills.
type Simulated struct {
	name string

	mu      sync.Mutex
	seq     int
	pending []models.Fill
	filled  map[string]bool
	failErr error
	calls   int
}

func NewSimulated(name string) *Simulated {
	return &Simulated{
		name:   name,
		filled: make(map[string]bool),
	}
}

func (s *Simulated) Name() string { return s.name }

// FailWith заставляет все следующие вызовы падать с err, nil снимает отказ.
func (s *Simulated) FailWith(err error) {
	s.mu.Lock()
	s.failErr = err
	s.mu.Unlock()
}

// Calls сколько раз вызывали PlaceBracketOrder.
func (s *Simulated) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Simulated) PlaceBracketOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if err := ctx.Err(); err != nil {
		return models.OrderAck{}, err
	}
	if s.failErr != nil {
		return models.OrderAck{}, s.failErr
	}
	if req.Quantity <= 0 {
		return models.OrderAck{}, fmt.Errorf("%s: quantity must be positive", s.name)
	}

	s.seq++
	id := fmt.Sprintf("%s-%d", s.name, s.seq)
	s.pending = append(s.pending, models.Fill{
		OrderID:    id,
		Instrument: req.Instrument,
		Price:      req.RefPrice,
		Quantity:   req.Quantity,
		Time:       time.Time{},
	})
	return models.OrderAck{OrderID: id, Broker: s.name}, nil
}

func (s *Simulated) CancelOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filled[orderID] {
		return ErrAlreadyFilled
	}
	for i, f := range s.pending {
		if f.OrderID == orderID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return ErrUnknownOrder
}

// DrainFills отдаёт накопленные исполнения, проставляя время бара.
func (s *Simulated) DrainFills(at time.Time) []models.Fill {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending
	s.pending = nil
	for i := range out {
		out[i].Time = at
		s.filled[out[i].OrderID] = true
	}
	return out
}
