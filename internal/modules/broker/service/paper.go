package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"failover_trader/internal/models"

	"github.com/google/uuid"
)

// Paper асинхронный бумажный брокер: исполнение приходит в канал Fills
// через latency после приёма ордера.
type Paper struct {
	name    string
	latency time.Duration
	fills   chan models.Fill

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   map[string]bool
}

func NewPaper(name string, latency time.Duration, buffer int) *Paper {
	if buffer <= 0 {
		buffer = 64
	}
	return &Paper{
		name:    name,
		latency: latency,
		fills:   make(chan models.Fill, buffer),
		timers:  make(map[string]*time.Timer),
		done:    make(map[string]bool),
	}
}

func (p *Paper) Name() string              { return p.name }
func (p *Paper) Fills() <-chan models.Fill { return p.fills }

func (p *Paper) PlaceBracketOrder(ctx context.Context, req models.OrderRequest) (models.OrderAck, error) {
	if err := ctx.Err(); err != nil {
		return models.OrderAck{}, err
	}
	if req.Quantity <= 0 || req.RefPrice <= 0 {
		return models.OrderAck{}, fmt.Errorf("%s: invalid order qty=%v px=%v", p.name, req.Quantity, req.RefPrice)
	}

	id := p.name + "-" + uuid.NewString()
	fill := models.Fill{
		OrderID:    id,
		Instrument: req.Instrument,
		Price:      req.RefPrice,
		Quantity:   req.Quantity,
	}

	p.mu.Lock()
	p.timers[id] = time.AfterFunc(p.latency, func() {
		p.mu.Lock()
		if _, ok := p.timers[id]; !ok {
			p.mu.Unlock()
			return
		}
		delete(p.timers, id)
		p.done[id] = true
		p.mu.Unlock()

		fill.Time = time.Now()
		p.fills <- fill
	})
	p.mu.Unlock()

	return models.OrderAck{OrderID: id, Broker: p.name}, nil
}

func (p *Paper) CancelOrder(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done[orderID] {
		return ErrAlreadyFilled
	}
	t, ok := p.timers[orderID]
	if !ok {
		return ErrUnknownOrder
	}
	t.Stop()
	delete(p.timers, orderID)
	return nil
}
