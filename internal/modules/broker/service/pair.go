package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"failover_trader/internal/models"

	"github.com/google/uuid"
)

const pairFillBuffer = 256

// fillDrainer адаптеры, исполнения которых забирает сам прогон (Simulated).
type fillDrainer interface {
	DrainFills(at time.Time) []models.Fill
}

// Pair связывает Failover с настроенными primary/backup и помнит,
// какой брокер принял ордер: отмена идёт туда же.
// REST-брокеры не присылают исполнений, для них принятый ордер
// подтверждается по RefPrice сразу после ack.
type Pair struct {
	failover   *Failover
	primary    Adapter
	backup     Adapter
	maxRetries int

	mu       sync.Mutex
	placedBy map[string]Adapter

	fills chan models.Fill
	once  sync.Once
}

func NewPair(f *Failover, primary, backup Adapter, maxRetries int) *Pair {
	return &Pair{
		failover:   f,
		primary:    primary,
		backup:     backup,
		maxRetries: maxRetries,
		placedBy:   make(map[string]Adapter),
		fills:      make(chan models.Fill, pairFillBuffer),
	}
}

// Fills общий канал исполнений обоих брокеров.
func (p *Pair) Fills() <-chan models.Fill { return p.fills }

// Run пересылает исполнения FillSource-адаптеров в общий канал до отмены ctx.
// Повторный вызов ничего не делает.
func (p *Pair) Run(ctx context.Context) {
	p.once.Do(func() {
		for _, a := range p.Adapters() {
			src, ok := a.(FillSource)
			if !ok {
				continue
			}
			go p.forward(ctx, src.Fills())
		}
	})
}

func (p *Pair) forward(ctx context.Context, in <-chan models.Fill) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-in:
			if !ok {
				return
			}
			select {
			case p.fills <- f:
			case <-ctx.Done():
				return
			}
		}
	}
}

func confirmsOnAck(a Adapter) bool {
	if _, ok := a.(FillSource); ok {
		return false
	}
	if _, ok := a.(fillDrainer); ok {
		return false
	}
	return true
}

func (p *Pair) pushFill(f models.Fill) {
	select {
	case p.fills <- f:
	default:
		// вызывающий может сам держать читателя канала, не блокируемся
		go func() { p.fills <- f }()
	}
}

func (p *Pair) Dispatch(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	if req.ClientID == "" {
		req.ClientID = uuid.NewString()
	}
	var (
		res models.OrderResult
		err error
	)
	if req.Broker != "" {
		a, role, ok := p.adapter(req.Broker)
		if !ok {
			return models.OrderResult{}, fmt.Errorf("%w: %q", ErrUnknownBroker, req.Broker)
		}
		res, err = p.failover.DispatchTo(ctx, req, a, role, p.maxRetries)
	} else {
		res, err = p.failover.Dispatch(ctx, req, p.primary, p.backup, p.maxRetries)
	}
	if err != nil {
		return res, err
	}

	a := p.primary
	if res.Role == models.RoleBackup {
		a = p.backup
	}
	p.mu.Lock()
	p.placedBy[res.OrderID] = a
	p.mu.Unlock()

	if confirmsOnAck(a) {
		p.pushFill(models.Fill{
			OrderID:    res.OrderID,
			Instrument: req.Instrument,
			Price:      req.RefPrice,
			Quantity:   req.Quantity,
			Time:       time.Now(),
		})
	}
	return res, nil
}

func (p *Pair) Cancel(ctx context.Context, orderID string) error {
	p.mu.Lock()
	a, ok := p.placedBy[orderID]
	p.mu.Unlock()
	if !ok {
		return ErrUnknownOrder
	}

	cctx, cancel := context.WithTimeout(ctx, p.failover.timeout)
	defer cancel()
	if err := a.CancelOrder(cctx, orderID); err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.placedBy, orderID)
	p.mu.Unlock()
	return nil
}

// adapter брокер пары по имени и его роль.
func (p *Pair) adapter(name string) (Adapter, models.BrokerRole, bool) {
	if p.primary != nil && p.primary.Name() == name {
		return p.primary, models.RolePrimary, true
	}
	if p.backup != nil && p.backup.Name() == name {
		return p.backup, models.RoleBackup, true
	}
	return nil, "", false
}

// Adapters настроенные адаптеры, primary первым.
func (p *Pair) Adapters() []Adapter {
	out := []Adapter{}
	if p.primary != nil {
		out = append(out, p.primary)
	}
	if p.backup != nil {
		out = append(out, p.backup)
	}
	return out
}
