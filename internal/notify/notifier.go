package notify

import (
	"context"
	"sync"

	"failover_trader/internal/metrics"
	"failover_trader/internal/models"

	"go.uber.org/zap"
)

const defaultBuffer = 256

// Sink получатель торговых событий. Deliver может блокировать,
// Dispatcher вызывает его из своей горутины.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev models.TradeEvent) error
}

// Dispatcher неблокирующая очередь событий перед медленными получателями
// (Telegram, Redis). При переполнении событие отбрасывается и считается в метрике.
type Dispatcher struct {
	queue   chan models.TradeEvent
	log     *zap.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	sinks []Sink

	done chan struct{}
}

func NewDispatcher(log *zap.Logger, m *metrics.Metrics, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Dispatcher{
		queue:   make(chan models.TradeEvent, buffer),
		log:     log.Named("notify"),
		metrics: m,
		done:    make(chan struct{}),
	}
}

func (d *Dispatcher) Register(s Sink) {
	d.mu.Lock()
	d.sinks = append(d.sinks, s)
	d.mu.Unlock()
}

// Emit никогда не блокирует вызывающего.
func (d *Dispatcher) Emit(ev models.TradeEvent) {
	select {
	case d.queue <- ev:
	default:
		d.metrics.EventsDropped.Inc()
		d.log.Warn("event queue full, event dropped",
			zap.String("type", string(ev.Type)),
			zap.String("instrument", ev.Instrument),
		)
	}
}

// Run доставляет события до отмены ctx. Оставшиеся в очереди события
// при остановке не доставляются.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		}
	}
}

// Done закрывается, когда Run вышел.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) deliver(ctx context.Context, ev models.TradeEvent) {
	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Deliver(ctx, ev); err != nil {
			d.log.Error("event delivery failed",
				zap.String("sink", s.Name()),
				zap.String("type", string(ev.Type)),
				zap.Error(err),
			)
		}
	}
}
