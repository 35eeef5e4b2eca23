package router

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"failover_trader/internal/models"
	"failover_trader/internal/runner/sessions"

	"go.uber.org/zap"
)

const defaultInboxSize = 1024

var ErrUnknownInstrument = errors.New("instrument not routed")

type item struct {
	bar  *models.Bar
	snap models.IndicatorSnapshot
	fill *models.Fill
}

// actor одна горутина на инструмент, разбирает бары и исполнения по порядку прихода.
type actor struct {
	sess   *sessions.Session
	inbox  chan item
	cancel context.CancelFunc
	done   chan struct{}
}

// Router хранит сессии инструментов и раздаёт им бары и исполнения.
type Router struct {
	mu     sync.RWMutex
	actors map[string]*actor

	log       *zap.Logger
	inboxSize int
	paused    atomic.Bool
}

func NewRouter(log *zap.Logger, inboxSize int) *Router {
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}
	return &Router{
		actors:    make(map[string]*actor),
		log:       log.Named("router"),
		inboxSize: inboxSize,
	}
}

// Session сессия инструмента, если он маршрутизируется.
func (r *Router) Session(instrument string) (*sessions.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[instrument]
	if !ok {
		return nil, false
	}
	return a.sess, true
}

// Instruments включённые инструменты.
func (r *Router) Instruments() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.actors))
	for k := range r.actors {
		out = append(out, k)
	}
	return out
}

// Pause перестаёт принимать новые бары. Исполнения продолжают доходить.
func (r *Router) Pause() {
	if !r.paused.Swap(true) {
		r.log.Warn("bar routing paused")
	}
}

func (r *Router) Unpause() {
	if r.paused.Swap(false) {
		r.log.Info("bar routing resumed")
	}
}

func (r *Router) Paused() bool { return r.paused.Load() }

func (a *actor) run(ctx context.Context, log *zap.Logger) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-a.inbox:
			switch {
			case it.bar != nil:
				if err := a.sess.OnBar(ctx, *it.bar, it.snap); err != nil {
					log.Warn("bar rejected", zap.Time("bar", it.bar.Time), zap.Error(err))
				}
			case it.fill != nil:
				if err := a.sess.OnFill(ctx, *it.fill); err != nil {
					log.Error("fill rejected",
						zap.String("order_id", it.fill.OrderID),
						zap.Float64("price", it.fill.Price),
						zap.Error(err),
					)
				}
			}
		}
	}
}
