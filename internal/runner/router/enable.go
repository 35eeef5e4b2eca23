package router

import (
	"context"

	"failover_trader/internal/runner/sessions"

	"go.uber.org/zap"
)

// Enable запускает актор для сессии. Повторное включение инструмента ничего не делает.
func (r *Router) Enable(parent context.Context, sess *sessions.Session) bool {
	r.mu.Lock()
	if _, ok := r.actors[sess.Instrument()]; ok {
		r.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	a := &actor{
		sess:   sess,
		inbox:  make(chan item, r.inboxSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.actors[sess.Instrument()] = a
	r.mu.Unlock()

	log := r.log.With(zap.String("instrument", sess.Instrument()))
	go a.run(ctx, log)
	log.Info("instrument enabled")
	return true
}

// Disable гасит актор и ждёт, пока он выйдет. Необработанные элементы inbox отбрасываются.
func (r *Router) Disable(instrument string) {
	r.mu.Lock()
	a, ok := r.actors[instrument]
	if ok {
		delete(r.actors, instrument)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	a.cancel()
	<-a.done
	r.log.Info("instrument disabled", zap.String("instrument", instrument))
}

// Stop выключает все инструменты.
func (r *Router) Stop() {
	for _, inst := range r.Instruments() {
		r.Disable(inst)
	}
}
