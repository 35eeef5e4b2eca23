package service

import (
	"context"
	"fmt"
	"os"
	"sync"

	"failover_trader/internal/models"
	"failover_trader/internal/runner/sessions"

	"go.uber.org/zap"
)

// SessionLookup роутер, у которого берутся сессии для прогрева.
type SessionLookup interface {
	Session(instrument string) (*sessions.Session, bool)
}

type Warmuper struct {
	sessions SessionLookup
	log      *zap.Logger

	// ограничитель параллелизма
	sem chan struct{}
}

func NewWarmuper(s SessionLookup, log *zap.Logger) *Warmuper {
	return &Warmuper{
		sessions: s,
		log:      log.Named("warmup"),
		sem:      make(chan struct{}, 8),
	}
}

// WarmupFile прогревает сессии историей из CSV. Пустой путь ничего не делает.
func (w *Warmuper) WarmupFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open warmup file: %w", err)
	}
	defer f.Close()

	recs, err := ReadCSV(f)
	if err != nil {
		return 0, fmt.Errorf("warmup %s: %w", path, err)
	}
	return w.Warmup(ctx, GroupByInstrument(recs))
}

// Warmup заливает бары в сессии без оценки сигналов. Инструменты,
// которых нет в роутере, пропускаются. Возвращает число прогретых сессий.
func (w *Warmuper) Warmup(ctx context.Context, byInstrument map[string][]Record) (int, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		primed int
	)

	for inst, recs := range byInstrument {
		sess, ok := w.sessions.Session(inst)
		if !ok {
			w.log.Warn("no session for warmup data", zap.String("instrument", inst))
			continue
		}

		bars := make([]models.Bar, len(recs))
		for i, r := range recs {
			bars[i] = r.Bar
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case w.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-w.sem }()

			sess.Prime(bars)
			mu.Lock()
			primed++
			mu.Unlock()
			w.log.Info("session primed", zap.String("instrument", inst), zap.Int("bars", len(bars)))
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return primed, err
	}
	return primed, nil
}
