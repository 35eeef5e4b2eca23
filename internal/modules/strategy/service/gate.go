package service

import (
	"fmt"
	"time"

	"failover_trader/internal/models"
)

// EntryGate запрещает входы внутри окна [start, end) по местному времени биржи.
// Проверяется в момент подтверждения входа, не в движке сигналов.
type EntryGate struct {
	enabled bool
	start   int // минуты от полуночи
	end     int
	loc     *time.Location
}

func NewEntryGate(w models.TimeWindow) (*EntryGate, error) {
	if !w.Enabled {
		return &EntryGate{}, nil
	}

	loc := time.UTC
	if w.Location != "" {
		l, err := time.LoadLocation(w.Location)
		if err != nil {
			return nil, fmt.Errorf("load location %q: %w", w.Location, err)
		}
		loc = l
	}

	start, err := parseClock(w.Start)
	if err != nil {
		return nil, fmt.Errorf("window start: %w", err)
	}
	end, err := parseClock(w.End)
	if err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}

	return &EntryGate{enabled: true, start: start, end: end, loc: loc}, nil
}

func (g *EntryGate) Allow(t time.Time) bool {
	if g == nil || !g.enabled || g.start == g.end {
		return true
	}
	lt := t.In(g.loc)
	m := lt.Hour()*60 + lt.Minute()

	// окно через полночь
	if g.start > g.end {
		return !(m >= g.start || m < g.end)
	}
	return !(m >= g.start && m < g.end)
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
