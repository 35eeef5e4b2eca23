package service

import (
	"sync"
	"time"

	"failover_trader/internal/models"
)

type DaySummary struct {
	Date   time.Time
	PnL    float64
	Wins   int
	Losses int
}

func (d DaySummary) Trades() int { return d.Wins + d.Losses }

func (d DaySummary) WinRate() float64 {
	if d.Trades() == 0 {
		return 0
	}
	return float64(d.Wins) / float64(d.Trades()) * 100
}

// daily копит закрытые сделки за торговый день в часовом поясе биржи.
type daily struct {
	mu  sync.Mutex
	loc *time.Location
	cur DaySummary
}

func newDaily(loc *time.Location) *daily {
	if loc == nil {
		loc = time.UTC
	}
	return &daily{loc: loc}
}

func (d *daily) day(t time.Time) time.Time {
	y, m, dd := t.In(d.loc).Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, d.loc)
}

// observe учитывает закрытие сделки. Если наступил новый день,
// возвращает итог предыдущего.
func (d *daily) observe(ev models.TradeEvent) (DaySummary, bool) {
	if ev.Type != models.EventExitFilled {
		return DaySummary{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		prev   DaySummary
		rolled bool
	)
	day := d.day(ev.Time)
	if !d.cur.Date.Equal(day) {
		if d.cur.Trades() > 0 {
			prev, rolled = d.cur, true
		}
		d.cur = DaySummary{Date: day}
	}

	d.cur.PnL += ev.NetPnL
	if ev.NetPnL > 0 {
		d.cur.Wins++
	} else {
		d.cur.Losses++
	}
	return prev, rolled
}

func (d *daily) today() DaySummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cur
}
