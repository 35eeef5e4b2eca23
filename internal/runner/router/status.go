package router

import (
	"sort"

	"failover_trader/internal/models"
)

// Status снимки всех сессий, по имени инструмента.
func (r *Router) Status() []models.SessionStatus {
	r.mu.RLock()
	out := make([]models.SessionStatus, 0, len(r.actors))
	for _, a := range r.actors {
		out = append(out, a.sess.Status())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}

// OpenPositions только сессии с открытой позицией.
func (r *Router) OpenPositions() []models.SessionStatus {
	all := r.Status()
	out := all[:0]
	for _, st := range all {
		if st.Position != nil {
			out = append(out, st)
		}
	}
	return out
}

// Summary суммарный результат по всем инструментам.
type Summary struct {
	RealizedPnL float64
	Trades      int
	Wins        int
	Open        int
	Halted      int
}

func (r *Router) Summary() Summary {
	var s Summary
	for _, st := range r.Status() {
		s.RealizedPnL += st.RealizedPnL
		s.Trades += st.Trades
		s.Wins += st.Wins
		if st.Position != nil {
			s.Open++
		}
		if st.Halted {
			s.Halted++
		}
	}
	return s
}
