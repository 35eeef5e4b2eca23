package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"text/tabwriter"

	"failover_trader/internal/metrics"
	"failover_trader/internal/models"
	bootstrap "failover_trader/internal/modules/bootstrap/service"
	broker "failover_trader/internal/modules/broker/service"
	strategy "failover_trader/internal/modules/strategy/service"
	"failover_trader/internal/runner/sessions"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type options struct {
	Data        string
	Capital     float64
	Params      models.StrategyParams
	PrimaryDown bool
}

type result struct {
	Sessions []models.SessionStatus
	Events   []models.TradeEvent
	Primary  int
	Backup   int
}

// eventRecorder синхронный приёмник событий прогона.
type eventRecorder struct {
	mu     sync.Mutex
	events []models.TradeEvent
}

func (r *eventRecorder) Emit(ev models.TradeEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// replay прогоняет выгрузку через сессии с симулированными брокерами.
// Исполнения забираются после каждого бара и приходят по времени бара.
func replay(ctx context.Context, opts options, log *zap.Logger) (*result, error) {
	f, err := os.Open(opts.Data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := bootstrap.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("no bars in data file")
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Bar.Time.Before(recs[j].Bar.Time) })

	gate, err := strategy.NewEntryGate(opts.Params.ForbiddenWindow)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics(nil)
	primary := broker.NewSimulated("sim-primary")
	backup := broker.NewSimulated("sim-backup")
	if opts.PrimaryDown {
		primary.FailWith(errors.New("primary unavailable"))
	}
	pair := broker.NewPair(broker.NewFailover(log, m, 0), primary, backup, opts.Params.MaxRetries)

	engine := strategy.NewEngine(opts.Params)
	events := &eventRecorder{}
	bySymbol := make(map[string]*sessions.Session)

	for _, rec := range recs {
		sess, ok := bySymbol[rec.Instrument]
		if !ok {
			sess = sessions.NewSession(
				sessions.Config{Instrument: rec.Instrument, Capital: opts.Capital},
				engine, gate, pair, events, log, m,
			)
			bySymbol[rec.Instrument] = sess
		}

		if err := sess.OnBar(ctx, rec.Bar, rec.Snapshot); err != nil && !errors.Is(err, sessions.ErrSessionHalted) {
			log.Warn("bar rejected", zap.String("instrument", rec.Instrument), zap.Error(err))
		}

		fills := append(primary.DrainFills(rec.Bar.Time), backup.DrainFills(rec.Bar.Time)...)
		for _, fill := range fills {
			target, ok := bySymbol[fill.Instrument]
			if !ok {
				continue
			}
			if err := target.OnFill(ctx, fill); err != nil {
				log.Error("fill rejected", zap.String("order_id", fill.OrderID), zap.Error(err))
			}
		}
	}

	out := &result{
		Events:  events.events,
		Primary: primary.Calls(),
		Backup:  backup.Calls(),
	}
	for _, s := range bySymbol {
		out.Sessions = append(out.Sessions, s.Status())
	}
	sort.Slice(out.Sessions, func(i, j int) bool { return out.Sessions[i].Instrument < out.Sessions[j].Instrument })
	return out, nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func printSummary(w io.Writer, r *result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTRUMENT\tSTATE\tTRADES\tWINS\tREALIZED\tCASH")

	var total float64
	var trades, wins int
	for _, s := range r.Sessions {
		state := string(s.State)
		if s.Halted {
			state += " (halted)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			s.Instrument, state, s.Trades, s.Wins, money(s.RealizedPnL), money(s.Cash))
		total += s.RealizedPnL
		trades += s.Trades
		wins += s.Wins
	}
	fmt.Fprintf(tw, "TOTAL\t\t%d\t%d\t%s\t\n", trades, wins, money(total))
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "orders: primary=%d backup=%d events=%d\n", r.Primary, r.Backup, len(r.Events))
	return err
}
