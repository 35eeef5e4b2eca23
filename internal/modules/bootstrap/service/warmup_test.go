package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"failover_trader/internal/models"
	strategy "failover_trader/internal/modules/strategy/service"
	"failover_trader/internal/runner/sessions"

	"go.uber.org/zap"
)

const sample = `instrument,time,open,high,low,close,volume,very_fast_ema,fast_ema,mid_ema,rsi,momentum_bullish,momentum_bearish,band,band_direction
NIFTY,2024-03-04T11:00:00Z,99.5,100.2,99.4,100,800,,,,,,,,
NIFTY,2024-03-04T11:01:00Z,100,101,99.5,100.5,900,,,,,,,,
BANKNIFTY,1709550060,200,201,199,200.5,10,200.1,200,199.5,61,true,false,198,1
`

func TestReadCSV(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}

	first := recs[0]
	if first.Instrument != "NIFTY" || first.Bar.Close != 100 || first.Bar.Volume != 800 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if !first.Bar.Time.Equal(time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("time = %v", first.Bar.Time)
	}

	last := recs[2]
	if !last.Bar.Time.Equal(time.Unix(1709550060, 0)) {
		t.Fatalf("unix time = %v", last.Bar.Time)
	}
	want := models.IndicatorSnapshot{
		VeryFastEMA: 200.1, FastEMA: 200, MidEMA: 199.5,
		RSI: 61, MomentumBullish: true,
		Band: 198, BandDirection: 1,
	}
	if last.Snapshot != want {
		t.Fatalf("snapshot = %+v, want %+v", last.Snapshot, want)
	}

	groups := GroupByInstrument(recs)
	if len(groups["NIFTY"]) != 2 || len(groups["BANKNIFTY"]) != 1 {
		t.Fatalf("groups = %v", groups)
	}
	if groups["NIFTY"][1].Bar.Close != 100.5 {
		t.Fatalf("order not kept")
	}
}

func TestReadCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"missing column": "instrument,time,open,high,low\nX,1,1,1,1\n",
		"bad float":      "instrument,time,open,high,low,close\nX,1,1,1,1,abc\n",
		"bad time":       "instrument,time,open,high,low,close\nX,yesterday,1,1,1,1\n",
		"zero close":     "instrument,time,open,high,low,close\nX,1,1,1,1,0\n",
		"no instrument":  "instrument,time,open,high,low,close\n,1,1,1,1,1\n",
		"empty":          "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(in)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

type lookup map[string]*sessions.Session

func (l lookup) Session(inst string) (*sessions.Session, bool) {
	s, ok := l[inst]
	return s, ok
}

func newSession(inst string) *sessions.Session {
	return sessions.NewSession(
		sessions.Config{Instrument: inst, Capital: 200000},
		strategy.NewEngine(models.DefaultStrategyParams()),
		nil, nil, nil,
		zap.NewNop(),
		nil,
	)
}

func TestWarmupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warmup.csv")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	nifty := newSession("NIFTY")
	w := NewWarmuper(lookup{"NIFTY": nifty}, zap.NewNop())

	n, err := w.WarmupFile(context.Background(), path)
	if err != nil {
		t.Fatalf("WarmupFile: %v", err)
	}
	// BANKNIFTY без сессии пропускается
	if n != 1 {
		t.Fatalf("primed = %d, want 1", n)
	}
	st := nifty.Status()
	if st.Bars != 2 || st.State != models.StateFlat {
		t.Fatalf("status after warmup = %+v", st)
	}
}

func TestWarmupFile_EmptyPathAndMissingFile(t *testing.T) {
	w := NewWarmuper(lookup{}, zap.NewNop())

	if n, err := w.WarmupFile(context.Background(), ""); err != nil || n != 0 {
		t.Fatalf("empty path: n=%d err=%v", n, err)
	}
	if _, err := w.WarmupFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
