package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"failover_trader/internal/metrics"
	"failover_trader/internal/models"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	name string
	err  error

	mu  sync.Mutex
	got []models.TradeEvent
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, ev models.TradeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	d := NewDispatcher(zap.New(core), m, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			d.Emit(models.TradeEvent{Type: models.EventEntryPlaced, Instrument: "TCS"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Emit blocked")
	}

	if got := testutil.ToFloat64(m.EventsDropped); got != 2 {
		t.Fatalf("dropped %v", got)
	}
	if logs.FilterMessage("event queue full, event dropped").Len() != 2 {
		t.Fatalf("drop warnings not logged")
	}
}

func TestDispatcher_DeliversToAllSinks(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	d := NewDispatcher(zap.New(core), nil, 8)

	ok := &recordingSink{name: "ok"}
	bad := &recordingSink{name: "bad", err: errors.New("telegram down")}
	d.Register(ok)
	d.Register(bad)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	d.Emit(models.TradeEvent{Type: models.EventEntryFilled, Instrument: "RELIANCE"})
	d.Emit(models.TradeEvent{Type: models.EventExitFilled, Instrument: "RELIANCE"})

	deadline := time.Now().Add(2 * time.Second)
	for ok.count() < 2 || bad.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("events not delivered: ok=%d bad=%d", ok.count(), bad.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-d.Done()

	if n := logs.FilterMessage("event delivery failed").Len(); n != 2 {
		t.Fatalf("delivery failures logged %d", n)
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(zap.New(core))

	err := s.Deliver(context.Background(), models.TradeEvent{
		Type: models.EventExitFilled, Instrument: "TCS", Direction: models.Long,
		EntryPrice: 100, ExitPrice: 101, Quantity: 5, NetPnL: 4.9, Reason: models.ReasonTakeProfit,
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	entries := logs.FilterMessage(string(models.EventExitFilled)).All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["instrument"] != "TCS" || fields["net"] != 4.9 || fields["reason"] != models.ReasonTakeProfit {
		t.Fatalf("fields %v", fields)
	}
}

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channel = channel
	p.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisSink(t *testing.T) {
	pub := &fakePublisher{}
	s := NewRedisSink(pub, "")

	ev := models.TradeEvent{Type: models.EventEntryPlaced, Instrument: "RELIANCE", OrderID: "angelone-1", Quantity: 24}
	if err := s.Deliver(context.Background(), ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if pub.channel != DefaultChannel {
		t.Fatalf("channel %q", pub.channel)
	}

	var got models.TradeEvent
	if err := sonic.Unmarshal(pub.payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.OrderID != "angelone-1" || got.Type != models.EventEntryPlaced {
		t.Fatalf("payload %+v", got)
	}

	pub.err = errors.New("connection refused")
	if err := s.Deliver(context.Background(), ev); err == nil {
		t.Fatalf("expected publish error")
	}
}
