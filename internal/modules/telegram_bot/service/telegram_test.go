package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"failover_trader/internal/models"
	"failover_trader/internal/runner/router"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type fakeBot struct {
	mu      sync.Mutex
	sent    []tgbot.MessageConfig
	updates chan tgbot.Update
	stopped bool
}

func (b *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbot.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbot.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel { return b.updates }

func (b *fakeBot) StopReceivingUpdates() { b.stopped = true }

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.sent))
	for _, m := range b.sent {
		out = append(out, m.Text)
	}
	return out
}

type fakeController struct {
	status  []models.SessionStatus
	sum     router.Summary
	paused  bool
	closed  []string
	resumed []string
}

func (c *fakeController) Status() []models.SessionStatus { return c.status }
func (c *fakeController) Summary() router.Summary        { return c.sum }
func (c *fakeController) Pause()                         { c.paused = true }
func (c *fakeController) Unpause()                       { c.paused = false }
func (c *fakeController) Paused() bool                   { return c.paused }

func (c *fakeController) ClosePosition(ctx context.Context, instrument string) error {
	if instrument != "RELIANCE" {
		return router.ErrNoPosition
	}
	c.closed = append(c.closed, instrument)
	return nil
}

func (c *fakeController) ResumeSession(instrument string) error {
	c.resumed = append(c.resumed, instrument)
	return nil
}

const chatID = 4242

func newTestBot() (*Telegram, *fakeBot, *fakeController) {
	b := &fakeBot{updates: make(chan tgbot.Update, 4)}
	c := &fakeController{}
	return New(b, chatID, c, zap.NewNop(), time.UTC), b, c
}

func command(chat int64, text string) tgbot.Update {
	cmd := strings.Fields(text)[0]
	return tgbot.Update{Message: &tgbot.Message{
		Text:     text,
		Chat:     &tgbot.Chat{ID: chat},
		Entities: []tgbot.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestMoney(t *testing.T) {
	cases := map[float64]string{
		0:           "0.00",
		65432:       "65,432.00",
		1234567.891: "1,234,567.89",
		-1691.5:     "-1,691.50",
		0.17998:     "0.18",
		100:         "100.00",
	}
	for in, want := range cases {
		if got := money(in); got != want {
			t.Errorf("money(%v) = %q want %q", in, got, want)
		}
	}
}

func TestDeliver_EntryAndExitAlerts(t *testing.T) {
	tg, b, _ := newTestBot()
	at := time.Date(2024, 3, 4, 10, 30, 15, 0, time.UTC)

	err := tg.Deliver(context.Background(), models.TradeEvent{
		Type: models.EventEntryFilled, Instrument: "BTCUSDT", Direction: models.Long,
		EntryPrice: 65432, TakeProfit: 71975, StopLoss: 65105, Quantity: 0.1, Broker: "okx", Time: at,
	})
	if err != nil {
		t.Fatalf("Deliver entry: %v", err)
	}
	err = tg.Deliver(context.Background(), models.TradeEvent{
		Type: models.EventExitFilled, Instrument: "BTCUSDT", Direction: models.Long,
		EntryPrice: 65432, ExitPrice: 67123, Quantity: 0.1, NetPnL: 169.1,
		Reason: models.ReasonTakeProfit, Time: at,
	})
	if err != nil {
		t.Fatalf("Deliver exit: %v", err)
	}

	texts := b.texts()
	if len(texts) != 2 {
		t.Fatalf("sent %d messages", len(texts))
	}
	for _, want := range []string{"🟢 *LONG ENTRY*", "`BTCUSDT`", "Entry: ₹65,432.00", "Target: ₹71,975.00", "Stop Loss: ₹65,105.00", "Quantity: 0.1", "10:30:15"} {
		if !strings.Contains(texts[0], want) {
			t.Errorf("entry alert missing %q:\n%s", want, texts[0])
		}
	}
	for _, want := range []string{"✅ *POSITION CLOSED*", "Exit: ₹67,123.00", "P&L: ₹169.10 (+2.58%)", "`take_profit`"} {
		if !strings.Contains(texts[1], want) {
			t.Errorf("exit alert missing %q:\n%s", want, texts[1])
		}
	}
	if b.sent[0].ParseMode != tgbot.ModeMarkdown {
		t.Errorf("parse mode %q", b.sent[0].ParseMode)
	}
}

func TestDeliver_SkipsNoise(t *testing.T) {
	tg, b, _ := newTestBot()
	for _, ev := range []models.TradeEvent{
		{Type: models.EventEntryPlaced},
		{Type: models.EventExitPlaced},
		{Type: models.EventEntryCancelled},
		{Type: models.EventExitRejected, Reason: models.ReasonCommissionGate},
	} {
		if err := tg.Deliver(context.Background(), ev); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	if n := len(b.texts()); n != 0 {
		t.Fatalf("expected no messages, got %d", n)
	}

	_ = tg.Deliver(context.Background(), models.TradeEvent{Type: models.EventEntryAborted, Instrument: "TCS", Reason: "order dispatch exhausted"})
	if texts := b.texts(); len(texts) != 1 || !strings.Contains(texts[0], "ENTRY ABORTED") {
		t.Fatalf("abort warning %v", texts)
	}
}

func TestDeliver_DailySummaryOnRollover(t *testing.T) {
	tg, b, _ := newTestBot()
	day1 := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)

	closeAt := func(at time.Time, net float64) {
		err := tg.Deliver(context.Background(), models.TradeEvent{
			Type: models.EventExitFilled, Instrument: "TCS", EntryPrice: 100, ExitPrice: 101, Quantity: 1, NetPnL: net, Time: at,
		})
		if err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	closeAt(day1, 10)
	closeAt(day1.Add(time.Hour), -4)
	closeAt(day1.Add(time.Hour*2), 6)
	closeAt(day1.Add(24*time.Hour), 1)

	texts := b.texts()
	if len(texts) != 5 {
		t.Fatalf("expected 4 alerts and a summary, got %d", len(texts))
	}
	summary := texts[3]
	for _, want := range []string{"DAILY SUMMARY", "2024-03-04", "Total P&L: ₹12.00", "Wins: 2", "Losses: 1", "Win Rate: 66.7%", "Total Trades: 3"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if today := tg.daily.today(); today.Trades() != 1 || today.PnL != 1 {
		t.Fatalf("today %+v", today)
	}
}

func TestCommands(t *testing.T) {
	tg, b, c := newTestBot()
	c.status = []models.SessionStatus{
		{Instrument: "RELIANCE", State: models.StateOpen, LastPrice: 2510, Position: &models.Position{
			Direction: models.Long, EntryPrice: 2500, Quantity: 10,
		}},
		{Instrument: "TCS", State: models.StateFlat, Halted: true},
	}
	c.sum = router.Summary{Open: 1, Halted: 1, RealizedPnL: 50, Trades: 2, Wins: 1}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tg.Start(ctx)
		close(done)
	}()

	for _, cmd := range []string{"/status", "/positions", "/pnl", "/stop"} {
		b.updates <- command(chatID, cmd)
	}
	b.updates <- command(999, "/resume")

	deadline := time.Now().Add(2 * time.Second)
	for len(b.texts()) < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("replies: %v", b.texts())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	texts := b.texts()
	if !strings.Contains(texts[0], "Active Positions: 1") || !strings.Contains(texts[0], "Halted sessions: 1") {
		t.Errorf("status reply:\n%s", texts[0])
	}
	if !strings.Contains(texts[1], "RELIANCE LONG") || !strings.Contains(texts[1], "P&L: ₹100.00 (+0.40%)") {
		t.Errorf("positions reply:\n%s", texts[1])
	}
	if !strings.Contains(texts[2], "Since start: ₹50.00 over 2 trades") {
		t.Errorf("pnl reply:\n%s", texts[2])
	}
	if !c.paused {
		t.Errorf("/stop did not pause routing")
	}
	// /resume из чужого чата не выполнен
	if len(texts) != 4 {
		t.Errorf("unexpected reply to foreign chat: %v", texts)
	}
}

func TestPositions_Empty(t *testing.T) {
	if got := formatPositions(nil, "₹"); got != "📭 No open positions" {
		t.Fatalf("got %q", got)
	}
}

func TestManualCommands(t *testing.T) {
	tg, b, c := newTestBot()
	ctx := context.Background()

	tg.handleUpdate(ctx, command(chatID, "/close reliance"))
	tg.handleUpdate(ctx, command(chatID, "/close TCS"))
	tg.handleUpdate(ctx, command(chatID, "/close"))
	tg.handleUpdate(ctx, command(chatID, "/unhalt TCS"))

	texts := b.texts()
	if len(texts) != 4 {
		t.Fatalf("replies: %v", texts)
	}
	if len(c.closed) != 1 || c.closed[0] != "RELIANCE" {
		t.Fatalf("closed = %v", c.closed)
	}
	if !strings.Contains(texts[0], "Closing RELIANCE") {
		t.Errorf("close reply: %q", texts[0])
	}
	if !strings.Contains(texts[1], "no open position") {
		t.Errorf("close TCS reply: %q", texts[1])
	}
	if texts[2] != "Usage: /close SYMBOL" {
		t.Errorf("usage reply: %q", texts[2])
	}
	if len(c.resumed) != 1 || c.resumed[0] != "TCS" || !strings.Contains(texts[3], "TCS resumed") {
		t.Errorf("unhalt: %v %q", c.resumed, texts[3])
	}
}

func TestCommands_NoChatConfigured(t *testing.T) {
	b := &fakeBot{updates: make(chan tgbot.Update, 1)}
	c := &fakeController{}
	tg := New(b, 0, c, zap.NewNop(), time.UTC)
	ctx := context.Background()

	tg.handleUpdate(ctx, command(777, "/stop"))
	tg.handleUpdate(ctx, command(777, "/close RELIANCE"))
	tg.handleUpdate(ctx, command(0, "/unhalt TCS"))

	if c.paused || len(c.closed) != 0 || len(c.resumed) != 0 {
		t.Fatalf("command executed without chat_id: paused=%v closed=%v resumed=%v", c.paused, c.closed, c.resumed)
	}
	if texts := b.texts(); len(texts) != 0 {
		t.Fatalf("unexpected replies: %v", texts)
	}
}
