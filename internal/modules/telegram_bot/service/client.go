package service

import (
	"context"
	"time"

	"failover_trader/internal/models"
	"failover_trader/internal/modules/config"
	"failover_trader/internal/runner/router"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Controller то, что бот может спросить и сделать с маршрутизатором.
type Controller interface {
	Status() []models.SessionStatus
	Summary() router.Summary
	Pause()
	Unpause()
	Paused() bool
	ClosePosition(ctx context.Context, instrument string) error
	ResumeSession(instrument string) error
}

// Telegram алерты по сделкам и команды только для чтения (+ /stop, /resume).
type Telegram struct {
	bot      botAPI
	chatID   int64
	ctl      Controller
	log      *zap.Logger
	currency string
	started  time.Time
	daily    *daily
}

func New(bot botAPI, chatID int64, ctl Controller, log *zap.Logger, loc *time.Location) *Telegram {
	return &Telegram{
		bot:      bot,
		chatID:   chatID,
		ctl:      ctl,
		log:      log.Named("telegram"),
		currency: "₹",
		started:  time.Now(),
		daily:    newDaily(loc),
	}
}

// NewTelegram без токена возвращает nil: алерты выключены.
func NewTelegram(cfg *config.Config, r *router.Router, log *zap.Logger) (*Telegram, error) {
	if cfg.Telegram.Token == "" {
		log.Warn("telegram token not set, alerts disabled")
		return nil, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot")
	}

	loc := time.UTC
	if name := cfg.Strategy.ForbiddenWindow.Location; name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}
	t := New(b, cfg.Telegram.ChatID, r, log, loc)
	if cfg.Market == "crypto" {
		t.currency = "$"
	}
	return t, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	m := tgbot.NewMessage(chatID, msg)
	m.ParseMode = tgbot.ModeMarkdown
	return t.bot.Send(m)
}

func (t *Telegram) Name() string { return "telegram" }

// Deliver реализует notify.Sink.
func (t *Telegram) Deliver(ctx context.Context, ev models.TradeEvent) error {
	var text string
	switch ev.Type {
	case models.EventEntryFilled:
		text = formatEntry(ev, t.currency)
	case models.EventExitFilled:
		text = formatExit(ev, t.currency)
	case models.EventEntryAborted:
		text = formatWarning(ev)
	case models.EventExitRejected:
		// шлюз комиссии срабатывает часто, это не повод будить человека
		if ev.Reason == models.ReasonCommissionGate {
			return nil
		}
		text = formatWarning(ev)
	default:
		return nil
	}

	if prev, ok := t.daily.observe(ev); ok {
		if _, err := t.Send(ctx, t.chatID, formatDailySummary(prev, t.currency)); err != nil {
			t.log.Error("daily summary not sent", zap.Error(err))
		}
	}

	if _, err := t.Send(ctx, t.chatID, text); err != nil {
		return errors.Wrapf(err, "send %s", ev.Type)
	}
	return nil
}

// Start читает апдейты до отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) Stop() { t.bot.StopReceivingUpdates() }
