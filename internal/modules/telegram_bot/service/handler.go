package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const helpText = "👋 *Welcome to Trading Bot!*\n\n" +
	"Available commands:\n" +
	"/status - Bot status\n" +
	"/pnl - Today's P&L\n" +
	"/positions - Active positions\n" +
	"/stop - Stop routing new bars\n" +
	"/resume - Resume routing\n" +
	"/close SYMBOL - Close a position at market\n" +
	"/unhalt SYMBOL - Clear a halted session\n\n" +
	"You'll receive real-time alerts for all trades!"

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID

	// чужие чаты игнорируем; без настроенного чата команды не принимаем вовсе
	if t.chatID == 0 || chatID != t.chatID {
		t.log.Warn("command from unknown chat", zap.Int64("chat_id", chatID), zap.String("command", msg.Command()))
		return
	}

	var reply string
	switch msg.Command() {
	case "start", "help":
		reply = helpText
	case "status":
		reply = formatStatus(t.ctl.Status(), t.ctl.Summary(), t.ctl.Paused(), time.Since(t.started))
	case "positions":
		reply = formatPositions(t.ctl.Status(), t.currency)
	case "pnl":
		reply = formatPnL(t.daily.today(), t.ctl.Summary(), t.currency)
	case "stop":
		t.ctl.Pause()
		reply = "🛑 Stopping trading bot: bar routing paused"
	case "resume":
		t.ctl.Unpause()
		reply = "✅ Trading resumed"
	case "close":
		reply = t.closePosition(ctx, strings.ToUpper(strings.TrimSpace(msg.CommandArguments())))
	case "unhalt":
		inst := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))
		if err := t.ctl.ResumeSession(inst); err != nil {
			reply = "⚠️ " + err.Error()
		} else {
			reply = fmt.Sprintf("✅ %s resumed", inst)
		}
	default:
		reply = "Unknown command, try /start"
	}

	if _, err := t.Send(ctx, chatID, reply); err != nil {
		t.log.Error("reply failed", zap.String("command", msg.Command()), zap.Error(err))
	}
}

func (t *Telegram) closePosition(ctx context.Context, inst string) string {
	if inst == "" {
		return "Usage: /close SYMBOL"
	}
	if err := t.ctl.ClosePosition(ctx, inst); err != nil {
		t.log.Warn("manual close failed", zap.String("instrument", inst), zap.Error(err))
		return "⚠️ " + err.Error()
	}
	return fmt.Sprintf("📤 Closing %s at market", inst)
}
