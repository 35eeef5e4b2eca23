package service

import (
	"fmt"
	"strings"
	"time"

	"failover_trader/internal/models"
	"failover_trader/internal/runner/router"
)

func sideOf(d models.Direction) string {
	if d == models.Short {
		return "SHORT"
	}
	return "LONG"
}

func formatEntry(ev models.TradeEvent, cur string) string {
	emoji := "🟢"
	if ev.Direction == models.Short {
		emoji = "🔴"
	}
	return fmt.Sprintf(
		"%s *%s ENTRY*\n\n"+
			"📊 Symbol: `%s`\n"+
			"💰 Entry: %s%s\n"+
			"🎯 Target: %s%s\n"+
			"🛡️ Stop Loss: %s%s\n"+
			"📦 Quantity: %s\n"+
			"🏦 Broker: `%s`\n\n"+
			"⏰ Time: %s",
		emoji, sideOf(ev.Direction),
		ev.Instrument,
		cur, money(ev.EntryPrice),
		cur, money(ev.TakeProfit),
		cur, money(ev.StopLoss),
		qty(ev.Quantity),
		ev.Broker,
		ev.Time.Format("15:04:05"),
	)
}

func formatExit(ev models.TradeEvent, cur string) string {
	emoji := "✅"
	if ev.NetPnL <= 0 {
		emoji = "❌"
	}
	return fmt.Sprintf(
		"%s *POSITION CLOSED*\n\n"+
			"📊 Symbol: `%s`\n"+
			"📍 Side: %s\n"+
			"📥 Entry: %s%s\n"+
			"📤 Exit: %s%s\n"+
			"💵 P&L: %s%s (%+.2f%%)\n"+
			"🏷️ Reason: `%s`\n\n"+
			"⏰ Time: %s",
		emoji,
		ev.Instrument,
		sideOf(ev.Direction),
		cur, money(ev.EntryPrice),
		cur, money(ev.ExitPrice),
		cur, money(ev.NetPnL), pct(ev.NetPnL, ev.EntryPrice*ev.Quantity),
		ev.Reason,
		ev.Time.Format("15:04:05"),
	)
}

func formatWarning(ev models.TradeEvent) string {
	title := "ENTRY ABORTED"
	if ev.Type == models.EventExitRejected {
		title = "EXIT REJECTED"
	}
	return fmt.Sprintf(
		"⚠️ *%s*\n\n"+
			"📊 Symbol: `%s`\n"+
			"📍 Side: %s\n"+
			"🏷️ Reason: `%s`",
		title, ev.Instrument, sideOf(ev.Direction), ev.Reason,
	)
}

func formatDailySummary(d DaySummary, cur string) string {
	return fmt.Sprintf(
		"📊 *DAILY SUMMARY*\n%s\n\n"+
			"💰 Total P&L: %s%s\n"+
			"📈 Wins: %d\n"+
			"📉 Losses: %d\n"+
			"📊 Win Rate: %.1f%%\n"+
			"🎯 Total Trades: %d",
		d.Date.Format("2006-01-02"),
		cur, money(d.PnL),
		d.Wins,
		d.Losses,
		d.WinRate(),
		d.Trades(),
	)
}

func formatStatus(st []models.SessionStatus, sum router.Summary, paused bool, uptime time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ *Bot Status*\n\nStatus: %s\nUptime: %s\nActive Positions: %d\n",
		onOff(paused), uptime.Truncate(time.Minute), sum.Open)
	if sum.Halted > 0 {
		fmt.Fprintf(&b, "Halted sessions: %d\n", sum.Halted)
	}
	b.WriteString("\n")
	for _, s := range st {
		line := fmt.Sprintf("• `%s` %s", s.Instrument, s.State)
		if s.Halted {
			line += " ⛔️"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func formatPositions(st []models.SessionStatus, cur string) string {
	var b strings.Builder
	b.WriteString("📊 *Active Positions*\n")

	n := 0
	for _, s := range st {
		p := s.Position
		if p == nil {
			continue
		}
		n++
		pnl := p.UnrealizedPnL(s.LastPrice)
		fmt.Fprintf(&b, "\n%d. %s %s\n   Entry: %s%s\n   Current: %s%s\n   P&L: %s%s (%+.2f%%)\n",
			n, s.Instrument, sideOf(p.Direction),
			cur, money(p.EntryPrice),
			cur, money(s.LastPrice),
			cur, money(pnl), pct(pnl, p.EntryPrice*p.Quantity),
		)
	}
	if n == 0 {
		return "📭 No open positions"
	}
	return b.String()
}

func formatPnL(today DaySummary, sum router.Summary, cur string) string {
	return fmt.Sprintf(
		"💰 *Today's P&L*\n\n"+
			"Total: %s%s\n"+
			"Trades: %d (wins %d)\n\n"+
			"Since start: %s%s over %d trades",
		cur, money(today.PnL),
		today.Trades(), today.Wins,
		cur, money(sum.RealizedPnL), sum.Trades,
	)
}
