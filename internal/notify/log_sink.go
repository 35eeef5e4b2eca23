package notify

import (
	"context"

	"failover_trader/internal/models"

	"go.uber.org/zap"
)

// LogSink пишет каждое событие в журнал.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("events")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, ev models.TradeEvent) error {
	fields := []zap.Field{
		zap.String("instrument", ev.Instrument),
		zap.String("direction", ev.Direction.String()),
		zap.String("order_id", ev.OrderID),
		zap.String("broker", ev.Broker),
		zap.Float64("qty", ev.Quantity),
		zap.Time("at", ev.Time),
	}
	switch ev.Type {
	case models.EventExitFilled:
		fields = append(fields,
			zap.Float64("entry", ev.EntryPrice),
			zap.Float64("exit", ev.ExitPrice),
			zap.Float64("gross", ev.GrossPnL),
			zap.Float64("net", ev.NetPnL),
		)
	case models.EventExitPlaced, models.EventExitRejected:
		fields = append(fields, zap.Float64("entry", ev.EntryPrice), zap.Float64("exit", ev.ExitPrice))
	default:
		fields = append(fields,
			zap.Float64("entry", ev.EntryPrice),
			zap.Float64("tp", ev.TakeProfit),
			zap.Float64("sl", ev.StopLoss),
		)
	}
	if ev.Reason != "" {
		fields = append(fields, zap.String("reason", ev.Reason))
	}

	s.log.Info(string(ev.Type), fields...)
	return nil
}
