package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level not enabled")
	}
	if InfoLogger != l || FatalLogger != l {
		t.Fatalf("global loggers not initialised")
	}
	Info("started %s", "bot")

	if _, err := New("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if l, _ := New(""); l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("default level must be info")
	}
}
