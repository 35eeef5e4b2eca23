package service

import (
	"failover_trader/internal/modules/config"
)

func NewEngineFromConfig(cfg *config.Config) *Engine {
	return NewEngine(cfg.Strategy)
}

func NewEntryGateFromConfig(cfg *config.Config) (*EntryGate, error) {
	return NewEntryGate(cfg.Strategy.ForbiddenWindow)
}
