package service

import (
	"context"
	"fmt"
	"time"

	"failover_trader/internal/models"
)

const paperLatency = 200 * time.Millisecond

// Build адаптер по описанию брокера.
func Build(ctx context.Context, cfg models.BrokerConfig, creds *CredentialResolver, timeout time.Duration) (Adapter, error) {
	switch cfg.Kind {
	case models.BrokerSimulated:
		return NewSimulated(cfg.Name), nil
	case models.BrokerPaper:
		return NewPaper(cfg.Name, paperLatency, 0), nil
	case models.BrokerOpenAlgo, models.BrokerOKX:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBrokerKind, cfg.Kind)
	}

	c, err := creds.Resolve(ctx, cfg.CredentialsRef)
	if err != nil {
		return nil, fmt.Errorf("broker %s credentials: %w", cfg.Name, err)
	}
	if cfg.Kind == models.BrokerOpenAlgo {
		return NewOpenAlgo(cfg, c, timeout), nil
	}
	return NewOKX(cfg, c, timeout), nil
}

// BuildPair строит primary и (если есть) backup.
func BuildPair(ctx context.Context, brokers []models.BrokerConfig, creds *CredentialResolver, f *Failover, maxRetries int) (*Pair, error) {
	var primary, backup Adapter
	for _, b := range brokers {
		a, err := Build(ctx, b, creds, f.timeout)
		if err != nil {
			return nil, err
		}
		switch b.Role {
		case models.RolePrimary:
			primary = a
		case models.RoleBackup:
			backup = a
		}
	}
	if primary == nil {
		return nil, fmt.Errorf("no primary broker configured")
	}
	return NewPair(f, primary, backup, maxRetries), nil
}
