package pg

import (
	"context"
	"fmt"

	"failover_trader/internal/models"
	"failover_trader/pkg/db"

	"github.com/jackc/pgx/v5"
)

const (
	listEnabledSQL = `SELECT name, kind, endpoint, credentials_ref, role, exchange, product
FROM broker_configs
WHERE enabled
ORDER BY role DESC, name`

	upsertSQL = `INSERT INTO broker_configs (name, kind, endpoint, credentials_ref, role, exchange, product, enabled, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, now())
ON CONFLICT (name) DO UPDATE SET
	kind = EXCLUDED.kind,
	endpoint = EXCLUDED.endpoint,
	credentials_ref = EXCLUDED.credentials_ref,
	role = EXCLUDED.role,
	exchange = EXCLUDED.exchange,
	product = EXCLUDED.product,
	enabled = TRUE,
	updated_at = now()`

	disableSQL = `UPDATE broker_configs SET enabled = FALSE, updated_at = now() WHERE name = $1`
)

// BrokerConfigs таблица broker_configs: список брокеров вместо файла конфига.
type BrokerConfigs struct {
	db db.TxManager
}

func NewBrokerConfigs(db db.TxManager) *BrokerConfigs {
	return &BrokerConfigs{db: db}
}

// List включённые брокеры, primary первым.
func (b *BrokerConfigs) List(ctx context.Context) (out []models.BrokerConfig, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.BrokerConfigs.List: %w", err)
		}
	}()

	rows, err := b.db.Conn().Query(ctx, listEnabledSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c          models.BrokerConfig
			kind, role string
		)
		if err := rows.Scan(&c.Name, &kind, &c.Endpoint, &c.CredentialsRef, &role, &c.Exchange, &c.Product); err != nil {
			return nil, err
		}
		c.Kind = models.BrokerKind(kind)
		c.Role = models.BrokerRole(role)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (b *BrokerConfigs) Upsert(ctx context.Context, c models.BrokerConfig) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.BrokerConfigs.Upsert: %w", err)
		}
	}()
	return b.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, upsertSQL,
			c.Name, string(c.Kind), c.Endpoint, c.CredentialsRef, string(c.Role), c.Exchange, c.Product)
		return err
	})
}

func (b *BrokerConfigs) Disable(ctx context.Context, name string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.BrokerConfigs.Disable: %w", err)
		}
	}()
	return b.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx, disableSQL, name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("broker %q not found", name)
		}
		return nil
	})
}
