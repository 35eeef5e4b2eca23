package pg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"failover_trader/internal/models"
	"failover_trader/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRows struct {
	pgx.Rows
	data   [][]string
	i      int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return errors.New("unexpected dest type")
		}
		*p = row[i]
	}
	return nil
}

func (r *fakeRows) Close()     { r.closed = true }
func (r *fakeRows) Err() error { return nil }

type fakeConn struct {
	rows    *fakeRows
	lastSQL string
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.lastSQL = sql
	return c.rows, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row { return nil }

type fakeTx struct {
	pgx.Tx
	sql      string
	args     []any
	affected int64
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.sql, t.args = sql, args
	if t.affected > 0 {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

type fakeTxManager struct {
	conn *fakeConn
	tx   *fakeTx
}

func (m *fakeTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, m.tx)
}

func (m *fakeTxManager) Conn() db.Transaction { return m.conn }

func TestBrokerConfigs_List(t *testing.T) {
	rows := &fakeRows{data: [][]string{
		{"angelone", "openalgo", "http://127.0.0.1:5000", "env:OPENALGO_ANGELONE", "primary", "NSE", "MIS"},
		{"groww", "openalgo", "http://127.0.0.1:5001", "vault:openalgo/groww", "backup", "NSE", "MIS"},
	}}
	repo := NewBrokerConfigs(&fakeTxManager{conn: &fakeConn{rows: rows}})

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Role != models.RolePrimary || got[1].Kind != models.BrokerOpenAlgo || got[1].CredentialsRef != "vault:openalgo/groww" {
		t.Fatalf("configs %+v", got)
	}
	if !rows.closed {
		t.Fatalf("rows not closed")
	}
}

func TestBrokerConfigs_UpsertAndDisable(t *testing.T) {
	tx := &fakeTx{affected: 1}
	repo := NewBrokerConfigs(&fakeTxManager{tx: tx})

	cfg := models.BrokerConfig{Name: "groww", Kind: models.BrokerOpenAlgo, Role: models.RoleBackup}
	if err := repo.Upsert(context.Background(), cfg); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !strings.HasPrefix(tx.sql, "INSERT INTO broker_configs") || tx.args[0] != "groww" || tx.args[4] != "backup" {
		t.Fatalf("upsert sql=%q args=%v", tx.sql, tx.args)
	}

	if err := repo.Disable(context.Background(), "groww"); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	tx.affected = 0
	err := repo.Disable(context.Background(), "nope")
	if err == nil || !strings.Contains(err.Error(), "pg.BrokerConfigs.Disable") {
		t.Fatalf("expected wrapped not-found error, got %v", err)
	}
}
