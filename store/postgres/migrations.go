package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the mintledger store (PostgreSQL).
var Migrations = migrate.NewGroup("mintledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_mintledger_events",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mintledger_events (
    seq        BIGINT PRIMARY KEY,
    id         TEXT NOT NULL UNIQUE,
    kind       TEXT NOT NULL,
    caller     TEXT NOT NULL,
    from_addr  TEXT NOT NULL,
    to_addr    TEXT NOT NULL,
    amount     TEXT NOT NULL DEFAULT '0',
    payment    TEXT NOT NULL DEFAULT '0',
    day        BIGINT NOT NULL DEFAULT 0,
    params     JSONB,
    timestamp  TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_mintledger_events_kind ON mintledger_events (kind, seq);
CREATE INDEX IF NOT EXISTS idx_mintledger_events_caller ON mintledger_events (caller, seq);
CREATE INDEX IF NOT EXISTS idx_mintledger_events_from ON mintledger_events (from_addr, seq);
CREATE INDEX IF NOT EXISTS idx_mintledger_events_to ON mintledger_events (to_addr, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mintledger_events`)
				return err
			},
		},
	)
}
